// Package actor переносит уже авторизованного вызывающего через context.
package actor

import (
	"context"
	"strconv"
)

type contextKey struct{ name string }

var actorKey = &contextKey{"actor"}

// Actor - кто выполняет операцию: администратор API или владелец в Telegram.
type Actor struct {
	Kind string // "admin", "telegram", "visitor"
	ID   string
}

func (a Actor) String() string {
	if a.ID == "" {
		return a.Kind
	}
	return a.Kind + ":" + a.ID
}

func Admin(subject string) Actor { return Actor{Kind: "admin", ID: subject} }

func Telegram(chatID int64) Actor {
	return Actor{Kind: "telegram", ID: strconv.FormatInt(chatID, 10)}
}

// Visitor - анонимный посетитель сайта.
var Visitor = Actor{Kind: "visitor"}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// FromContext возвращает Actor или Visitor, если в контексте ничего нет.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey).(Actor); ok {
		return a
	}
	return Visitor
}
