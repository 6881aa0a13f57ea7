// Package notify доставляет уведомления владельцу портфолио: письмо через SendGrid
// и/или сообщение в Telegram. Доставка без повторов; ошибка только сообщается.
package notify

import (
	"context"
	"errors"
	"fmt"

	"Portfolio/internal/logger"
)

// Notification - готовое к отправке уведомление. Тело приходит уже отрендеренным:
// Text для простого текста, HTML для письма, Markdown для Telegram.
type Notification struct {
	Kind     string // constants.NOTIFY_KIND_*
	Subject  string
	Text     string
	HTML     string
	Markdown string
	ReplyTo  string
}

// Notifier - канал доставки.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Multi рассылает уведомление во все каналы и возвращает ошибки всех неудачных.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	if len(m) == 0 {
		return ErrNoChannels
	}
	var errs []error
	for _, ch := range m {
		if err := ch.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrNoChannels возвращается, когда не настроен ни один канал доставки.
var ErrNoChannels = errors.New("notify: каналы доставки не настроены")

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Send(ctx context.Context, n Notification) error { return f(ctx, n) }

// LogNotifier только пишет уведомление в лог. Используется в dev без SendGrid и Telegram.
type LogNotifier struct {
	Log *logger.Logger
}

func (l LogNotifier) Send(_ context.Context, n Notification) error {
	if l.Log == nil {
		return fmt.Errorf("notify: логгер не задан")
	}
	l.Log.Info("Уведомление (канал не настроен)", "kind", n.Kind, "subject", n.Subject, "length", len(n.Text))
	return nil
}
