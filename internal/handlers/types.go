package handlers

import (
	"errors"
	"time"

	"Portfolio/internal/deals"
	"Portfolio/internal/logger"
	"Portfolio/internal/telegram_api"
)

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
// HandlerDependencies contains all dependencies required for handlers.
type HandlerDependencies struct {
	Sender      telegram_api.Sender
	Deals       *deals.Manager
	OwnerChatID int64
	Log         *logger.Logger
	Now         func() time.Time // для имени файла выгрузки; nil - time.Now
}

// BotHandler обрабатывает команды владельца в Telegram.
// BotHandler handles owner commands in Telegram.
type BotHandler struct {
	Deps HandlerDependencies
	log  *logger.Logger
}

// NewBotHandler создает новый экземпляр BotHandler.
// NewBotHandler creates a new instance of BotHandler.
func NewBotHandler(deps HandlerDependencies) (*BotHandler, error) {
	if deps.Sender == nil || deps.Deals == nil {
		return nil, errors.New("handlers: не все зависимости для BotHandler были предоставлены")
	}
	if deps.OwnerChatID == 0 {
		return nil, errors.New("handlers: не задан OWNER_CHAT_ID")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &BotHandler{Deps: deps, log: deps.Log.With("component", "bot")}, nil
}
