package handlers

import (
	"errors"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"Portfolio/internal/apierr"
	"Portfolio/internal/telegram_api"
)

// --- Вспомогательные функции для отправки сообщений ---
// --- Helper functions for sending messages ---

// sendMessage отправляет простой текст без разметки.
func (bh *BotHandler) sendMessage(chatID int64, text string) {
	if err := telegram_api.SendText(bh.Deps.Sender, chatID, text, ""); err != nil {
		bh.log.Error("Не удалось отправить сообщение", "chat_id", chatID, "error", err)
	}
}

// sendMarkdown отправляет текст с legacy Markdown.
func (bh *BotHandler) sendMarkdown(chatID int64, text string) {
	if err := telegram_api.SendText(bh.Deps.Sender, chatID, text, tgbotapi.ModeMarkdown); err != nil {
		bh.log.Error("Не удалось отправить сообщение", "chat_id", chatID, "error", err)
	}
}

// sendErrorMessageHelper показывает владельцу ошибку операции.
// Внутренние причины (сбои хранилища) не раскрываются.
func (bh *BotHandler) sendErrorMessageHelper(chatID int64, command string, err error) {
	var e *apierr.Error
	if !errors.As(err, &e) || errors.Is(err, apierr.ErrPersistence) {
		bh.log.Error("Команда завершилась ошибкой", "command", command, "error", err)
	} else {
		bh.log.Warn("Команда отклонена", "command", command, "error", err)
	}
	bh.sendMessage(chatID, "❌ "+apierr.PublicMessage(err))
}
