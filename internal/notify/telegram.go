package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"Portfolio/internal/telegram_api"
)

// TelegramNotifier пишет владельцу в Telegram.
type TelegramNotifier struct {
	sender telegram_api.Sender
	chatID int64
}

func NewTelegramNotifier(sender telegram_api.Sender, ownerChatID int64) (*TelegramNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("telegram: отправитель не задан")
	}
	if ownerChatID == 0 {
		return nil, fmt.Errorf("telegram: не задан OWNER_CHAT_ID")
	}
	return &TelegramNotifier{sender: sender, chatID: ownerChatID}, nil
}

func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.Markdown != "" {
		return telegram_api.SendText(t.sender, t.chatID, n.Markdown, tgbotapi.ModeMarkdown)
	}
	text := n.Text
	if n.Subject != "" {
		text = n.Subject + "\n\n" + text
	}
	return telegram_api.SendText(t.sender, t.chatID, text, "")
}
