package telegram_api

import (
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"Portfolio/internal/logger"
)

// Sender - все, что нужно для отправки сообщений. Его реализует BotClient,
// в тестах подставляется фейк.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotClient представляет собой обертку для Telegram Bot API.
// BotClient represents a wrapper for the Telegram Bot API.
type BotClient struct {
	api   *tgbotapi.BotAPI
	log   *logger.Logger
	Debug bool
}

// NewBotClient авторизует бота и отключает вебхук, чтобы работал getUpdates.
func NewBotClient(token string, debug bool, log *logger.Logger) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	log = log.With("component", "telegram")
	log.Info("Авторизован аккаунт бота", "username", api.Self.UserName)

	// Ошибка возможна, если вебхука и не было; логируем и продолжаем.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		log.Warn("Не удалось отключить вебхук", "error", err)
	}

	return &BotClient{api: api, log: log, Debug: debug}, nil
}

// Username возвращает имя бота.
func (bc *BotClient) Username() string {
	if bc == nil || bc.api == nil {
		return ""
	}
	return bc.api.Self.UserName
}

// GetUpdatesChan возвращает канал обновлений от Telegram.
// GetUpdatesChan returns the update channel from Telegram.
func (bc *BotClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if bc.Debug {
		bc.log.Debug("Запрос канала обновлений", "timeout", config.Timeout, "offset", config.Offset)
	}
	return bc.api.GetUpdatesChan(config)
}

// StopReceivingUpdates останавливает long polling; канал обновлений закрывается.
func (bc *BotClient) StopReceivingUpdates() {
	if bc != nil && bc.api != nil {
		bc.api.StopReceivingUpdates()
	}
}

// Send отправляет сообщение через BotClient.
// Send sends a message via BotClient.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc == nil || bc.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		switch msg := c.(type) {
		case tgbotapi.MessageConfig:
			bc.log.Debug("Отправка сообщения", "length", len(msg.Text))
		case tgbotapi.DocumentConfig:
			bc.log.Debug("Отправка документа", "caption", msg.Caption)
		default:
			bc.log.Debug("Отправка запроса", "type", fmt.Sprintf("%T", c))
		}
	}
	return bc.api.Send(c)
}

// Request выполняет запрос через BotClient.
// Request performs a request via BotClient.
func (bc *BotClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if bc == nil || bc.api == nil {
		return nil, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		bc.log.Debug("Выполнение запроса", "type", fmt.Sprintf("%T", c))
	}
	return bc.api.Request(c)
}
