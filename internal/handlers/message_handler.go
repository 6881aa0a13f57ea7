// Файл: internal/handlers/message_handler.go

package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"Portfolio/internal/actor"
	"Portfolio/internal/constants"
	"Portfolio/internal/deals"
	"Portfolio/internal/formatters"
	"Portfolio/internal/reports"
	"Portfolio/internal/telegram_api"
)

const helpText = `🤖 *Deal bot*

/deals [status] - list deals, newest first
/deal <id> - deal details with the conversation
/status <id> <status> [notes] - move a deal forward
/close <id> [notes] - close a deal
/export [status] - deals as an Excel file

Statuses: ` + "`open`, `in-progress`, `closed`, `cancelled`"

const notOwnerText = "⛔ This bot only serves the portfolio owner."

// Run читает обновления до закрытия канала или отмены ctx.
// Обновления обрабатываются по одному: команды владельца редки.
func (bh *BotHandler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			bh.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление; все, кроме сообщений, пропускается.
func (bh *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	bh.HandleMessage(ctx, update.Message)
}

// HandleMessage обрабатывает входящие сообщения от Telegram.
func (bh *BotHandler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	if chatID != bh.Deps.OwnerChatID {
		bh.log.Warn("Сообщение не от владельца проигнорировано", "chat_id", chatID)
		bh.sendMessage(chatID, notOwnerText)
		return
	}

	if !message.IsCommand() {
		bh.log.Debug("HandleMessage: не команда", "chat_id", chatID, "text", text)
		bh.sendMarkdown(chatID, helpText)
		return
	}

	ctx = actor.WithActor(ctx, actor.Telegram(chatID))
	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	bh.log.Info("Команда владельца", "command", command, "args", len(args))

	switch command {
	case "start", "help":
		bh.sendMarkdown(chatID, helpText)
	case "deals":
		bh.handleListDeals(ctx, chatID, args)
	case "deal":
		bh.handleShowDeal(ctx, chatID, args)
	case "status":
		bh.handleUpdateStatus(ctx, chatID, args)
	case "close":
		bh.handleCloseDeal(ctx, chatID, args)
	case "export":
		bh.handleExport(ctx, chatID, args)
	default:
		bh.sendMessage(chatID, fmt.Sprintf("Unknown command /%s. Send /help.", command))
	}
}

func (bh *BotHandler) handleListDeals(ctx context.Context, chatID int64, args []string) {
	status := firstArg(args)
	list, err := bh.Deps.Deals.ListDeals(ctx, status)
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "deals", err)
		return
	}
	bh.sendMarkdown(chatID, formatters.FormatDealListMarkdown(list, status))
}

func (bh *BotHandler) handleShowDeal(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		bh.sendMessage(chatID, "Usage: /deal <id>")
		return
	}
	full, err := bh.Deps.Deals.GetDealWithTranscript(ctx, args[0])
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "deal", err)
		return
	}
	title := "Deal " + full.Deal.ID
	bh.sendMarkdown(chatID, formatters.FormatDealMarkdown(title, full.Deal, full.Conversation.Messages))
}

func (bh *BotHandler) handleUpdateStatus(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		bh.sendMessage(chatID, "Usage: /status <id> <status> [notes]")
		return
	}
	deal, err := bh.Deps.Deals.UpdateStatus(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "status", err)
		return
	}
	reply := fmt.Sprintf("%s Deal `%s` is now *%s*",
		constants.DealStatusEmojiMap[deal.Status], deal.ID, constants.DealStatusDisplayMap[deal.Status])
	if deals.IsTerminal(deal.Status) {
		reply += "\nThe deal is final, its status can no longer change."
	}
	bh.sendMarkdown(chatID, reply)
}

func (bh *BotHandler) handleCloseDeal(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		bh.sendMessage(chatID, "Usage: /close <id> [notes]")
		return
	}
	deal, err := bh.Deps.Deals.CloseDeal(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "close", err)
		return
	}
	bh.sendMarkdown(chatID, fmt.Sprintf("🎉 Deal `%s` closed", deal.ID))
}

func (bh *BotHandler) handleExport(ctx context.Context, chatID int64, args []string) {
	status := firstArg(args)
	list, err := bh.Deps.Deals.ListDeals(ctx, status)
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "export", err)
		return
	}
	data, err := reports.BuildDealsWorkbook(list)
	if err != nil {
		bh.sendErrorMessageHelper(chatID, "export", err)
		return
	}
	filename := reports.DealsFilename(bh.Deps.Now())
	caption := fmt.Sprintf("📊 Deals export (%d)", len(list))
	if err := telegram_api.SendDocument(bh.Deps.Sender, chatID, filename, data, caption); err != nil {
		bh.log.Error("Выгрузка не отправлена", "filename", filename, "error", err)
		return
	}
	bh.log.Info("Выгрузка отправлена", "filename", filename, "deals", len(list))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
