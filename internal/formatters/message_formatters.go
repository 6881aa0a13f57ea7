package formatters

import (
	"fmt"
	"html"
	"strings"

	"Portfolio/internal/constants"
	"Portfolio/internal/models"
	"Portfolio/internal/utils"
)

const (
	separator    = "─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─"
	notSpecified = "Not specified"
	notProvided  = "Not provided"

	TitleNewLead    = "🤖 New Project Inquiry via AI Chatbot"
	TitleDealClosed = "🎉 Deal Closed Successfully!"

	// На одно сообщение Telegram транскрипт обрезается до этого числа реплик с конца.
	telegramTranscriptTail = 20
)

// speaker возвращает подпись роли в транскрипте.
func speaker(role string) string {
	if name, ok := constants.RoleDisplayMap[role]; ok {
		return name
	}
	return role
}

// FormatTranscriptText рендерит историю беседы построчно: "Client: ...", "AI: ...".
func FormatTranscriptText(history []models.ChatMessage) string {
	if len(history) == 0 {
		return "(no messages)\n"
	}
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", speaker(m.Role), m.Content))
	}
	return sb.String()
}

// FormatDealText - текстовая версия уведомления о сделке (text/plain часть письма).
func FormatDealText(title string, deal models.Deal, history []models.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(title + "\n" + separator + "\n")

	sb.WriteString("CLIENT INFORMATION\n")
	sb.WriteString(fmt.Sprintf(" •  Name: %s\n", deal.UserInfo.Name))
	sb.WriteString(fmt.Sprintf(" •  Email: %s\n", deal.UserInfo.Email))
	sb.WriteString(fmt.Sprintf(" •  Phone: %s\n", utils.OrDefault(deal.UserInfo.Phone, notProvided)))
	sb.WriteString("\n")

	sb.WriteString("PROJECT DETAILS\n")
	sb.WriteString(deal.ProjectDetails + "\n\n")

	sb.WriteString("BUDGET & TIMELINE\n")
	sb.WriteString(fmt.Sprintf(" •  Budget: %s\n", utils.OrDefault(deal.Budget, notSpecified)))
	sb.WriteString(fmt.Sprintf(" •  Timeline: %s\n", utils.OrDefault(deal.Timeline, notSpecified)))
	sb.WriteString(fmt.Sprintf(" •  Status: %s\n", statusLabel(deal.Status)))
	sb.WriteString("\n")

	if deal.Notes.Valid {
		sb.WriteString("NOTES\n" + deal.Notes.String + "\n\n")
	}

	sb.WriteString("CONVERSATION HISTORY\n")
	sb.WriteString(FormatTranscriptText(history))

	if deal.Status == constants.DEAL_STATUS_CLOSED {
		sb.WriteString("\nNEXT STEPS\n")
		sb.WriteString(" •  Review the project details\n")
		sb.WriteString(fmt.Sprintf(" •  Reach out to the client at %s\n", deal.UserInfo.Email))
		sb.WriteString(" •  Prepare a detailed proposal\n")
	}
	sb.WriteString(separator + "\n")
	sb.WriteString(fmt.Sprintf("Deal ID: %s\n", deal.ID))
	return sb.String()
}

// FormatDealHTML - HTML-версия того же уведомления. Все значения экранируются.
func FormatDealHTML(title string, deal models.Deal, history []models.ChatMessage) string {
	esc := html.EscapeString
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><style>`)
	sb.WriteString(`body{font-family:Arial,sans-serif;line-height:1.6;color:#333}`)
	sb.WriteString(`.section{background:#fff;padding:16px;margin:16px 0;border-radius:8px}`)
	sb.WriteString(`.label{font-weight:bold;color:#667eea}`)
	sb.WriteString(`.conversation{background:#f5f5f5;padding:12px;border-radius:5px}`)
	sb.WriteString(`</style></head><body>`)
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>", esc(title)))

	sb.WriteString(`<div class="section"><h2>Client Information</h2>`)
	sb.WriteString(fmt.Sprintf(`<p><span class="label">Name:</span> %s</p>`, esc(deal.UserInfo.Name)))
	sb.WriteString(fmt.Sprintf(`<p><span class="label">Email:</span> <a href="mailto:%s">%s</a></p>`, esc(deal.UserInfo.Email), esc(deal.UserInfo.Email)))
	sb.WriteString(fmt.Sprintf(`<p><span class="label">Phone:</span> %s</p>`, esc(utils.OrDefault(deal.UserInfo.Phone, notProvided))))
	sb.WriteString(`</div>`)

	sb.WriteString(fmt.Sprintf(`<div class="section"><h2>Project Details</h2><p>%s</p></div>`, esc(deal.ProjectDetails)))

	sb.WriteString(`<div class="section"><h2>Budget &amp; Timeline</h2>`)
	sb.WriteString(fmt.Sprintf(`<p><span class="label">Budget:</span> %s</p>`, esc(utils.OrDefault(deal.Budget, notSpecified))))
	sb.WriteString(fmt.Sprintf(`<p><span class="label">Timeline:</span> %s</p>`, esc(utils.OrDefault(deal.Timeline, notSpecified))))
	sb.WriteString(`</div>`)

	if deal.Notes.Valid {
		sb.WriteString(fmt.Sprintf(`<div class="section"><h2>Notes</h2><p>%s</p></div>`, esc(deal.Notes.String)))
	}

	sb.WriteString(`<div class="section"><h2>Conversation History</h2><div class="conversation">`)
	for _, m := range history {
		sb.WriteString(fmt.Sprintf(`<p><strong>%s:</strong> %s</p>`, esc(speaker(m.Role)), esc(m.Content)))
	}
	sb.WriteString(`</div></div>`)

	if deal.Status == constants.DEAL_STATUS_CLOSED {
		sb.WriteString(`<div class="section"><h2>Next Steps</h2>`)
		sb.WriteString(`<p>✅ Review the project details</p>`)
		sb.WriteString(fmt.Sprintf(`<p>✅ Reach out to the client at %s</p>`, esc(deal.UserInfo.Email)))
		sb.WriteString(`<p>✅ Prepare a detailed proposal</p></div>`)
	}
	sb.WriteString(fmt.Sprintf(`<p style="color:#888">Deal ID: %s</p></body></html>`, esc(deal.ID)))
	return sb.String()
}

// FormatDealMarkdown - карточка сделки для Telegram (Markdown legacy).
// history == nil дает карточку без транскрипта.
func FormatDealMarkdown(title string, deal models.Deal, history []models.ChatMessage) string {
	md := utils.EscapeTelegramMarkdown
	var sb strings.Builder

	sb.WriteString("👤 *CLIENT:*\n")
	sb.WriteString(fmt.Sprintf(" •  Name: %s\n", md(deal.UserInfo.Name)))
	sb.WriteString(fmt.Sprintf(" •  Email: %s\n", md(deal.UserInfo.Email)))
	sb.WriteString(fmt.Sprintf(" •  Phone: %s\n", md(utils.OrDefault(deal.UserInfo.Phone, notProvided))))
	sb.WriteString("\n")

	sb.WriteString("📋 *DEAL:*\n")
	sb.WriteString(fmt.Sprintf(" •  ID: `%s`\n", deal.ID))
	sb.WriteString(fmt.Sprintf(" •  Status: %s\n", md(statusLabel(deal.Status))))
	sb.WriteString(fmt.Sprintf(" •  Project: %s\n", md(deal.ProjectDetails)))
	sb.WriteString(fmt.Sprintf(" •  Budget: %s\n", md(utils.OrDefault(deal.Budget, notSpecified))))
	sb.WriteString(fmt.Sprintf(" •  Timeline: %s\n", md(utils.OrDefault(deal.Timeline, notSpecified))))
	sb.WriteString(fmt.Sprintf(" •  Created: %s\n", md(utils.FormatDateTime(deal.CreatedAt))))
	if deal.ClosedAt.Valid {
		sb.WriteString(fmt.Sprintf(" •  Closed: %s\n", md(utils.FormatDateTime(deal.ClosedAt.Time))))
	}
	if deal.Notes.Valid {
		sb.WriteString(fmt.Sprintf(" •  Notes: %s\n", md(deal.Notes.String)))
	}

	if history != nil {
		sb.WriteString("\n💬 *CONVERSATION:*\n")
		tail := history
		if len(tail) > telegramTranscriptTail {
			sb.WriteString(fmt.Sprintf(" _...%d earlier messages_\n", len(tail)-telegramTranscriptTail))
			tail = tail[len(tail)-telegramTranscriptTail:]
		}
		for _, m := range tail {
			sb.WriteString(fmt.Sprintf(" *%s:* %s\n", speaker(m.Role), md(utils.Ellipsis(m.Content, 300))))
		}
	}

	return fmt.Sprintf("*%s*\n%s\n%s%s", md(title), separator, sb.String(), separator)
}

// FormatDealListMarkdown - короткий список сделок для команды /deals.
func FormatDealListMarkdown(deals []models.Deal, status string) string {
	md := utils.EscapeTelegramMarkdown
	header := "📂 *Deals*"
	if status != "" {
		header = fmt.Sprintf("📂 *Deals: %s*", md(statusLabel(status)))
	}
	if len(deals) == 0 {
		return header + "\n\n_No deals yet._"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%d)\n%s\n", header, len(deals), separator))
	for _, d := range deals {
		sb.WriteString(fmt.Sprintf("%s `%s`\n    %s <%s>, %s\n",
			constants.DealStatusEmojiMap[d.Status], d.ID,
			md(d.UserInfo.Name), md(d.UserInfo.Email),
			md(utils.FormatDateTime(d.CreatedAt))))
	}
	return sb.String()
}

// FormatContactText - письмо с формы обратной связи.
func FormatContactText(name, email, subject, message string) string {
	var sb strings.Builder
	sb.WriteString("🚀 New Portfolio Contact\n" + separator + "\n")
	sb.WriteString(fmt.Sprintf(" •  Name: %s\n", name))
	sb.WriteString(fmt.Sprintf(" •  Email: %s\n", email))
	sb.WriteString(fmt.Sprintf(" •  Subject: %s\n\n", subject))
	sb.WriteString(message + "\n")
	sb.WriteString(separator + "\nSent from your portfolio website\n")
	return sb.String()
}

// FormatContactHTML - HTML-версия письма с формы обратной связи.
func FormatContactHTML(name, email, subject, message string) string {
	esc := html.EscapeString
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body style="font-family:Arial,sans-serif">`)
	sb.WriteString(`<h1>🚀 New Portfolio Contact</h1>`)
	sb.WriteString(fmt.Sprintf(`<p><strong>Name:</strong> %s</p>`, esc(name)))
	sb.WriteString(fmt.Sprintf(`<p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>`, esc(email), esc(email)))
	sb.WriteString(fmt.Sprintf(`<p><strong>Subject:</strong> %s</p>`, esc(subject)))
	sb.WriteString(fmt.Sprintf(`<p>%s</p>`, strings.ReplaceAll(esc(message), "\n", "<br>")))
	sb.WriteString(`<p style="color:#888">Sent from your portfolio website</p></body></html>`)
	return sb.String()
}

func statusLabel(status string) string {
	if label, ok := constants.DealStatusDisplayMap[status]; ok {
		return label
	}
	return status
}
