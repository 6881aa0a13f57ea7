// Package deals - жизненный цикл сделок (лидов). Менеджер - единственный, кто
// пишет статус сделки и его зеркало в беседе.
package deals

import (
	"context"
	"errors"
	"strings"
	"time"

	"Portfolio/internal/actor"
	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
	"Portfolio/internal/conversation"
	"Portfolio/internal/formatters"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/models"
	"Portfolio/internal/notify"
	"Portfolio/internal/store"
	"Portfolio/internal/utils"
)

// CreateInput - данные формы сделки из чата.
type CreateInput struct {
	SessionID      string          `json:"sessionId"`
	UserInfo       models.UserInfo `json:"userInfo"`
	ProjectDetails string          `json:"projectDetails"`
	Budget         string          `json:"budget"`
	Timeline       string          `json:"timeline"`
}

type Manager struct {
	deals    store.DealRepository
	convs    store.ConversationRepository
	notifier *notify.Dispatcher
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewManager(deals store.DealRepository, convs store.ConversationRepository, n *notify.Dispatcher, log *logger.Logger, m *metrics.Metrics) *Manager {
	return &Manager{deals: deals, convs: convs, notifier: n, log: log.With("component", "deals"), metrics: m, now: time.Now}
}

// CreateDeal создает сделку в статусе open и связывает с ней беседу сессии.
// Уведомление о новом лиде отправляется в фоне.
func (m *Manager) CreateDeal(ctx context.Context, in CreateInput) (*models.Deal, error) {
	if err := conversation.ValidateSessionID(in.SessionID); err != nil {
		return nil, err
	}
	info, err := normalizeUserInfo(in.UserInfo)
	if err != nil {
		return nil, err
	}

	deal := &models.Deal{
		SessionID:      in.SessionID,
		UserInfo:       info,
		ProjectDetails: utils.OrDefault(strings.TrimSpace(in.ProjectDetails), constants.DefaultProjectDetails),
		Budget:         strings.TrimSpace(in.Budget),
		Timeline:       strings.TrimSpace(in.Timeline),
		Status:         constants.DEAL_STATUS_OPEN,
	}
	if err := m.deals.CreateDeal(ctx, deal); err != nil {
		if errors.Is(err, store.ErrDealExists) {
			return nil, apierr.Conflict("a deal already exists for this session")
		}
		return nil, apierr.Persistence("createDeal", err)
	}

	m.metrics.DealCreated()
	m.log.Info("Создана сделка", "deal_id", deal.ID, "session_id", deal.SessionID, "actor", actor.FromContext(ctx).String())

	history := m.history(ctx, deal.SessionID)
	m.notifier.Dispatch(ctx, notify.Notification{
		Kind:     constants.NOTIFY_KIND_NEW_LEAD,
		Subject:  "🚀 New Project Inquiry from AI Chatbot",
		Text:     formatters.FormatDealText(formatters.TitleNewLead, *deal, history),
		HTML:     formatters.FormatDealHTML(formatters.TitleNewLead, *deal, history),
		Markdown: formatters.FormatDealMarkdown(formatters.TitleNewLead, *deal, history),
		ReplyTo:  deal.UserInfo.Email,
	})
	return deal, nil
}

// UpdateStatus переводит сделку в новый статус. Пустые notes не меняют заметки.
func (m *Manager) UpdateStatus(ctx context.Context, dealID, status, notes string) (*models.Deal, error) {
	deal, _, err := m.updateStatus(ctx, dealID, status, notes)
	return deal, err
}

// updateStatus дополнительно возвращает статус до изменения.
func (m *Manager) updateStatus(ctx context.Context, dealID, status, notes string) (*models.Deal, string, error) {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return nil, "", apierr.Validation("dealId is required")
	}
	status = strings.TrimSpace(status)
	if err := validateStatus(status); err != nil {
		return nil, "", err
	}
	notes = strings.TrimSpace(notes)

	var from string
	deal, err := m.deals.UpdateDeal(ctx, dealID, func(d *models.Deal) error {
		from = d.Status
		if !CanTransition(d.Status, status) {
			return apierr.Conflict("deal %s cannot move from %s to %s", dealID, d.Status, status)
		}
		if d.Status != status && status == constants.DEAL_STATUS_CLOSED {
			d.ClosedAt = models.NewNullTime(m.now())
		}
		d.Status = status
		if notes != "" {
			d.Notes = models.NewNullString(notes)
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return nil, "", apierr.NotFound("deal %s not found", dealID)
	case errors.Is(err, apierr.ErrConflict):
		return nil, "", err
	default:
		return nil, "", apierr.Persistence("updateStatus", err)
	}

	if from != status {
		m.metrics.DealTransition(status)
		m.log.Info("Статус сделки изменен", "deal_id", dealID, "from", from, "to", status, "actor", actor.FromContext(ctx).String())
	}
	return deal, from, nil
}

// CloseDeal закрывает сделку и в фоне отправляет владельцу сводку с транскриптом.
// Неудача отправки не откатывает закрытие. Повторное закрытие только обновляет
// заметки и письмо не шлет.
func (m *Manager) CloseDeal(ctx context.Context, dealID, notes string) (*models.Deal, error) {
	deal, from, err := m.updateStatus(ctx, dealID, constants.DEAL_STATUS_CLOSED, notes)
	if err != nil {
		return nil, err
	}
	if from == constants.DEAL_STATUS_CLOSED {
		return deal, nil
	}

	history := m.history(ctx, deal.SessionID)
	m.notifier.Dispatch(ctx, notify.Notification{
		Kind:     constants.NOTIFY_KIND_DEAL_CLOSED,
		Subject:  "🎉 Deal Closed - " + deal.UserInfo.Name,
		Text:     formatters.FormatDealText(formatters.TitleDealClosed, *deal, history),
		HTML:     formatters.FormatDealHTML(formatters.TitleDealClosed, *deal, history),
		Markdown: formatters.FormatDealMarkdown(formatters.TitleDealClosed, *deal, history),
		ReplyTo:  deal.UserInfo.Email,
	})
	return deal, nil
}

func (m *Manager) GetDeal(ctx context.Context, dealID string) (*models.Deal, error) {
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		return nil, apierr.Validation("dealId is required")
	}
	deal, err := m.deals.GetDeal(ctx, dealID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierr.NotFound("deal %s not found", dealID)
	}
	if err != nil {
		return nil, apierr.Persistence("getDeal", err)
	}
	return deal, nil
}

// GetDealWithTranscript возвращает сделку вместе с беседой.
func (m *Manager) GetDealWithTranscript(ctx context.Context, dealID string) (*models.DealWithTranscript, error) {
	deal, err := m.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	out := &models.DealWithTranscript{Deal: *deal}
	conv, err := m.convs.GetConversation(ctx, deal.SessionID)
	switch {
	case err == nil:
		out.Conversation = *conv
	case errors.Is(err, store.ErrNotFound):
		out.Conversation = models.Conversation{SessionID: deal.SessionID, Messages: []models.ChatMessage{}}
	default:
		return nil, apierr.Persistence("getDeal", err)
	}
	return out, nil
}

// ListDeals возвращает сделки от новых к старым; пустой status - все.
func (m *Manager) ListDeals(ctx context.Context, status string) ([]models.Deal, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		if err := validateStatus(status); err != nil {
			return nil, err
		}
	}
	deals, err := m.deals.ListDeals(ctx, status)
	if err != nil {
		return nil, apierr.Persistence("listDeals", err)
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	return deals, nil
}

// history нужна только для уведомлений, поэтому ошибка чтения не фатальна.
func (m *Manager) history(ctx context.Context, sessionID string) []models.ChatMessage {
	conv, err := m.convs.GetConversation(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn("Не удалось прочитать беседу для уведомления", "session_id", sessionID, "error", err)
		}
		return nil
	}
	return conv.Messages
}

func normalizeUserInfo(u models.UserInfo) (models.UserInfo, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return u, apierr.Validation("userInfo.name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return u, apierr.Validation("userInfo.email is required")
	}
	email, err := utils.ValidateEmail(u.Email)
	if err != nil {
		return u, apierr.Validation("userInfo.email: %v", err)
	}
	u.Email = email
	phone, err := utils.NormalizePhone(u.Phone)
	if err != nil {
		return u, apierr.Validation("userInfo.phone: %v", err)
	}
	u.Phone = phone
	return u, nil
}
