// Package conversation - хранилище бесед поверх репозитория: ошибки репозитория
// переводятся в apierr, чтение неизвестной сессии дает пустую историю.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

type Service struct {
	repo    store.ConversationRepository
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo store.ConversationRepository, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, log: log, metrics: m, now: time.Now}
}

// ValidateSessionID проверяет непрозрачный идентификатор сессии.
func ValidateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apierr.Validation("sessionId is required")
	}
	if len(sessionID) > constants.MaxSessionIDLength {
		return apierr.Validation("sessionId is longer than %d bytes", constants.MaxSessionIDLength)
	}
	return nil
}

// GetOrCreate возвращает беседу, создавая пустую при первом обращении.
func (s *Service) GetOrCreate(ctx context.Context, sessionID string) (*models.Conversation, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	conv, err := s.repo.EnsureConversation(ctx, sessionID, s.now())
	if err != nil {
		return nil, apierr.Persistence("getOrCreate", err)
	}
	return conv, nil
}

// AppendMessage сохраняет сообщение; после успешного возврата оно уже записано.
func (s *Service) AppendMessage(ctx context.Context, sessionID, role, content string) (*models.Conversation, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if role != constants.ROLE_USER && role != constants.ROLE_ASSISTANT {
		return nil, apierr.Validation("unknown role %q", role)
	}
	conv, err := s.repo.AppendMessage(ctx, sessionID, models.ChatMessage{Role: role, Content: content, Timestamp: s.now()})
	if err != nil {
		s.log.Error("conversation: сообщение не сохранено", "session_id", sessionID, "role", role, "error", err)
		return nil, apierr.Persistence("appendMessage", err)
	}
	s.metrics.ChatMessage(role)
	return conv, nil
}

// Get возвращает беседу; для неизвестной сессии - пустую, не сохраняя ее.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.Conversation, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	conv, err := s.repo.GetConversation(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Conversation{SessionID: sessionID, Messages: []models.ChatMessage{}}, nil
	}
	if err != nil {
		return nil, apierr.Persistence("getHistory", err)
	}
	return conv, nil
}

// GetHistory возвращает сообщения в порядке добавления; пустой срез для новой сессии.
func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	conv, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

// List возвращает все беседы и сводку по наличию сделок.
func (s *Service) List(ctx context.Context) ([]models.Conversation, models.ConversationStats, error) {
	convs, err := s.repo.ListConversations(ctx)
	if err != nil {
		return nil, models.ConversationStats{}, apierr.Persistence("listConversations", err)
	}
	stats := models.ConversationStats{Total: len(convs)}
	for _, c := range convs {
		if c.HasDeal {
			stats.WithDeal++
		}
	}
	stats.WithoutDeal = stats.Total - stats.WithDeal
	return convs, stats, nil
}

// Delete удаляет беседу без сделки.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	err := s.repo.DeleteConversation(ctx, sessionID)
	switch {
	case err == nil:
		s.log.Info("conversation: беседа удалена", "session_id", sessionID)
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apierr.NotFound("conversation not found")
	case errors.Is(err, store.ErrHasDeal):
		return apierr.Conflict("conversation has a deal and cannot be deleted")
	default:
		return apierr.Persistence("deleteConversation", err)
	}
}
