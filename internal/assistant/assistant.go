// Package assistant связывает хранилище бесед, каталог и движок ответов
// в один обмен сообщениями.
package assistant

import (
	"context"
	"strings"
	"unicode/utf8"

	"Portfolio/internal/apierr"
	"Portfolio/internal/chat"
	"Portfolio/internal/config"
	"Portfolio/internal/constants"
	"Portfolio/internal/conversation"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/models"
	"Portfolio/internal/session"
	"Portfolio/internal/store"
)

// RuleFallback - имя "правила" для запасного ответа.
const RuleFallback = "fallback"

// Reply - ответ посетителю. Fallback означает, что обмен не удалось сохранить
// и вместо ответа движка отдано извинение с контактами.
type Reply struct {
	Text     string `json:"reply"`
	Rule     string `json:"rule"`
	Fallback bool   `json:"fallback"`
}

// ContentSource - каталог и база знаний, которые читаются заново на каждое сообщение.
type ContentSource interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListExperiences(ctx context.Context) ([]models.Experience, error)
	ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
}

var _ ContentSource = (store.Store)(nil)

type Assistant struct {
	convs    *conversation.Service
	content  ContentSource
	engine   *chat.Engine
	sessions *session.Manager
	profile  config.Profile
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func New(convs *conversation.Service, content ContentSource, engine *chat.Engine, sessions *session.Manager, profile config.Profile, log *logger.Logger, m *metrics.Metrics) *Assistant {
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Assistant{
		convs:    convs,
		content:  content,
		engine:   engine,
		sessions: sessions,
		profile:  profile,
		log:      log.With("component", "assistant"),
		metrics:  m,
	}
}

// ValidateMessage проверяет текст сообщения посетителя.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return apierr.Validation("message is required")
	}
	if utf8.RuneCountInString(text) > constants.MaxMessageLength {
		return apierr.Validation("message is longer than %d characters", constants.MaxMessageLength)
	}
	return nil
}

// HandleMessage сохраняет сообщение, строит ответ и сохраняет его.
// При ошибке хранилища возвращается Fallback-ответ вместе с ошибкой;
// ошибки валидации возвращаются без ответа.
func (a *Assistant) HandleMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	if err := conversation.ValidateSessionID(sessionID); err != nil {
		return Reply{}, err
	}
	if err := ValidateMessage(text); err != nil {
		return Reply{}, err
	}

	unlock := a.sessions.Lock(sessionID)
	defer unlock()

	if _, err := a.convs.AppendMessage(ctx, sessionID, constants.ROLE_USER, text); err != nil {
		return a.fallback(sessionID, err)
	}

	in, err := a.loadInput(ctx, text)
	if err != nil {
		return a.fallback(sessionID, err)
	}
	reply := a.engine.Evaluate(in)

	if _, err := a.convs.AppendMessage(ctx, sessionID, constants.ROLE_ASSISTANT, reply.Text); err != nil {
		return a.fallback(sessionID, err)
	}

	a.metrics.ChatReply(reply.Rule)
	a.log.Debug("Ответ отправлен", "session_id", sessionID, "rule", reply.Rule)
	return Reply{Text: reply.Text, Rule: reply.Rule}, nil
}

func (a *Assistant) loadInput(ctx context.Context, text string) (chat.Input, error) {
	in := chat.Input{Utterance: text}

	projects, err := a.content.ListProjects(ctx)
	if err != nil {
		return in, apierr.Persistence("listProjects", err)
	}
	experiences, err := a.content.ListExperiences(ctx)
	if err != nil {
		return in, apierr.Persistence("listExperiences", err)
	}
	kb, err := a.content.ListKnowledge(ctx)
	if err != nil {
		return in, apierr.Persistence("listKnowledge", err)
	}

	in.Projects = make([]models.ProjectSummary, len(projects))
	for i, p := range projects {
		in.Projects[i] = p.Summary()
	}
	in.Experiences = make([]models.ExperienceSummary, len(experiences))
	for i, e := range experiences {
		in.Experiences[i] = e.Summary()
	}
	in.Knowledge = kb
	return in, nil
}

func (a *Assistant) fallback(sessionID string, err error) (Reply, error) {
	a.metrics.ChatFallback()
	a.log.Error("Обмен не сохранен, отдан запасной ответ", "session_id", sessionID, "error", err)
	return Reply{Text: chat.FallbackReply(a.profile.Email), Rule: RuleFallback, Fallback: true}, err
}
