// Package store описывает контракты хранилища, общие для PostgreSQL и bbolt.
package store

import (
	"context"
	"errors"
	"time"

	"Portfolio/internal/models"
)

// ErrNotFound возвращается, когда запись с заданным ключом отсутствует.
var ErrNotFound = errors.New("record not found")

// ErrHasDeal - беседу нельзя удалить, пока с ней связана сделка.
var ErrHasDeal = errors.New("conversation has a deal")

// ErrDealExists - у беседы уже есть сделка, вторая не создается.
var ErrDealExists = errors.New("conversation already has a deal")

// ConversationRepository хранит беседы по sessionId.
type ConversationRepository interface {
	// GetConversation возвращает ErrNotFound для неизвестной сессии.
	GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error)
	// EnsureConversation создает пустую беседу, если ее нет.
	EnsureConversation(ctx context.Context, sessionID string, now time.Time) (*models.Conversation, error)
	// AppendMessage атомарно создает беседу при необходимости, дописывает сообщение
	// и обновляет lastMessageAt.
	AppendMessage(ctx context.Context, sessionID string, msg models.ChatMessage) (*models.Conversation, error)
	// ListConversations возвращает беседы от последнего сообщения к первому.
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	// DeleteConversation возвращает ErrNotFound или ErrHasDeal.
	DeleteConversation(ctx context.Context, sessionID string) error
}

// DealMutator меняет сделку внутри транзакции. Ошибка отменяет изменение.
type DealMutator func(deal *models.Deal) error

// DealRepository хранит сделки. Только он пишет зеркало статуса в беседу.
type DealRepository interface {
	// CreateDeal находит или создает беседу сессии, сохраняет сделку
	// и связывает беседу с ней (dealId, hasDeal, dealStatus, userInfo) одной операцией.
	// Возвращает ErrDealExists, если у беседы уже есть сделка.
	CreateDeal(ctx context.Context, deal *models.Deal) error
	GetDeal(ctx context.Context, id string) (*models.Deal, error)
	// UpdateDeal применяет mutate под блокировкой записи и зеркалит статус в беседу.
	UpdateDeal(ctx context.Context, id string, mutate DealMutator) (*models.Deal, error)
	// ListDeals возвращает сделки от новых к старым; пустой status - все.
	ListDeals(ctx context.Context, status string) ([]models.Deal, error)
}

// KnowledgeRepository хранит документы базы знаний.
type KnowledgeRepository interface {
	AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
	// ListKnowledge возвращает записи с текстом, от новых к старым.
	ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error)
	DeleteKnowledge(ctx context.Context, id string) error
}

// CatalogRepository хранит проекты и опыт работы.
// Списки упорядочены по order, затем по createdAt от новых к старым.
type CatalogRepository interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	AddProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListExperiences(ctx context.Context) ([]models.Experience, error)
	AddExperience(ctx context.Context, e *models.Experience) error
	DeleteExperience(ctx context.Context, id string) error
}

// Store объединяет все репозитории одного хранилища.
type Store interface {
	ConversationRepository
	DealRepository
	KnowledgeRepository
	CatalogRepository
	Ping(ctx context.Context) error
	Close() error
}
