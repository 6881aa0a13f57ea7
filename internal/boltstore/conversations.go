package boltstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

func newConversation(sessionID string, now time.Time) *models.Conversation {
	return &models.Conversation{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Messages:      []models.ChatMessage{},
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
}

// loadOrNew читает беседу из бакета или создает новую в памяти.
func loadOrNew(b *bolt.Bucket, sessionID string, now time.Time) (*models.Conversation, bool, error) {
	var conv models.Conversation
	err := getJSON(b, sessionID, &conv)
	if errors.Is(err, store.ErrNotFound) {
		return newConversation(sessionID, now), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if conv.Messages == nil {
		conv.Messages = []models.ChatMessage{}
	}
	return &conv, false, nil
}

func (s *Store) GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketConversations), sessionID, &conv)
	})
	if err != nil {
		return nil, err
	}
	if conv.Messages == nil {
		conv.Messages = []models.ChatMessage{}
	}
	return &conv, nil
}

func (s *Store) EnsureConversation(ctx context.Context, sessionID string, now time.Time) (*models.Conversation, error) {
	var conv *models.Conversation
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations)
		c, created, err := loadOrNew(b, sessionID, now)
		if err != nil {
			return err
		}
		conv = c
		if !created {
			return nil
		}
		return putJSON(b, sessionID, c)
	})
	return conv, err
}

// AppendMessage выполняет чтение и запись в одной транзакции Update:
// bbolt допускает одного писателя, поэтому параллельные добавления не перемешиваются.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg models.ChatMessage) (*models.Conversation, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	var conv *models.Conversation
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations)
		c, _, err := loadOrNew(b, sessionID, msg.Timestamp)
		if err != nil {
			return err
		}
		c.Messages = append(c.Messages, msg)
		c.LastMessageAt = msg.Timestamp
		c.UpdatedAt = msg.Timestamp
		conv = c
		return putJSON(b, sessionID, c)
	})
	return conv, err
}

func (s *Store) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[models.Conversation](tx.Bucket(bucketConversations))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (s *Store) DeleteConversation(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversations)
		var conv models.Conversation
		if err := getJSON(b, sessionID, &conv); err != nil {
			return err
		}
		if conv.HasDeal {
			return store.ErrHasDeal
		}
		return b.Delete([]byte(sessionID))
	})
}
