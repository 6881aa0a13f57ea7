package boltstore

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		convs := tx.Bucket(bucketConversations)
		conv, _, err := loadOrNew(convs, deal.SessionID, now)
		if err != nil {
			return err
		}
		if conv.HasDeal {
			return store.ErrDealExists
		}

		if deal.ID == "" {
			deal.ID = uuid.NewString()
		}
		deal.ConversationID = conv.ID
		deal.CreatedAt = now
		deal.UpdatedAt = now
		if err := putJSON(tx.Bucket(bucketDeals), deal.ID, deal); err != nil {
			return err
		}

		info := deal.UserInfo
		conv.UserInfo = &info
		conv.DealID = models.NewNullString(deal.ID)
		conv.HasDeal = true
		conv.DealStatus = models.NewNullString(deal.Status)
		conv.UpdatedAt = now
		return putJSON(convs, conv.SessionID, conv)
	})
}

func (s *Store) GetDeal(ctx context.Context, id string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketDeals), id, &deal)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *Store) UpdateDeal(ctx context.Context, id string, mutate store.DealMutator) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Update(func(tx *bolt.Tx) error {
		deals := tx.Bucket(bucketDeals)
		if err := getJSON(deals, id, &deal); err != nil {
			return err
		}
		if err := mutate(&deal); err != nil {
			return err
		}
		deal.UpdatedAt = s.now()
		if err := putJSON(deals, deal.ID, &deal); err != nil {
			return err
		}

		// зеркало статуса; беседа могла быть удалена вручную до появления запрета
		convs := tx.Bucket(bucketConversations)
		var conv models.Conversation
		if err := getJSON(convs, deal.SessionID, &conv); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		conv.DealStatus = models.NewNullString(deal.Status)
		conv.UpdatedAt = deal.UpdatedAt
		return putJSON(convs, conv.SessionID, &conv)
	})
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (s *Store) ListDeals(ctx context.Context, status string) ([]models.Deal, error) {
	var all []models.Deal
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		all, err = listJSON[models.Deal](tx.Bucket(bucketDeals))
		return err
	})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
