package boltstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"Portfolio/internal/models"
)

func (s *Store) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketKnowledge), entry.ID, entry)
	})
}

func (s *Store) ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	var out []models.KnowledgeEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[models.KnowledgeEntry](tx.Bucket(bucketKnowledge))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteKnowledge(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteKey(tx.Bucket(bucketKnowledge), id)
	})
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[models.Project](tx.Bucket(bucketProjects))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AddProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketProjects), p.ID, p)
	})
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteKey(tx.Bucket(bucketProjects), id)
	})
}

func (s *Store) ListExperiences(ctx context.Context) ([]models.Experience, error) {
	var out []models.Experience
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = listJSON[models.Experience](tx.Bucket(bucketExperiences))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AddExperience(ctx context.Context, e *models.Experience) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketExperiences), e.ID, e)
	})
}

func (s *Store) DeleteExperience(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteKey(tx.Bucket(bucketExperiences), id)
	})
}
