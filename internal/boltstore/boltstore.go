// Package boltstore - встроенное хранилище на bbolt для запуска без PostgreSQL и для тестов.
// Каждый набор данных живет в своем бакете, значения хранятся в JSON.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"Portfolio/internal/store"
)

var (
	bucketConversations = []byte("conversations")
	bucketDeals         = []byte("deals")
	bucketKnowledge     = []byte("knowledge_base")
	bucketProjects      = []byte("projects")
	bucketExperiences   = []byte("experiences")
)

var allBuckets = [][]byte{bucketConversations, bucketDeals, bucketKnowledge, bucketProjects, bucketExperiences}

// Store реализует store.Store поверх одного файла bbolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open открывает (или создает) файл базы и все бакеты.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: открытие %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: создание бакетов: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetClock подменяет источник времени (нужно тестам, которым важен порядок createdAt).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketConversations) == nil {
			return fmt.Errorf("boltstore: бакет %s отсутствует", bucketConversations)
		}
		return nil
	})
}

func getJSON(b *bolt.Bucket, key string, dst any) error {
	raw := b.Get([]byte(key))
	if raw == nil {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	enc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), enc)
}

func deleteKey(b *bolt.Bucket, key string) error {
	if b.Get([]byte(key)) == nil {
		return store.ErrNotFound
	}
	return b.Delete([]byte(key))
}

// listJSON декодирует все значения бакета в срез T.
func listJSON[T any](b *bolt.Bucket) ([]T, error) {
	out := make([]T, 0)
	err := b.ForEach(func(_, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		out = append(out, item)
		return nil
	})
	return out, err
}
