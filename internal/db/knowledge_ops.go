package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

func (s *Store) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO knowledge_base (id, title, filename, content, file_url, uploaded_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Title, nullIfEmpty(entry.Filename), entry.Content, nullIfEmpty(entry.FileURL),
		entry.UploadedBy, entry.CreatedAt)
	if err != nil {
		s.log.Error("AddKnowledge: ошибка сохранения документа", "title", entry.Title, "error", err)
	}
	return err
}

func (s *Store) ListKnowledge(ctx context.Context) ([]models.KnowledgeEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, title, filename, content, file_url, uploaded_by, created_at
        FROM knowledge_base ORDER BY created_at DESC`)
	if err != nil {
		s.log.Error("ListKnowledge: ошибка запроса", "error", err)
		return nil, err
	}
	defer rows.Close()

	entries := []models.KnowledgeEntry{}
	for rows.Next() {
		var e models.KnowledgeEntry
		var filename, fileURL sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &filename, &e.Content, &fileURL, &e.UploadedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Filename = filename.String
		e.FileURL = fileURL.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) DeleteKnowledge(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "knowledge_base", id)
}

// deleteByID удаляет строку по id; ErrNotFound, если удалять нечего.
// table подставляется только из констант этого пакета.
func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		s.log.Error("deleteByID: ошибка удаления", "table", table, "id", id, "error", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
