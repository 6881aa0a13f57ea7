package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

const conversationColumns = `id, session_id, user_name, user_email, user_phone, deal_id, has_deal, deal_status,
        created_at, updated_at, last_message_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var conv models.Conversation
	var name, email, phone sql.NullString
	err := row.Scan(&conv.ID, &conv.SessionID, &name, &email, &phone, &conv.DealID, &conv.HasDeal, &conv.DealStatus,
		&conv.CreatedAt, &conv.UpdatedAt, &conv.LastMessageAt)
	if err != nil {
		return nil, err
	}
	if name.Valid || email.Valid || phone.Valid {
		conv.UserInfo = &models.UserInfo{Name: name.String, Email: email.String, Phone: phone.String}
	}
	conv.Messages = []models.ChatMessage{}
	return &conv, nil
}

// loadMessages читает сообщения беседы в порядке добавления (по BIGSERIAL id).
func loadMessages(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, conversationID string) ([]models.ChatMessage, error) {
	rows, err := q.QueryContext(ctx, `
        SELECT role, content, created_at FROM chat_messages
        WHERE conversation_id = $1
        ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetConversation возвращает беседу со всеми сообщениями.
func (s *Store) GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE session_id = $1`, sessionID)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		s.log.Error("GetConversation: ошибка чтения беседы", "session_id", sessionID, "error", err)
		return nil, err
	}
	conv.Messages, err = loadMessages(ctx, s.DB, conv.ID)
	if err != nil {
		s.log.Error("GetConversation: ошибка чтения сообщений", "session_id", sessionID, "error", err)
		return nil, err
	}
	return conv, nil
}

// upsertConversation создает беседу или берет блокировку строки существующей.
// Блокировка держится до конца транзакции, поэтому записи одной сессии идут по очереди.
func upsertConversation(ctx context.Context, tx *sql.Tx, sessionID string, now time.Time) (id string, hasDeal bool, err error) {
	err = tx.QueryRowContext(ctx, `
        INSERT INTO conversations (id, session_id, created_at, updated_at, last_message_at)
        VALUES ($1, $2, $3, $3, $3)
        ON CONFLICT (session_id) DO UPDATE SET updated_at = conversations.updated_at
        RETURNING id, has_deal`, uuid.NewString(), sessionID, now).Scan(&id, &hasDeal)
	return id, hasDeal, err
}

func (s *Store) EnsureConversation(ctx context.Context, sessionID string, now time.Time) (*models.Conversation, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, _, err := upsertConversation(ctx, tx, sessionID, now)
		return err
	})
	if err != nil {
		s.log.Error("EnsureConversation: ошибка создания беседы", "session_id", sessionID, "error", err)
		return nil, err
	}
	return s.GetConversation(ctx, sessionID)
}

// AppendMessage дописывает сообщение в одной транзакции с созданием беседы.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg models.ChatMessage) (*models.Conversation, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		convID, _, err := upsertConversation(ctx, tx, sessionID, msg.Timestamp)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO chat_messages (conversation_id, role, content, created_at)
            VALUES ($1, $2, $3, $4)`, convID, msg.Role, msg.Content, msg.Timestamp); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
            UPDATE conversations SET last_message_at = $2, updated_at = $2 WHERE id = $1`, convID, msg.Timestamp)
		return err
	})
	if err != nil {
		s.log.Error("AppendMessage: ошибка добавления сообщения", "session_id", sessionID, "role", msg.Role, "error", err)
		return nil, err
	}
	return s.GetConversation(ctx, sessionID)
}

// ListConversations возвращает все беседы с сообщениями, от последней активности к первой.
func (s *Store) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY last_message_at DESC`)
	if err != nil {
		s.log.Error("ListConversations: ошибка запроса", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Conversation
	index := map[string]int{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		index[conv.ID] = len(out)
		out = append(out, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []models.Conversation{}, nil
	}

	msgRows, err := s.DB.QueryContext(ctx, `
        SELECT conversation_id, role, content, created_at FROM chat_messages
        ORDER BY conversation_id, id ASC`)
	if err != nil {
		s.log.Error("ListConversations: ошибка чтения сообщений", "error", err)
		return nil, err
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var convID string
		var m models.ChatMessage
		if err := msgRows.Scan(&convID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		if i, ok := index[convID]; ok {
			out[i].Messages = append(out[i].Messages, m)
		}
	}
	return out, msgRows.Err()
}

// DeleteConversation удаляет беседу вместе с сообщениями, если к ней не привязана сделка.
func (s *Store) DeleteConversation(ctx context.Context, sessionID string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		var hasDeal bool
		err := tx.QueryRowContext(ctx, `SELECT id, has_deal FROM conversations WHERE session_id = $1 FOR UPDATE`, sessionID).
			Scan(&id, &hasDeal)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		if hasDeal {
			return store.ErrHasDeal
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
		return err
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrHasDeal) {
		s.log.Error("DeleteConversation: ошибка удаления", "session_id", sessionID, "error", err)
	}
	return err
}
