package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"Portfolio/internal/models"
	"Portfolio/internal/store"
)

const dealColumns = `id, conversation_id, session_id, user_name, user_email, user_phone, project_details,
        budget, timeline, status, notes, closed_at, created_at, updated_at`

func scanDeal(row rowScanner) (*models.Deal, error) {
	var d models.Deal
	var phone, budget, timeline sql.NullString
	err := row.Scan(&d.ID, &d.ConversationID, &d.SessionID, &d.UserInfo.Name, &d.UserInfo.Email, &phone,
		&d.ProjectDetails, &budget, &timeline, &d.Status, &d.Notes, &d.ClosedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.UserInfo.Phone = phone.String
	d.Budget = budget.String
	d.Timeline = timeline.String
	return &d, nil
}

// CreateDeal сохраняет сделку и связывает с ней беседу в одной транзакции.
func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	now := s.now()
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		convID, hasDeal, err := upsertConversation(ctx, tx, deal.SessionID, now)
		if err != nil {
			return err
		}
		if hasDeal {
			return store.ErrDealExists
		}
		deal.ConversationID = convID
		deal.CreatedAt = now
		deal.UpdatedAt = now

		_, err = tx.ExecContext(ctx, `
            INSERT INTO deals (id, conversation_id, session_id, user_name, user_email, user_phone, project_details,
                               budget, timeline, status, notes, closed_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
			deal.ID, deal.ConversationID, deal.SessionID, deal.UserInfo.Name, deal.UserInfo.Email,
			nullIfEmpty(deal.UserInfo.Phone), deal.ProjectDetails, nullIfEmpty(deal.Budget), nullIfEmpty(deal.Timeline),
			deal.Status, deal.Notes, deal.ClosedAt, now)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
            UPDATE conversations
            SET user_name = $2, user_email = $3, user_phone = $4,
                deal_id = $5, has_deal = TRUE, deal_status = $6, updated_at = $7
            WHERE id = $1`,
			convID, deal.UserInfo.Name, deal.UserInfo.Email, nullIfEmpty(deal.UserInfo.Phone), deal.ID, deal.Status, now)
		return err
	})
	if err != nil && !errors.Is(err, store.ErrDealExists) {
		s.log.Error("CreateDeal: ошибка создания сделки", "session_id", deal.SessionID, "error", err)
	}
	return err
}

func (s *Store) GetDeal(ctx context.Context, id string) (*models.Deal, error) {
	deal, err := scanDeal(s.DB.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		s.log.Error("GetDeal: ошибка чтения сделки", "deal_id", id, "error", err)
		return nil, err
	}
	return deal, nil
}

// UpdateDeal блокирует строку сделки (FOR UPDATE), применяет mutate и зеркалит статус в беседу.
func (s *Store) UpdateDeal(ctx context.Context, id string, mutate store.DealMutator) (*models.Deal, error) {
	var result *models.Deal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		deal, err := scanDeal(tx.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(deal); err != nil {
			return err
		}
		deal.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx, `
            UPDATE deals SET status = $2, notes = $3, closed_at = $4, updated_at = $5 WHERE id = $1`,
			deal.ID, deal.Status, deal.Notes, deal.ClosedAt, deal.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
            UPDATE conversations SET deal_status = $2, updated_at = $3 WHERE id = $1`,
			deal.ConversationID, deal.Status, deal.UpdatedAt)
		if err != nil {
			return err
		}
		result = deal
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("UpdateDeal: изменение сделки не применено", "deal_id", id, "error", err)
		}
		return nil, err
	}
	return result, nil
}

// ListDeals возвращает сделки от новых к старым, опционально по статусу.
func (s *Store) ListDeals(ctx context.Context, status string) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("ListDeals: ошибка запроса", "status", status, "error", err)
		return nil, err
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}
