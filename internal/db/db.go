// Файл: internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"Portfolio/internal/logger"
	"Portfolio/internal/store"
)

// Store - хранилище бесед, сделок, базы знаний и каталога в PostgreSQL.
type Store struct {
	DB  *sql.DB
	log *logger.Logger
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// InitDB открывает соединение, создает таблицы, выполняет миграции и создает индексы.
func InitDB(ctx context.Context, databaseURL string, log *logger.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL не установлена")
	}

	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DATABASE_URL: %v", err)
	}
	query := parsedURL.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "prefer")
	}
	parsedURL.RawQuery = query.Encode()

	conn, err := sql.Open("postgres", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %v", err)
	}
	log.Info("Успешное подключение к базе данных", "host", parsedURL.Hostname())

	s := &Store{DB: conn, log: log, now: time.Now}
	if err := s.createTables(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := s.migrateDBSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка выполнения миграции схемы: %v", err)
	}
	s.createIndexes(ctx)

	log.Info("Инициализация базы данных успешно завершена")
	return s, nil
}

const createTablesSQL = `
    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY,
        session_id TEXT UNIQUE NOT NULL,
        user_name TEXT,
        user_email TEXT,
        deal_id TEXT,
        has_deal BOOLEAN NOT NULL DEFAULT FALSE,
        deal_status TEXT,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL,
        last_message_at TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS chat_messages (
        id BIGSERIAL PRIMARY KEY,
        conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
        role TEXT NOT NULL,
        content TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS deals (
        id TEXT PRIMARY KEY,
        conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE RESTRICT,
        session_id TEXT NOT NULL,
        user_name TEXT NOT NULL,
        user_email TEXT NOT NULL,
        user_phone TEXT,
        project_details TEXT NOT NULL,
        budget TEXT,
        timeline TEXT,
        status TEXT NOT NULL,
        notes TEXT,
        closed_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS knowledge_base (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        filename TEXT,
        content TEXT NOT NULL,
        file_url TEXT,
        uploaded_by TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS projects (
        id TEXT PRIMARY KEY,
        title TEXT NOT NULL,
        description TEXT,
        technologies TEXT[],
        live_url TEXT,
        github_url TEXT,
        featured BOOLEAN NOT NULL DEFAULT FALSE,
        sort_order INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL
    );
    CREATE TABLE IF NOT EXISTS experiences (
        id TEXT PRIMARY KEY,
        company TEXT NOT NULL,
        position TEXT NOT NULL,
        is_current BOOLEAN NOT NULL DEFAULT FALSE,
        description TEXT,
        location TEXT,
        start_date TIMESTAMPTZ,
        end_date TIMESTAMPTZ,
        sort_order INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL
    );`

func (s *Store) createTables(ctx context.Context) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции для создания таблиц: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			s.log.Warn("Откат транзакции создания таблиц", "error", err)
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %v", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка коммита транзакции создания таблиц: %v", err)
	}
	s.log.Info("Таблицы созданы или уже существовали")
	return nil
}

// migrateDBSchema выполняет миграции схемы. Каждая миграция идемпотентна.
func (s *Store) migrateDBSchema(ctx context.Context) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "conversations.user_phone",
			sql:  `ALTER TABLE conversations ADD COLUMN IF NOT EXISTS user_phone TEXT;`,
		},
		{
			name: "deals.status_check",
			sql: `DO $$
                  BEGIN
                      IF NOT EXISTS (
                          SELECT 1 FROM pg_constraint
                          WHERE conrelid = 'deals'::regclass
                          AND conname = 'deals_status_check'
                      ) THEN
                          ALTER TABLE deals ADD CONSTRAINT deals_status_check
                              CHECK (status IN ('open', 'in-progress', 'closed', 'cancelled'));
                      END IF;
                  END$$;`,
		},
		{
			name: "deals.conversation_unique",
			sql: `DO $$
                  BEGIN
                      IF NOT EXISTS (
                          SELECT 1 FROM pg_constraint
                          WHERE conrelid = 'deals'::regclass
                          AND conname = 'deals_conversation_id_key'
                      ) THEN
                          ALTER TABLE deals ADD CONSTRAINT deals_conversation_id_key UNIQUE (conversation_id);
                      END IF;
                  END$$;`,
		},
	}

	for _, migration := range migrations {
		_, err := s.DB.ExecContext(ctx, migration.sql)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				s.log.Info("Миграция пропущена: объект уже существует", "migration", migration.name, "error", err)
				continue
			}
			return fmt.Errorf("ошибка миграции схемы ('%s'): %v", migration.name, err)
		}
		s.log.Debug("Миграция применена", "migration", migration.name)
	}
	return nil
}

const createIndexesSQL = `
    CREATE INDEX IF NOT EXISTS idx_conversations_last_message_at ON conversations(last_message_at DESC);
    CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation_id ON chat_messages(conversation_id, id);
    CREATE INDEX IF NOT EXISTS idx_deals_status_created_at ON deals(status, created_at DESC);
    CREATE INDEX IF NOT EXISTS idx_deals_created_at ON deals(created_at DESC);
    CREATE INDEX IF NOT EXISTS idx_projects_sort ON projects(sort_order, created_at DESC);
    CREATE INDEX IF NOT EXISTS idx_experiences_sort ON experiences(sort_order, created_at DESC);
`

// createIndexes выполняет CREATE INDEX по одному, чтобы ошибка одного не мешала остальным.
func (s *Store) createIndexes(ctx context.Context) {
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, trimmedStmt); err != nil {
			s.log.Warn("Ошибка при создании индекса", "statement", trimmedStmt, "error", err)
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает соединение с базой данных.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	err := s.DB.Close()
	s.log.Info("Соединение с базой данных закрыто")
	return err
}

// withTx выполняет fn в транзакции: коммит при nil, откат при ошибке или панике.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
