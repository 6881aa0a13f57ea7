package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Portfolio/internal/models"
)

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, title, description, technologies, live_url, github_url, featured, sort_order, created_at
        FROM projects ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		s.log.Error("ListProjects: ошибка запроса", "error", err)
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		var description, liveURL, githubURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &description, pq.Array(&p.Technologies), &liveURL, &githubURL,
			&p.Featured, &p.Order, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.LiveURL = liveURL.String
		p.GithubURL = githubURL.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) AddProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO projects (id, title, description, technologies, live_url, github_url, featured, sort_order, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Title, nullIfEmpty(p.Description), pq.Array(p.Technologies), nullIfEmpty(p.LiveURL),
		nullIfEmpty(p.GithubURL), p.Featured, p.Order, p.CreatedAt)
	if err != nil {
		s.log.Error("AddProject: ошибка сохранения проекта", "title", p.Title, "error", err)
	}
	return err
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "projects", id)
}

func (s *Store) ListExperiences(ctx context.Context) ([]models.Experience, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, company, position, is_current, description, location, start_date, end_date, sort_order, created_at
        FROM experiences ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		s.log.Error("ListExperiences: ошибка запроса", "error", err)
		return nil, err
	}
	defer rows.Close()

	experiences := []models.Experience{}
	for rows.Next() {
		var e models.Experience
		var description, location sql.NullString
		if err := rows.Scan(&e.ID, &e.Company, &e.Position, &e.Current, &description, &location,
			&e.StartDate, &e.EndDate, &e.Order, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Description = description.String
		e.Location = location.String
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

func (s *Store) AddExperience(ctx context.Context, e *models.Experience) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO experiences (id, company, position, is_current, description, location, start_date, end_date, sort_order, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Company, e.Position, e.Current, nullIfEmpty(e.Description), nullIfEmpty(e.Location),
		e.StartDate, e.EndDate, e.Order, e.CreatedAt)
	if err != nil {
		s.log.Error("AddExperience: ошибка сохранения опыта", "company", e.Company, "error", err)
	}
	return err
}

func (s *Store) DeleteExperience(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "experiences", id)
}
