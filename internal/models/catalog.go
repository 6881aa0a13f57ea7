package models

import "time"

// Project - проект из портфолио.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies []string  `json:"technologies"`
	LiveURL      string    `json:"liveUrl,omitempty"`
	GithubURL    string    `json:"githubUrl,omitempty"`
	Featured     bool      `json:"featured"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Experience - запись об опыте работы.
type Experience struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Current     bool      `json:"current"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartDate   NullTime  `json:"startDate"`
	EndDate     NullTime  `json:"endDate"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
}

// KnowledgeEntry - документ базы знаний с уже извлеченным текстом.
type KnowledgeEntry struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename,omitempty"`
	Content    string    `json:"content,omitempty"`
	FileURL    string    `json:"fileUrl,omitempty"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProjectSummary - то, что ответчик знает о проекте.
type ProjectSummary struct {
	Title       string
	Description string
}

// ExperienceSummary - то, что ответчик знает об опыте.
type ExperienceSummary struct {
	Company  string
	Position string
	Current  bool
}

// Summary сокращает проект до полей, нужных ответчику.
func (p Project) Summary() ProjectSummary {
	return ProjectSummary{Title: p.Title, Description: p.Description}
}

// Summary сокращает запись опыта до полей, нужных ответчику.
func (e Experience) Summary() ExperienceSummary {
	return ExperienceSummary{Company: e.Company, Position: e.Position, Current: e.Current}
}
