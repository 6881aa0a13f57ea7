package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"Portfolio/internal/actor"
	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
	"Portfolio/internal/models"
	"Portfolio/internal/reports"
)

// AdminLoginRequest - вход администратора по паролю.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// DealStatusRequest - смена статуса сделки.
type DealStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// DealCloseRequest - закрытие сделки с необязательными заметками.
type DealCloseRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ConversationsResponse - список бесед со сводкой.
type ConversationsResponse struct {
	Conversations []models.Conversation    `json:"conversations"`
	Stats         models.ConversationStats `json:"stats"`
}

// KnowledgeRequest - документ базы знаний с уже извлеченным текстом.
type KnowledgeRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Filename string `json:"filename,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
}

// AdminLogin выдает токен администратора.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	if !passwordMatches(req.Password, h.deps.Config.AdminPassword) {
		h.log.Warn("AdminLogin: неверный пароль", "remote_addr", r.RemoteAddr)
		writeJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, expiresAt, err := h.tokens.Issue(constants.AdminSubject)
	if err != nil {
		h.log.Error("AdminLogin: не удалось подписать токен", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.log.Info("Администратор вошел", "remote_addr", r.RemoteAddr)
	writeJSONSuccess(w, "ok", map[string]interface{}{"token": token, "expiresAt": expiresAt})
}

// --- Сделки ---

func (h *Handlers) ListDeals(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Deals.ListDeals(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "ok", list)
}

// ExportDeals отдает XLSX; фильтр по статусу - как в ListDeals.
func (h *Handlers) ExportDeals(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Deals.ListDeals(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	data, err := reports.BuildDealsWorkbook(list)
	if err != nil {
		h.log.Error("ExportDeals: не удалось построить XLSX", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}
	filename := reports.DealsFilename(h.deps.Now())
	w.Header().Set("Content-Type", reports.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
	h.log.Info("Выгрузка сделок", "deals", len(list), "actor", actor.FromContext(r.Context()).String())
}

// GetDeal возвращает сделку вместе с беседой.
func (h *Handlers) GetDeal(w http.ResponseWriter, r *http.Request) {
	full, err := h.deps.Deals.GetDealWithTranscript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "ok", full)
}

func (h *Handlers) UpdateDealStatus(w http.ResponseWriter, r *http.Request) {
	var req DealStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	deal, err := h.deps.Deals.UpdateStatus(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(req.Status), req.Notes)
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Deal updated", deal)
}

func (h *Handlers) CloseDeal(w http.ResponseWriter, r *http.Request) {
	var req DealCloseRequest
	// Тело необязательно
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeAPIError(w, r, err)
			return
		}
	}
	deal, err := h.deps.Deals.CloseDeal(r.Context(), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Deal closed", deal)
}

// --- Беседы ---

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, stats, err := h.deps.Conversations.List(r.Context())
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	writeJSONSuccess(w, "ok", ConversationsResponse{Conversations: convs, Stats: stats})
}

func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Conversations.Delete(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Conversation deleted", nil)
}

// --- База знаний ---

// ListKnowledge возвращает документы без текста.
func (h *Handlers) ListKnowledge(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Store.ListKnowledge(r.Context())
	if err != nil {
		h.writeAPIError(w, r, storeError("listKnowledge", "knowledge entry", err))
		return
	}
	out := make([]models.KnowledgeEntry, len(entries))
	for i, e := range entries {
		e.Content = ""
		out[i] = e
	}
	writeJSONSuccess(w, "ok", out)
}

func (h *Handlers) AddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	entry := models.KnowledgeEntry{
		Title:      strings.TrimSpace(req.Title),
		Content:    strings.TrimSpace(req.Content),
		Filename:   strings.TrimSpace(req.Filename),
		FileURL:    strings.TrimSpace(req.FileURL),
		UploadedBy: uploadedBy(r),
	}
	if entry.Title == "" || entry.Content == "" {
		h.writeAPIError(w, r, apierr.Validation("title and content are required"))
		return
	}
	if err := h.deps.Store.AddKnowledge(r.Context(), &entry); err != nil {
		h.writeAPIError(w, r, storeError("addKnowledge", "knowledge entry", err))
		return
	}
	entry.Content = ""
	writeJSONCreated(w, "Knowledge entry added", entry)
}

func (h *Handlers) DeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.DeleteKnowledge(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeAPIError(w, r, storeError("deleteKnowledge", "knowledge entry", err))
		return
	}
	writeJSONSuccess(w, "Knowledge entry deleted", nil)
}

func uploadedBy(r *http.Request) string {
	if a := actor.FromContext(r.Context()); a.ID != "" {
		return a.ID
	}
	return constants.DefaultUploadedBy
}

// --- Каталог ---

func (h *Handlers) AddProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := decodeJSON(w, r, &p); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	p.ID = ""
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Title == "" || p.Description == "" {
		h.writeAPIError(w, r, apierr.Validation("title and description are required"))
		return
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	if err := h.deps.Store.AddProject(r.Context(), &p); err != nil {
		h.writeAPIError(w, r, storeError("addProject", "project", err))
		return
	}
	writeJSONCreated(w, "Project added", p)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeAPIError(w, r, storeError("deleteProject", "project", err))
		return
	}
	writeJSONSuccess(w, "Project deleted", nil)
}

func (h *Handlers) AddExperience(w http.ResponseWriter, r *http.Request) {
	var e models.Experience
	if err := decodeJSON(w, r, &e); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	e.ID = ""
	e.Company = strings.TrimSpace(e.Company)
	e.Position = strings.TrimSpace(e.Position)
	if e.Company == "" || e.Position == "" {
		h.writeAPIError(w, r, apierr.Validation("company and position are required"))
		return
	}
	if err := h.deps.Store.AddExperience(r.Context(), &e); err != nil {
		h.writeAPIError(w, r, storeError("addExperience", "experience", err))
		return
	}
	writeJSONCreated(w, "Experience added", e)
}

func (h *Handlers) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.DeleteExperience(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeAPIError(w, r, storeError("deleteExperience", "experience", err))
		return
	}
	writeJSONSuccess(w, "Experience deleted", nil)
}
