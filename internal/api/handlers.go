package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"Portfolio/internal/apierr"
	"Portfolio/internal/constants"
	"Portfolio/internal/deals"
	"Portfolio/internal/formatters"
	"Portfolio/internal/models"
	"Portfolio/internal/notify"
	"Portfolio/internal/store"
	"Portfolio/internal/utils"
)

const maxBodyBytes = 1 << 20

// jsonResponse - вспомогательная структура для стандартного ответа API
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChatMessageRequest - сообщение посетителя виджету чата.
type ChatMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// ChatHistoryResponse - история беседы и состояние связанной сделки.
type ChatHistoryResponse struct {
	SessionID  string               `json:"sessionId"`
	Messages   []models.ChatMessage `json:"messages"`
	UserInfo   *models.UserInfo     `json:"userInfo"`
	HasDeal    bool                 `json:"hasDeal"`
	DealID     models.NullString    `json:"dealId"`
	DealStatus models.NullString    `json:"dealStatus"`
}

// ContactRequest - форма обратной связи.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// --- Вспомогательные функции для JSON-ответов ---
func writeJSON(w http.ResponseWriter, statusCode int, resp jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Message: message, Data: data})
}

func writeJSONCreated(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, jsonResponse{Status: "success", Message: message, Data: data})
}

// writeAPIError переводит ошибку ядра в HTTP-ответ; 5xx пишутся в лог.
func (h *Handlers) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Ошибка обработки запроса", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSONError(w, status, apierr.PublicMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apierr.New(apierr.ErrValidation, "invalid JSON body", err)
	}
	return nil
}

// storeError переводит ошибку репозитория в ошибку ядра.
func storeError(op, entity string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFound("%s not found", entity)
	}
	return apierr.Persistence(op, err)
}

// Healthz проверяет доступность хранилища.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.deps.Store.Ping(ctx); err != nil {
		h.log.Error("Healthz: хранилище недоступно", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSONSuccess(w, "ok", nil)
}

// PostChatMessage - один обмен репликами с ассистентом.
func (h *Handlers) PostChatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	if req.SessionID != "" && !h.limiter.Allow(req.SessionID) {
		h.deps.Metrics.RateLimited()
		h.log.Warn("Превышен лимит сообщений", "session_id", req.SessionID)
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusTooManyRequests, "Too many messages, please slow down")
		return
	}

	reply, err := h.deps.Assistant.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil && !reply.Fallback {
		h.writeAPIError(w, r, err)
		return
	}
	// Запасной ответ отдается с 200: виджет показывает его как обычную реплику.
	writeJSONSuccess(w, "ok", reply)
}

// GetChatHistory возвращает историю беседы; для новой сессии - пустую.
func (h *Handlers) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	conv, err := h.deps.Conversations.Get(r.Context(), sessionID)
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	messages := conv.Messages
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	writeJSONSuccess(w, "ok", ChatHistoryResponse{
		SessionID:  sessionID,
		Messages:   messages,
		UserInfo:   conv.UserInfo,
		HasDeal:    conv.HasDeal,
		DealID:     conv.DealID,
		DealStatus: conv.DealStatus,
	})
}

// CreateDeal фиксирует контакты посетителя и создает сделку.
func (h *Handlers) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var in deals.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	deal, err := h.deps.Deals.CreateDeal(r.Context(), in)
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONCreated(w, "Deal created", map[string]string{"dealId": deal.ID})
}

func (req *ContactRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" {
		return apierr.Validation("name is required")
	}
	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		return apierr.Validation("%s", err.Error())
	}
	req.Email = email
	if req.Message == "" {
		return apierr.Validation("message is required")
	}
	if req.Subject == "" {
		req.Subject = "Portfolio inquiry"
	}
	return nil
}

// PostContact отправляет форму владельцу синхронно: больше она нигде не сохраняется.
func (h *Handlers) PostContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	if err := req.normalize(); err != nil {
		h.writeAPIError(w, r, err)
		return
	}

	err := h.deps.Notifier.Deliver(r.Context(), notify.Notification{
		Kind:    constants.NOTIFY_KIND_CONTACT,
		Subject: "Portfolio Contact: " + req.Subject,
		Text:    formatters.FormatContactText(req.Name, req.Email, req.Subject, req.Message),
		HTML:    formatters.FormatContactHTML(req.Name, req.Email, req.Subject, req.Message),
		ReplyTo: req.Email,
	})
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Message sent", nil)
}

// GetContactQR отдает PNG с QR-кодом контакта владельца.
func (h *Handlers) GetContactQR(w http.ResponseWriter, r *http.Request) {
	png, err := utils.GenerateContactQR(h.deps.Profile)
	if err != nil {
		h.log.Error("GetContactQR: не удалось построить QR", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "QR code unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.deps.Store.ListProjects(r.Context())
	if err != nil {
		h.writeAPIError(w, r, storeError("listProjects", "project", err))
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSONSuccess(w, "ok", projects)
}

func (h *Handlers) ListExperiences(w http.ResponseWriter, r *http.Request) {
	experiences, err := h.deps.Store.ListExperiences(r.Context())
	if err != nil {
		h.writeAPIError(w, r, storeError("listExperiences", "experience", err))
		return
	}
	if experiences == nil {
		experiences = []models.Experience{}
	}
	writeJSONSuccess(w, "ok", experiences)
}
