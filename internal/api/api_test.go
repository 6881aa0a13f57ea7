package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Portfolio/internal/assistant"
	"Portfolio/internal/boltstore"
	"Portfolio/internal/chat"
	"Portfolio/internal/config"
	"Portfolio/internal/constants"
	"Portfolio/internal/conversation"
	"Portfolio/internal/deals"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/models"
	"Portfolio/internal/notify"
	"Portfolio/internal/reports"
)

const adminPassword = "s3cret"

type sink struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (s *sink) Send(_ context.Context, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func (s *sink) byKind(kind string) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, n := range s.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type brokenCatalog struct{}

func (brokenCatalog) ListProjects(context.Context) ([]models.Project, error) {
	return nil, errors.New("catalog offline")
}
func (brokenCatalog) ListExperiences(context.Context) ([]models.Experience, error) { return nil, nil }
func (brokenCatalog) ListKnowledge(context.Context) ([]models.KnowledgeEntry, error) {
	return nil, nil
}

type fixture struct {
	router http.Handler
	st     *boltstore.Store
	sink   *sink
	cfg    *config.Config
}

type option func(cfg *config.Config, content *assistant.ContentSource)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	st, err := boltstore.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		AdminPassword:      adminPassword,
		JWTSecret:          "test-secret",
		AdminTokenTTL:      time.Hour,
		ChatRateRPS:        100,
		ChatRateBurst:      100,
		CORSAllowedOrigins: []string{"*"},
	}
	var content assistant.ContentSource = st
	for _, o := range opts {
		o(cfg, &content)
	}

	profile := config.DefaultProfile()
	log := logger.Nop()
	m := metrics.New()
	s := &sink{}
	disp := notify.NewDispatcher(s, log, m)
	t.Cleanup(disp.Wait)

	convs := conversation.NewService(st, log, m)
	router, err := NewRouter(ApiDependencies{
		Config:        cfg,
		Profile:       profile,
		Store:         st,
		Conversations: convs,
		Assistant:     assistant.New(convs, content, chat.NewEngine(profile), nil, profile, log, m),
		Deals:         deals.NewManager(st, st, disp, log, m),
		Notifier:      disp,
		Metrics:       m,
		Log:           log,
	})
	require.NoError(t, err)
	return &fixture{router: router, st: st, sink: s, cfg: cfg}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Password: adminPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Equal(t, "success", env.Status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestChatMessageAndHistory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "hi"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reply assistant.Reply
	decodeData(t, rec, &reply)
	assert.Equal(t, chat.RuleGreeting, reply.Rule)
	assert.False(t, reply.Fallback)
	assert.NotEmpty(t, reply.Text)

	rec = f.do(t, http.MethodGet, "/api/chat/history/s1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist ChatHistoryResponse
	decodeData(t, rec, &hist)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "hi", hist.Messages[0].Content)
	assert.False(t, hist.HasDeal)

	// неизвестная сессия - пустая история, не 404
	rec = f.do(t, http.MethodGet, "/api/chat/history/nobody", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &hist)
	assert.Empty(t, hist.Messages)
	assert.NotNil(t, hist.Messages)
}

func TestChatMessageValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeEnvelope(t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{Message: "hi"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	f.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestChatMessageRateLimited(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, _ *assistant.ContentSource) {
		cfg.ChatRateRPS = 0.001
		cfg.ChatRateBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "hi"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "hi"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// другая сессия не затронута
	rec = f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s2", Message: "hi"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_chat_messages_total")
}

func TestChatMessageFallback(t *testing.T) {
	f := newFixture(t, func(_ *config.Config, content *assistant.ContentSource) {
		*content = brokenCatalog{}
	})

	rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "hello"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reply assistant.Reply
	decodeData(t, rec, &reply)
	assert.True(t, reply.Fallback)
	assert.Contains(t, reply.Text, config.DefaultProfile().Email)
}

func TestCreateDealAndAdminLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s1", Message: "I want to hire you"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/chat/create-deal", deals.CreateInput{SessionID: "s1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	in := deals.CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "Jane", Email: "jane@x.com"}, Budget: "5k"}
	rec = f.do(t, http.MethodPost, "/api/chat/create-deal", in, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		DealID string `json:"dealId"`
	}
	decodeData(t, rec, &created)
	require.NotEmpty(t, created.DealID)

	rec = f.do(t, http.MethodPost, "/api/chat/create-deal", in, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var hist ChatHistoryResponse
	decodeData(t, f.do(t, http.MethodGet, "/api/chat/history/s1", nil, ""), &hist)
	assert.True(t, hist.HasDeal)
	assert.Equal(t, constants.DEAL_STATUS_OPEN, hist.DealStatus.String)
	require.NotNil(t, hist.UserInfo)
	assert.Equal(t, "Jane", hist.UserInfo.Name)

	// админские маршруты закрыты без токена
	rec = f.do(t, http.MethodGet, "/api/admin/deals", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/admin/deals", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := f.login(t)
	base := "/api/admin/deals/" + created.DealID

	var list []models.Deal
	decodeData(t, f.do(t, http.MethodGet, "/api/admin/deals", nil, token), &list)
	require.Len(t, list, 1)

	rec = f.do(t, http.MethodGet, "/api/admin/deals?status=won", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var full models.DealWithTranscript
	decodeData(t, f.do(t, http.MethodGet, base, nil, token), &full)
	assert.Equal(t, created.DealID, full.Deal.ID)
	assert.Len(t, full.Conversation.Messages, 2)

	rec = f.do(t, http.MethodGet, "/api/admin/deals/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var deal models.Deal
	decodeData(t, f.do(t, http.MethodPost, base+"/status", DealStatusRequest{Status: constants.DEAL_STATUS_IN_PROGRESS, Notes: "call"}, token), &deal)
	assert.Equal(t, constants.DEAL_STATUS_IN_PROGRESS, deal.Status)

	rec = f.do(t, http.MethodPost, base+"/status", DealStatusRequest{Status: constants.DEAL_STATUS_OPEN}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	decodeData(t, f.do(t, http.MethodPost, base+"/close", DealCloseRequest{Notes: "signed"}, token), &deal)
	assert.Equal(t, constants.DEAL_STATUS_CLOSED, deal.Status)
	assert.True(t, deal.ClosedAt.Valid)

	rec = f.do(t, http.MethodGet, "/api/admin/deals/export?status=closed", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reports.XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "deals_report_")
	assert.NotZero(t, rec.Body.Len())

	// беседу со сделкой удалить нельзя
	rec = f.do(t, http.MethodDelete, "/api/admin/conversations/s1", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.do(t, http.MethodPost, "/api/chat/message", ChatMessageRequest{SessionID: "s2", Message: "hi"}, "")
	var convs ConversationsResponse
	decodeData(t, f.do(t, http.MethodGet, "/api/admin/conversations", nil, token), &convs)
	assert.Equal(t, models.ConversationStats{Total: 2, WithDeal: 1, WithoutDeal: 1}, convs.Stats)

	rec = f.do(t, http.MethodDelete, "/api/admin/conversations/s2", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/admin/conversations/s2", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDealOncePerSession(t *testing.T) {
	f := newFixture(t)

	first := deals.CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "Jane", Email: "jane@x.com"}, Budget: "5k"}
	rec := f.do(t, http.MethodPost, "/api/chat/create-deal", first, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		DealID string `json:"dealId"`
	}
	decodeData(t, rec, &created)

	second := deals.CreateInput{SessionID: "s1", UserInfo: models.UserInfo{Name: "John", Email: "john@x.com"}, Budget: "50k"}
	rec = f.do(t, http.MethodPost, "/api/chat/create-deal", second, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "a deal already exists for this session", env.Message)

	var hist ChatHistoryResponse
	decodeData(t, f.do(t, http.MethodGet, "/api/chat/history/s1", nil, ""), &hist)
	assert.Equal(t, created.DealID, hist.DealID.String)
	assert.Equal(t, constants.DEAL_STATUS_OPEN, hist.DealStatus.String)
	require.NotNil(t, hist.UserInfo)
	assert.Equal(t, "Jane", hist.UserInfo.Name)

	var list []models.Deal
	decodeData(t, f.do(t, http.MethodGet, "/api/admin/deals", nil, f.login(t)), &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.DealID, list[0].ID)
	assert.Equal(t, "5k", list[0].Budget)
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Password: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	disabled := newFixture(t, func(cfg *config.Config, _ *assistant.ContentSource) { cfg.AdminPassword = "" })
	rec = disabled.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{Password: ""}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContactForm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "Sam", Email: "bad", Message: "hello"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "Sam", Email: "sam@x.com", Subject: "Hi", Message: "Let's talk"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sent := f.sink.byKind(constants.NOTIFY_KIND_CONTACT)
	require.Len(t, sent, 1)
	assert.Equal(t, "sam@x.com", sent[0].ReplyTo)
	assert.Contains(t, sent[0].Text, "Let's talk")

	f.sink.mu.Lock()
	f.sink.err = errors.New("relay down")
	f.sink.mu.Unlock()
	rec = f.do(t, http.MethodPost, "/api/contact", ContactRequest{Name: "Sam", Email: "sam@x.com", Message: "again"}, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestContactQRAndHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/contact/qr", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestKnowledgeBaseAndCatalogAdmin(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(t, http.MethodPost, "/api/admin/knowledge-base", KnowledgeRequest{Title: "Resume"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/knowledge-base", KnowledgeRequest{Title: "Resume", Content: "Built a payment gateway."}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry models.KnowledgeEntry
	decodeData(t, rec, &entry)
	assert.Equal(t, constants.AdminSubject, entry.UploadedBy)

	var entries []models.KnowledgeEntry
	decodeData(t, f.do(t, http.MethodGet, "/api/admin/knowledge-base", nil, token), &entries)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Content)

	stored, err := f.st.ListKnowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Built a payment gateway.", stored[0].Content)

	rec = f.do(t, http.MethodDelete, "/api/admin/knowledge-base/missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/admin/knowledge-base/"+entry.ID, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/projects", models.Project{Title: "Shop"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/admin/projects", models.Project{Title: "Shop", Description: "Online store", Order: 1}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var project models.Project
	decodeData(t, rec, &project)

	var projects []models.Project
	decodeData(t, f.do(t, http.MethodGet, "/api/projects", nil, ""), &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "Shop", projects[0].Title)

	rec = f.do(t, http.MethodPost, "/api/admin/experiences", models.Experience{Company: "Acme", Position: "Engineer", Current: true}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var experience models.Experience
	decodeData(t, rec, &experience)

	var experiences []models.Experience
	decodeData(t, f.do(t, http.MethodGet, "/api/experiences", nil, ""), &experiences)
	require.Len(t, experiences, 1)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/admin/projects/"+project.ID, nil, token).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/admin/projects/"+project.ID, nil, token).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/admin/experiences/"+experience.ID, nil, token).Code)

	// публичный каталог без токена, админский - только с ним
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/admin/projects", models.Project{Title: "x", Description: "y"}, "").Code)
}
