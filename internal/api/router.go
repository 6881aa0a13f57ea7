package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"Portfolio/internal/assistant"
	"Portfolio/internal/config"
	"Portfolio/internal/conversation"
	"Portfolio/internal/deals"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/notify"
	"Portfolio/internal/store"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config        *config.Config
	Profile       config.Profile
	Store         store.Store
	Conversations *conversation.Service
	Assistant     *assistant.Assistant
	Deals         *deals.Manager
	Notifier      *notify.Dispatcher
	Metrics       *metrics.Metrics
	Log           *logger.Logger
	Now           func() time.Time
}

// Handlers - HTTP-обработчики поверх сервисов ядра.
type Handlers struct {
	deps    ApiDependencies
	log     *logger.Logger
	tokens  *tokenIssuer
	limiter *limiterPool
}

// NewHandlers проверяет зависимости и создает обработчики.
func NewHandlers(deps ApiDependencies) (*Handlers, error) {
	if deps.Config == nil || deps.Store == nil || deps.Conversations == nil || deps.Assistant == nil || deps.Deals == nil {
		return nil, errors.New("api: не все зависимости предоставлены")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg := deps.Config
	return &Handlers{
		deps:    deps,
		log:     deps.Log.With("component", "api"),
		tokens:  newTokenIssuer(cfg.JWTSecret, cfg.AdminTokenTTL, deps.Now),
		limiter: newLimiterPool(cfg.ChatRateRPS, cfg.ChatRateBurst, deps.Now),
	}, nil
}

// NewRouter собирает chi-роутер с глобальными middleware и всеми маршрутами.
func NewRouter(deps ApiDependencies) (*chi.Mux, error) {
	h, err := NewHandlers(deps)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	// ГЛОБАЛЬНЫЕ MIDDLEWARES ДОЛЖНЫ ИДТИ ПЕРЕД SetupRoutes
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(r, h)
	return r, nil
}

// SetupRoutes настраивает все маршруты для API.
func SetupRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Healthz)
	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// --- Публичные маршруты ---
		r.Post("/chat/message", h.PostChatMessage)
		r.Get("/chat/history/{sessionId}", h.GetChatHistory)
		r.Post("/chat/create-deal", h.CreateDeal)

		r.Post("/contact", h.PostContact)
		r.Get("/contact/qr", h.GetContactQR)

		r.Get("/projects", h.ListProjects)
		r.Get("/experiences", h.ListExperiences)

		r.Post("/admin/login", h.AdminLogin)

		// --- Маршруты для администратора ---
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(h.tokens, h.log))

			r.Get("/admin/deals", h.ListDeals)
			r.Get("/admin/deals/export", h.ExportDeals)
			r.Get("/admin/deals/{id}", h.GetDeal)
			r.Post("/admin/deals/{id}/status", h.UpdateDealStatus)
			r.Post("/admin/deals/{id}/close", h.CloseDeal)

			r.Get("/admin/conversations", h.ListConversations)
			r.Delete("/admin/conversations/{sessionId}", h.DeleteConversation)

			r.Get("/admin/knowledge-base", h.ListKnowledge)
			r.Post("/admin/knowledge-base", h.AddKnowledge)
			r.Delete("/admin/knowledge-base/{id}", h.DeleteKnowledge)

			r.Post("/admin/projects", h.AddProject)
			r.Delete("/admin/projects/{id}", h.DeleteProject)
			r.Post("/admin/experiences", h.AddExperience)
			r.Delete("/admin/experiences/{id}", h.DeleteExperience)
		})
	})
}
