// Файл: Portfolio/internal/api/middleware.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"Portfolio/internal/actor"
	"Portfolio/internal/apierr"
	"Portfolio/internal/logger"
)

// RequestLogger пишет одну строку на запрос после его завершения.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				log.Info("HTTP запрос",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// AdminAuthMiddleware проверяет заголовок Authorization: Bearer <jwt>
// и кладет администратора в контекст запроса.
func AdminAuthMiddleware(tokens *tokenIssuer, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized: missing bearer token")
				return
			}
			subject, err := tokens.Verify(raw)
			if err != nil {
				log.Warn("AdminAuthMiddleware: токен отклонен", "path", r.URL.Path, "error", err)
				writeJSONError(w, apierr.HTTPStatus(err), apierr.PublicMessage(err))
				return
			}
			ctx := actor.WithActor(r.Context(), actor.Admin(subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
