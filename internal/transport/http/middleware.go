package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quiz-attempt-service/internal/app"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	ctxKeyActor ctxKey = iota
	ctxKeyToken
)

// Authenticator resolves bearer tokens to actors.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (app.Actor, error)
}

// authMiddleware requires a valid bearer token. Browsers cannot set headers on
// a WebSocket handshake, so a token query parameter is accepted too.
func authMiddleware(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			actor, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
			ctx = context.WithValue(ctx, ctxKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

func actorFrom(r *http.Request) app.Actor {
	return r.Context().Value(ctxKeyActor).(app.Actor)
}

func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(ctxKeyToken).(string)
	return token
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
