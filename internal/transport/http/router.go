package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the REST API and the attempt WebSocket.
type Handler struct {
	attempts *app.AttemptService
	catalog  *app.CatalogService
	auth     *app.AuthService
	logger   *slog.Logger
	ws       *WSHandler
}

func NewHandler(attempts *app.AttemptService, catalog *app.CatalogService, auth *app.AuthService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		attempts: attempts,
		catalog:  catalog,
		auth:     auth,
		logger:   logger,
		ws:       NewWSHandler(attempts, logger),
	}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(h.auth, h.logger))

		r.Post("/api/auth/logout", h.handleLogout)
		r.Get("/api/auth/me", h.handleMe)

		r.Get("/api/quizzes", h.handleListQuizzes)
		r.Post("/api/quizzes", h.handleCreateQuiz)
		r.Get("/api/quizzes/{quizID}", h.handleGetQuiz)
		r.Put("/api/quizzes/{quizID}", h.handleUpdateQuiz)

		r.Get("/api/scores", h.handleScores)

		r.Route("/api/attempts/{quizID}", func(r chi.Router) {
			r.Post("/", h.handleStartAttempt)
			r.Get("/", h.handleGetAttempt)
			r.Put("/answers/{index}", h.handleRecordAnswer)
			r.Delete("/answers/{index}", h.handleClearAnswer)
			r.Post("/navigate", h.handleNavigate)
			r.Post("/finish", h.handleRequestFinish)
			r.Post("/finish/cancel", h.handleCancelFinish)
			r.Post("/finish/confirm", h.handleConfirmFinish)
		})

		r.Get("/ws/attempts/{quizID}", h.ws.ServeWS)
	})
	return r
}

// Server wraps http.Server with listen and graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("starting quiz service", "addr", ln.Addr().String())

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
