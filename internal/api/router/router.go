// Package router assembles the HTTP surface of the booking service.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dangtuan21/hana-salon/internal/conversation"
	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler
	RequestTimeout      time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	h := cfg.ConversationHandler

	r.Get("/health", h.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/conversation", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/continue", h.Continue)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.End)
	})
	r.Get("/sessions/stats", h.Stats)

	return r
}
