// Package api exposes the ops surface of the relay: liveness, readiness,
// and pipeline stats. The bot itself talks to Telegram, not to this server.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clipferry/clipferry/internal/api/handler"
	mw "github.com/clipferry/clipferry/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. When
// apiKey is empty the stats endpoint is left open; deployments that bind
// the admin port publicly should set one.
func NewRouter(healthHandler *handler.HealthHandler, apiKey string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	r.Group(func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}
		r.Get("/stats", healthHandler.Stats)
	})

	return r
}
