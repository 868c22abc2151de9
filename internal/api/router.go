package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/holdline/reservation-engine/internal/middleware"
)

// NewRouter builds the chi router exposing the engine's operations.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.TimeoutMiddleware(5 * time.Second))

	r.Get("/health", h.Health)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/reserve", h.Reserve)
		v1.Post("/extend", h.Extend)
		v1.Post("/commit", h.Commit)
		v1.Post("/release", h.Release)
		v1.Get("/skus/{sku}/snapshot", h.Snapshot)
		v1.Get("/events", h.Events)
	})

	return r
}
