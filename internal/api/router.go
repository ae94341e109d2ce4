// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/questlog-app/questlog/internal/middleware"
)

// Router assembles the HTTP routing tree from the handler set and the
// middleware factories.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handlers and middleware.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts a http.HandlerFunc-style middleware to chi's
// func(http.Handler) http.Handler signature.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the complete routing tree.
//
// Route groups:
//   - /api/v1/health: liveness and readiness, permissive rate limit
//   - /api/v1: game and library endpoints behind the default rate limit
//   - /metrics: Prometheus exposition
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware stack. Order matters: request id first so every
	// later log line carries it, recoverer before anything that can panic.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(rt.chiMiddleware.CORS())

	h := rt.handler
	m := rt.chiMiddleware

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(m.RateLimitHealth())
		r.Use(APISecurityHeaders())

		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/session", h.Session)
		r.Get("/achievements", h.Achievements)
		r.Get("/stats", h.Stats)
		r.Get("/recent", h.Recent)
		r.Get("/progress", h.Progress)

		r.Group(func(r chi.Router) {
			r.Use(m.RateLimitRefresh())
			r.Post("/refresh", h.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(m.RateLimitWrite())

			r.Get("/settings", h.SettingsGet)
			r.Put("/settings", h.SettingsUpdate)
			r.Post("/settings/api-key", h.APIKeySet)
			r.Delete("/settings/api-key", h.APIKeyClear)
			r.Post("/settings/test-game", h.TestGameSet)
			r.Delete("/settings/test-game", h.TestGameClear)
			r.Post("/settings/tracked-game", h.TrackedGameSet)
			r.Delete("/settings/tracked-game", h.TrackedGameClear)
			r.Delete("/cache", h.CacheInvalidate)
		})

		r.Get("/ws", h.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
