// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/settings"
	"github.com/questlog-app/questlog/internal/tracker"
	ws "github.com/questlog-app/questlog/internal/websocket"
)

// Provider is the credential and cache management surface the handlers
// need from the Steam data provider. The tracker engine owns the data
// fetching side; this interface covers the administrative side.
type Provider interface {
	SetCredentials(apiKey, steamID string)
	ClearCredentials()
	HasCredentials() bool
	InvalidateApp(appID int) error
	InvalidateAll() error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by concern:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_health.go: health/monitoring endpoints
//   - handlers_game.go: session, achievements, stats, recent unlocks
//   - handlers_library.go: library progress and manual refresh
//   - handlers_settings.go: settings, credentials, cache invalidation
type Handler struct {
	engine    *tracker.Engine
	scheduler *tracker.Scheduler
	provider  Provider
	settings  *settings.Store
	config    *config.Config
	wsHub     *ws.Hub
	startTime time.Time
}

// NewHandler creates an API handler over the engine and its collaborators.
//
// Example:
//
//	handler := api.NewHandler(engine, scheduler, provider, settingsStore, cfg, hub)
//	router := api.NewRouter(handler, api.NewChiMiddleware(nil))
//	http.ListenAndServe(cfg.Server.Addr(), router.Setup())
func NewHandler(engine *tracker.Engine, scheduler *tracker.Scheduler, provider Provider, settingsStore *settings.Store, cfg *config.Config, wsHub *ws.Hub) *Handler {
	return &Handler{
		engine:    engine,
		scheduler: scheduler,
		provider:  provider,
		settings:  settingsStore,
		config:    cfg,
		wsHub:     wsHub,
		startTime: time.Now(),
	}
}

// WebSocket upgrades the connection and registers the client with the hub.
// The client then receives session/achievement/stats/recent/progress
// updates pushed after each refresh cycle.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Non-browser clients omit the Origin header and
// are allowed: the tracker runs as a local companion service.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
