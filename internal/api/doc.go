// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

/*
Package api provides the HTTP surface of the application: a chi router
exposing the tracked session, achievement views, library progress,
settings management, cache invalidation, the WebSocket upgrade endpoint,
and Prometheus metrics.

Handlers are split across files by concern:

  - handlers.go: Handler struct, constructor, WebSocket upgrade
  - handlers_health.go: liveness/readiness/health endpoints
  - handlers_game.go: session, achievements, stats, recent unlocks
  - handlers_library.go: library progress and manual refresh
  - handlers_settings.go: settings CRUD, credential and test-game
    overrides, cache invalidation

All endpoints respond with the models.APIResponse envelope. View
parameters (sort mode, rarity ceiling, hidden toggle) are explicit
query parameters; the server applies the sort/filter engine and returns
the derived completion percentage so clients never recompute it.

Middleware (request ID, Prometheus instrumentation, CORS, rate limits,
gzip) is assembled in router.go from chi's ecosystem plus the
internal/middleware adapters.
*/
package api
