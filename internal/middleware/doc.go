// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking and
Prometheus metrics instrumentation. Cross-cutting concerns such as CORS, rate
limiting, and gzip compression come from chi's middleware ecosystem and are
wired directly in the router.

Key Components:

  - Request ID: UUID-based request tracking, surfaced as the X-Request-ID
    header and as a request_id field on handler log lines
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	http.HandleFunc("/api/v1/session",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("Processing request")
	    _ = requestID
	}

Thread Safety:

All middleware components are thread-safe. Request ID uses context.Context
(immutable) and Prometheus metrics use atomic operations.

See Also:

  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
