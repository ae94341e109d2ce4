// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package metrics exposes Prometheus instrumentation for the Steam client,
// refresh scheduler, aggregation engine, caches, WebSocket hub, and the
// HTTP API surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Steam Web API Metrics
	SteamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_api_requests_total",
			Help: "Total number of Steam Web API requests",
		},
		[]string{"endpoint", "status_code"},
	)

	SteamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steam_api_request_duration_seconds",
			Help:    "Duration of Steam Web API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SteamRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steam_api_request_retries_total",
			Help: "Total number of Steam Web API retries after 429 responses",
		},
		[]string{"endpoint"},
	)

	SteamRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "steam_api_rate_limit_waits_total",
			Help: "Total number of requests delayed by the client-side rate limiter",
		},
	)

	// Refresh Scheduler Metrics
	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_cycles_total",
			Help: "Total number of refresh cycles by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: "periodic", "manual"; result: "success", "partial", "failure", "skipped"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_cycle_duration_seconds",
			Help:    "Duration of refresh cycles in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RefreshFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_fetch_errors_total",
			Help: "Total number of failed fetches within refresh cycles",
		},
		[]string{"kind"}, // "achievements", "stats", "recent", "session"
	)

	RefreshLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refresh_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful refresh cycle",
		},
	)

	// Aggregation Metrics
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of library-wide progress computation in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	AggregationGamesProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_games_processed",
			Help:    "Number of games processed per aggregation run",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 250, 500},
		},
	)

	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_runs_total",
			Help: "Total number of aggregation runs by outcome",
		},
		[]string{"outcome"}, // "computed", "cached", "in_progress", "failure"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "achievement", "schema", "app_details", "progress"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Game Detection Metrics
	DetectedGameID = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detected_game_app_id",
			Help: "App ID of the currently detected running game (0 = none)",
		},
	)

	DetectionSourceUses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_source_uses_total",
			Help: "Total number of successful detections by source",
		},
		[]string{"source"}, // "env", "shm", "proc", "registry", "override"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordSteamRequest records one completed Steam Web API call.
func RecordSteamRequest(endpoint string, statusCode int, duration time.Duration) {
	SteamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	SteamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRefreshCycle records the outcome of one refresh cycle.
func RecordRefreshCycle(trigger, result string, duration time.Duration) {
	RefreshCycles.WithLabelValues(trigger, result).Inc()
	RefreshDuration.Observe(duration.Seconds())
	if result == "success" {
		RefreshLastSuccess.SetToCurrentTime()
	}
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
