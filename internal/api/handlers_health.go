// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"net/http"
	"time"

	"github.com/questlog-app/questlog/internal/models"
)

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// The service is ready once the refresh scheduler is running; missing
// Steam credentials degrade functionality but do not fail readiness,
// since they can be supplied later through the settings API.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.scheduler != nil && h.scheduler.IsRunning()

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"scheduler_running":      ready,
			"credentials_configured": h.provider != nil && h.provider.HasCredentials(),
			"uptime":                 time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// Health returns the combined health summary: scheduler state, credential
// configuration, active session presence, and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	schedulerRunning := h.scheduler != nil && h.scheduler.IsRunning()
	credentialsSet := h.provider != nil && h.provider.HasCredentials()

	status := "healthy"
	if !schedulerRunning {
		status = "degraded"
	}

	var activeAppID int
	if session := h.engine.Session(); session != nil {
		activeAppID = session.AppID
	}

	respondSuccess(w, map[string]interface{}{
		"status":                 status,
		"version":                "1.0.0",
		"scheduler_running":      schedulerRunning,
		"credentials_configured": credentialsSet,
		"active_app_id":          activeAppID,
		"uptime":                 time.Since(h.startTime).Seconds(),
	})
}
