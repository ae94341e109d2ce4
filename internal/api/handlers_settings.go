// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"net/http"
	"time"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/tracker"
)

// SettingsGet returns the persisted settings with the API key redacted.
func (h *Handler) SettingsGet(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// SettingsUpdate changes the auto-refresh toggle and interval. The running
// scheduler is reconfigured immediately; no restart required.
func (h *Handler) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	current := h.settings.Get()
	enabled := current.AutoRefresh
	interval := current.RefreshInterval
	if req.AutoRefresh != nil {
		enabled = *req.AutoRefresh
	}
	if req.RefreshInterval != nil {
		interval = *req.RefreshInterval
	}

	if err := h.settings.SetRefresh(enabled, interval); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to persist settings", err)
		return
	}

	h.scheduler.Reconfigure(tracker.SchedulerConfig{
		Enabled:  enabled,
		Interval: time.Duration(interval) * time.Second,
	})

	logging.Info().Bool("enabled", enabled).Int("interval_seconds", interval).Msg("Refresh schedule updated")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// APIKeySet stores Steam credentials and applies them to the provider.
// The per-user achievement cache is dropped when the user id changes.
func (h *Handler) APIKeySet(w http.ResponseWriter, r *http.Request) {
	var req APIKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.settings.SetAPIKey(req.APIKey); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to persist credentials", err)
		return
	}
	if err := h.settings.SetUserID(req.SteamUserID); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to persist credentials", err)
		return
	}

	h.provider.SetCredentials(req.APIKey, req.SteamUserID)

	logging.Info().Str("steam_id", req.SteamUserID).Msg("Steam credentials updated")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// APIKeyClear removes the stored credentials from both the settings file
// and the provider.
func (h *Handler) APIKeyClear(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.SetAPIKey(""); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to clear credentials", err)
		return
	}
	if err := h.settings.SetUserID(""); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to clear credentials", err)
		return
	}

	h.provider.ClearCredentials()

	logging.Info().Msg("Steam credentials cleared")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// TestGameSet configures a test app id that overrides local detection.
func (h *Handler) TestGameSet(w http.ResponseWriter, r *http.Request) {
	var req TestGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.settings.SetTestGame(req.AppID); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to persist test game", err)
		return
	}

	logging.Info().Int("app_id", req.AppID).Msg("Test game override set")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// TestGameClear removes the test app override so local detection resumes.
func (h *Handler) TestGameClear(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ClearTestGame(); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to clear test game", err)
		return
	}

	logging.Info().Msg("Test game override cleared")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// TrackedGameSet pins a game whose progress is followed regardless of
// what detection reports.
func (h *Handler) TrackedGameSet(w http.ResponseWriter, r *http.Request) {
	var req TrackedGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if err := h.settings.SetTrackedGame(req.AppID, req.Name); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to persist tracked game", err)
		return
	}

	logging.Info().Int("app_id", req.AppID).Str("name", req.Name).Msg("Tracked game set")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// TrackedGameClear removes the pinned game.
func (h *Handler) TrackedGameClear(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ClearTrackedGame(); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to clear tracked game", err)
		return
	}

	logging.Info().Msg("Tracked game cleared")
	respondSuccess(w, NewSettingsView(h.settings.Get()))
}

// CacheInvalidate drops cached data. With app_id only that game's
// achievement, schema and store entries are removed; without it every
// cache layer and the progress snapshot are cleared.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	appID := getIntParam(r, "app_id", 0)
	if appID < 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "app_id must not be negative", nil)
		return
	}

	if appID > 0 {
		if err := h.provider.InvalidateApp(appID); err != nil {
			respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to invalidate app cache", err)
			return
		}
		logging.Info().Int("app_id", appID).Msg("App cache invalidated")
		respondSuccess(w, map[string]interface{}{"invalidated": "app", "app_id": appID})
		return
	}

	if err := h.provider.InvalidateAll(); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternalError, "Failed to invalidate caches", err)
		return
	}
	h.engine.InvalidateProgress()

	logging.Info().Msg("All caches invalidated")
	respondSuccess(w, map[string]interface{}{"invalidated": "all"})
}
