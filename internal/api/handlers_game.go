// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"errors"
	"net/http"

	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/steam"
	"github.com/questlog-app/questlog/internal/tracker"
)

// Session returns the current game session snapshot. Data is null when no
// game is running.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.engine.Session())
}

// Achievements returns the achievement view for a game. Without app_id the
// held snapshot for the active game is served; with app_id the set is
// fetched explicitly. Sort, rarity_ceiling and show_hidden select the view;
// the response carries the derived completion percentage.
//
// Data-level provider failures (private profile, game without achievements)
// arrive as a 200 with the error field set inside the payload. Transport
// failures are a 502.
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	opts, ok := viewOptionsFromQuery(w, r)
	if !ok {
		return
	}

	appID := getIntParam(r, "app_id", 0)
	if appID < 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "app_id must not be negative", nil)
		return
	}

	var set *models.AchievementSet
	if appID > 0 {
		fetched, err := h.engine.FetchAchievements(r.Context(), appID)
		if err != nil {
			respondError(w, http.StatusBadGateway, codeProviderError, "Failed to fetch achievements from Steam", err)
			return
		}
		set = fetched
	} else {
		set = h.engine.Achievements()
		if set == nil {
			respondError(w, http.StatusNotFound, codeNotFound, "No achievement data held; no active game detected", nil)
			return
		}
	}

	view := models.NewAchievementSetView(set, tracker.ApplyView(set.Achievements, opts))
	respondSuccess(w, view)
}

// Stats returns the stat map for a game, fetched when app_id is given,
// otherwise the held snapshot for the active game.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	appID := getIntParam(r, "app_id", 0)
	if appID < 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "app_id must not be negative", nil)
		return
	}

	if appID > 0 {
		stats, err := h.engine.FetchStats(r.Context(), appID)
		if err != nil {
			respondError(w, http.StatusBadGateway, codeProviderError, "Failed to fetch stats from Steam", err)
			return
		}
		respondSuccess(w, stats)
		return
	}

	stats := h.engine.Stats()
	if stats == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "No stats held; no active game detected", nil)
		return
	}
	respondSuccess(w, stats)
}

// Recent returns the latest achievement unlocks across recently played
// games, most recent first. limit sets how many unlocks are requested from
// the provider; zero uses the configured default.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 0)
	if limit < 0 {
		respondError(w, http.StatusBadRequest, codeValidationError, "limit must not be negative", nil)
		return
	}

	recent, err := h.engine.FetchRecent(r.Context(), limit)
	if err != nil {
		if errors.Is(err, steam.ErrNoCredentials) {
			respondError(w, http.StatusBadRequest, codeNotConfigured, "Steam API key or user id not configured", nil)
			return
		}
		respondError(w, http.StatusBadGateway, codeProviderError, "Failed to fetch recent unlocks from Steam", err)
		return
	}

	respondSuccess(w, recent)
}

// viewOptionsFromQuery parses the explicit view parameters. Returns false
// after writing a 400 response when a parameter is invalid.
func viewOptionsFromQuery(w http.ResponseWriter, r *http.Request) (tracker.ViewOptions, bool) {
	sort, err := tracker.ParseSortMode(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidationError, "sort must be one of unlock, name, rarity", nil)
		return tracker.ViewOptions{}, false
	}

	ceiling := getFloatParam(r, "rarity_ceiling", 0)
	if ceiling < 0 || ceiling > 100 {
		respondError(w, http.StatusBadRequest, codeValidationError, "rarity_ceiling must be between 0 and 100", nil)
		return tracker.ViewOptions{}, false
	}

	return tracker.ViewOptions{
		Sort:          sort,
		RarityCeiling: ceiling,
		ShowHidden:    getBoolParam(r, "show_hidden", false),
	}, true
}
