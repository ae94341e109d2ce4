// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"net/http"

	"github.com/questlog-app/questlog/internal/logging"
)

// Progress returns library-wide aggregation: totals, average completion,
// and perfect games. A cached snapshot is reused unless refresh=true forces
// a recompute or the owned-game count has drifted past tolerance.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	force := getBoolParam(r, "refresh", false)

	progress, err := h.engine.Progress(r.Context(), force)
	if err != nil {
		respondError(w, http.StatusBadGateway, codeProviderError, "Failed to compute library progress", err)
		return
	}

	// A payload-carried error means credentials are missing, not that the
	// provider failed.
	cached := !force && progress.Error == ""
	respondCached(w, progress, cached)
}

// Refresh runs one manual refresh cycle synchronously. The optional body
// names the view the client is displaying so the cycle fetches the data
// that view needs. Partial fetch failures are reported but leave the
// surviving snapshots updated.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
		if apiErr := validateRequest(&req); apiErr != nil {
			respondValidationError(w, apiErr)
			return
		}
	}

	if req.View != "" {
		h.engine.SetActiveView(req.View)
	}

	if err := h.scheduler.Refresh(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("Manual refresh completed with errors")
		respondError(w, http.StatusBadGateway, codeProviderError, "Refresh completed with errors: "+err.Error(), nil)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"refreshed": true,
		"view":      h.engine.ActiveView(),
	})
}
