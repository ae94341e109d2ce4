// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints, for both successful and error responses.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"app_id": 440, "total": 520, ...},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "PROVIDER_ERROR", "message": "Steam API unreachable"},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
// Cached is set when the payload was served from the snapshot or
// progress cache rather than a fresh upstream fetch.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached,omitempty"`
}

// APIError carries structured error details.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - PROVIDER_ERROR: upstream Steam API failure
//   - NOT_CONFIGURED: missing API key or Steam user id
//   - NOT_FOUND: resource doesn't exist
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AchievementSetView is the API projection of an AchievementSet after the
// sort/filter engine has been applied. Percentage is derived server-side so
// clients never recompute it.
type AchievementSetView struct {
	AppID        int           `json:"app_id"`
	Total        int           `json:"total"`
	Unlocked     int           `json:"unlocked"`
	Percentage   float64       `json:"percentage"`
	Remaining    int           `json:"remaining"`
	Achievements []Achievement `json:"achievements"`
	Error        string        `json:"error,omitempty"`
}

// NewAchievementSetView builds the API projection for a set and an already
// sorted/filtered achievement list.
func NewAchievementSetView(set *AchievementSet, achievements []Achievement) *AchievementSetView {
	if set == nil {
		return nil
	}
	return &AchievementSetView{
		AppID:        set.AppID,
		Total:        set.Total,
		Unlocked:     set.Unlocked,
		Percentage:   set.Percentage(),
		Remaining:    set.Remaining(),
		Achievements: achievements,
		Error:        set.Error,
	}
}
