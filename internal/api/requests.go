// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"github.com/questlog-app/questlog/internal/models"
)

// RefreshRequest is the optional body of POST /api/v1/refresh. View names
// the view the client currently displays so the refresh cycle fetches the
// data that view needs.
type RefreshRequest struct {
	View string `json:"view" validate:"omitempty,oneof=achievements recent progress"`
}

// SettingsUpdateRequest is the body of PUT /api/v1/settings. Nil fields
// keep their current value.
type SettingsUpdateRequest struct {
	AutoRefresh     *bool `json:"auto_refresh"`
	RefreshInterval *int  `json:"refresh_interval" validate:"omitempty,min=5,max=86400"`
}

// APIKeyRequest is the body of POST /api/v1/settings/api-key.
type APIKeyRequest struct {
	APIKey      string `json:"api_key" validate:"required,steam_api_key"`
	SteamUserID string `json:"steam_user_id" validate:"required,steamid"`
}

// TestGameRequest is the body of POST /api/v1/settings/test-game.
type TestGameRequest struct {
	AppID int `json:"app_id" validate:"required,min=1"`
}

// TrackedGameRequest is the body of POST /api/v1/settings/tracked-game.
type TrackedGameRequest struct {
	AppID int    `json:"app_id" validate:"required,min=1"`
	Name  string `json:"name" validate:"required,max=256"`
}

// SettingsView is the API projection of the persisted settings. The API
// key itself never leaves the server; only its presence is reported.
type SettingsView struct {
	APIKeyConfigured bool                `json:"api_key_configured"`
	SteamUserID      string              `json:"steam_user_id,omitempty"`
	TestAppID        int                 `json:"test_app_id,omitempty"`
	AutoRefresh      bool                `json:"auto_refresh"`
	RefreshInterval  int                 `json:"refresh_interval"`
	TrackedGame      *models.TrackedGame `json:"tracked_game,omitempty"`
}

// NewSettingsView builds the redacted projection.
func NewSettingsView(s models.Settings) SettingsView {
	return SettingsView{
		APIKeyConfigured: s.SteamAPIKey != "",
		SteamUserID:      s.SteamUserID,
		TestAppID:        s.TestAppID,
		AutoRefresh:      s.AutoRefresh,
		RefreshInterval:  s.RefreshInterval,
		TrackedGame:      s.TrackedGame,
	}
}
