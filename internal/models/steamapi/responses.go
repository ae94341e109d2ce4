// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package steamapi defines the wire types for the Steam Web API and Store
// API endpoints Questlog consumes. These mirror Steam's JSON shapes exactly;
// the merged, display-safe domain types live in the parent models package.
package steamapi

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// FlexFloat tolerates the inconsistent numeric encodings Steam uses for
// global achievement percentages: JSON numbers, quoted numbers, or null.
// Malformed values decode to "unknown" rather than failing the payload.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements tolerant numeric decoding.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.Valid = false
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	s := string(data)
	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return nil
		}
		s = unquoted
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	f.Value = v
	f.Valid = true
	return nil
}

// Ptr returns the value as a nullable pointer, nil when unknown.
func (f FlexFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// OwnedGame is one entry from IPlayerService/GetOwnedGames.
type OwnedGame struct {
	AppID                    int    `json:"appid"`
	Name                     string `json:"name"`
	PlaytimeForever          int    `json:"playtime_forever"`
	HasCommunityVisibleStats bool   `json:"has_community_visible_stats"`
}

// OwnedGamesResponse wraps IPlayerService/GetOwnedGames/v1.
type OwnedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

// RecentlyPlayedResponse wraps IPlayerService/GetRecentlyPlayedGames/v1.
type RecentlyPlayedResponse struct {
	Response struct {
		TotalCount int         `json:"total_count"`
		Games      []OwnedGame `json:"games"`
	} `json:"response"`
}

// PlayerAchievement is one entry from ISteamUserStats/GetPlayerAchievements.
type PlayerAchievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

// PlayerStats is the payload of GetPlayerAchievements and
// GetUserStatsForGame. Success is false with an Error string when the app
// has no achievement registration.
type PlayerStats struct {
	SteamID      string              `json:"steamID"`
	GameName     string              `json:"gameName"`
	Success      bool                `json:"success"`
	Error        string              `json:"error,omitempty"`
	Achievements []PlayerAchievement `json:"achievements"`
	Stats        []UserStat          `json:"stats"`
}

// PlayerAchievementsResponse wraps ISteamUserStats/GetPlayerAchievements/v1.
type PlayerAchievementsResponse struct {
	PlayerStats PlayerStats `json:"playerstats"`
}

// UserStat is one named numeric stat from GetUserStatsForGame.
type UserStat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// UserStatsResponse wraps ISteamUserStats/GetUserStatsForGame/v2.
type UserStatsResponse struct {
	PlayerStats PlayerStats `json:"playerstats"`
}

// SchemaAchievement is one achievement definition from GetSchemaForGame.
// Hidden uses Steam's 0/1 integer convention.
type SchemaAchievement struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
	Hidden      int    `json:"hidden"`
}

// SchemaStat is one stat definition from GetSchemaForGame.
type SchemaStat struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// SchemaResponse wraps ISteamUserStats/GetSchemaForGame/v2.
type SchemaResponse struct {
	Game struct {
		GameName           string `json:"gameName"`
		AvailableGameStats struct {
			Achievements []SchemaAchievement `json:"achievements"`
			Stats        []SchemaStat        `json:"stats"`
		} `json:"availableGameStats"`
	} `json:"game"`
}

// GlobalPercentage is one entry from
// GetGlobalAchievementPercentagesForApp. Percent arrives as a number or a
// quoted number depending on the app; FlexFloat absorbs both.
type GlobalPercentage struct {
	Name    string    `json:"name"`
	Percent FlexFloat `json:"percent"`
}

// GlobalPercentagesResponse wraps
// ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2.
type GlobalPercentagesResponse struct {
	AchievementPercentages struct {
		Achievements []GlobalPercentage `json:"achievements"`
	} `json:"achievementpercentages"`
}

// AppDetailsData is the store metadata Questlog keeps for a game.
type AppDetailsData struct {
	Name         string `json:"name"`
	HeaderImage  string `json:"header_image"`
	Achievements *struct {
		Total int `json:"total"`
	} `json:"achievements"`
	Categories []struct {
		Description string `json:"description"`
	} `json:"categories"`
}

// AppDetailsEntry is the per-app envelope of the Store appdetails endpoint.
// The full response is a map keyed by the stringified app id.
type AppDetailsEntry struct {
	Success bool           `json:"success"`
	Data    AppDetailsData `json:"data"`
}
