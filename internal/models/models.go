// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package models defines the core domain types shared across Questlog:
// achievements, per-game achievement sets, game sessions, recent unlocks,
// and library-wide progress aggregates.
//
// All types are value objects returned fresh from each fetch. Consumers hold
// at most the latest snapshot of each; the only cross-snapshot comparison in
// the system is game-identity equality (see tracker.HasChanged).
package models

// Achievement is a single achievement for one game, merged from the game
// schema (display data), player state (unlock data), and global unlock
// statistics.
//
// GlobalPercent is nil when the global unlock percentage is unknown. Callers
// must never substitute 0 for an unknown percentage: a 0% achievement would
// be the rarest in the game, while an unknown one simply has no data.
type Achievement struct {
	APIName     string `json:"api_name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icon_gray"`
	Hidden      bool   `json:"hidden"`
	Unlocked    bool   `json:"unlocked"`

	// UnlockTime is epoch seconds, set only when Unlocked is true.
	UnlockTime int64 `json:"unlock_time,omitempty"`

	// GlobalPercent is the fraction of all players who have unlocked this
	// achievement, in [0,100], or nil when unknown.
	GlobalPercent *float64 `json:"global_percent,omitempty"`
}

// AchievementSet is the achievement state for one game. Error, when set,
// signals the provider could not produce achievement data for this game; it
// is a valid terminal state, not a transport failure.
type AchievementSet struct {
	AppID        int           `json:"app_id"`
	Total        int           `json:"total"`
	Unlocked     int           `json:"unlocked"`
	Achievements []Achievement `json:"achievements"`
	Error        string        `json:"error,omitempty"`
}

// Percentage returns the derived completion percentage.
// Returns 0 for an empty set; never divides by zero.
func (s *AchievementSet) Percentage() float64 {
	if s == nil || s.Total == 0 {
		return 0
	}
	return float64(s.Unlocked) / float64(s.Total) * 100
}

// Remaining returns the number of achievements still locked.
func (s *AchievementSet) Remaining() int {
	if s == nil {
		return 0
	}
	return s.Total - s.Unlocked
}

// IsPerfect reports whether every achievement in the set is unlocked.
// An empty set is not a perfect game.
func (s *AchievementSet) IsPerfect() bool {
	return s != nil && s.Total > 0 && s.Unlocked == s.Total
}

// GameSession identifies the currently foreground game. A nil *GameSession
// means no game is running. Sessions are replaced wholesale on every poll;
// there are no partial updates.
type GameSession struct {
	AppID            int    `json:"app_id"`
	Name             string `json:"name"`
	Running          bool   `json:"is_running"`
	HasAchievements  bool   `json:"has_achievements"`
	AchievementCount int    `json:"achievement_count"`
	HeaderImage      string `json:"header_image,omitempty"`
}

// GameStats is the per-game statistic schema values for a player:
// stat name mapped to its numeric value. Error, when set, marks a
// data-level failure (e.g. the game has no stats schema).
type GameStats struct {
	AppID int                `json:"app_id"`
	Stats map[string]float64 `json:"stats"`
	Error string             `json:"error,omitempty"`
}

// RecentUnlock is a flattened cross-game record of a recently unlocked
// achievement. The provider produces these already sorted by recency.
type RecentUnlock struct {
	GameID          int      `json:"game_id"`
	GameName        string   `json:"game_name"`
	AchievementName string   `json:"achievement_name"`
	AchievementDesc string   `json:"achievement_desc"`
	UnlockTime      int64    `json:"unlock_time"`
	Icon            string   `json:"icon"`
	GlobalPercent   *float64 `json:"global_percent,omitempty"`
}

// PerfectGame identifies a game where every achievement is unlocked.
type PerfectGame struct {
	AppID             int    `json:"app_id"`
	Name              string `json:"name"`
	TotalAchievements int    `json:"total_achievements"`
	PlaytimeForever   int    `json:"playtime_forever,omitempty"`
	HeaderImage       string `json:"header_image,omitempty"`
}

// OverallProgress is the library-wide achievement aggregate. Error, when
// set, means aggregation could not be computed (e.g. missing credentials)
// and the counter fields are zero.
type OverallProgress struct {
	TotalGames            int           `json:"total_games"`
	GamesWithAchievements int           `json:"games_with_achievements"`
	TotalAchievements     int           `json:"total_achievements"`
	UnlockedAchievements  int           `json:"unlocked_achievements"`
	AverageCompletion     float64       `json:"average_completion"`
	PerfectGames          []PerfectGame `json:"perfect_games"`
	PerfectGamesCount     int           `json:"perfect_games_count"`
	LastUpdated           int64         `json:"last_updated,omitempty"`
	ProcessedGames        int           `json:"processed_games,omitempty"`
	Error                 string        `json:"error,omitempty"`
}

// TrackedGame is a user-pinned game whose progress is followed regardless of
// what is currently running.
type TrackedGame struct {
	AppID int    `json:"app_id"`
	Name  string `json:"name"`
}

// Settings holds the runtime-mutable user settings persisted by the
// settings store.
type Settings struct {
	SteamAPIKey     string       `json:"steam_api_key,omitempty"`
	SteamUserID     string       `json:"steam_user_id,omitempty"`
	TestAppID       int          `json:"test_app_id,omitempty"`
	AutoRefresh     bool         `json:"auto_refresh"`
	RefreshInterval int          `json:"refresh_interval"`
	TrackedGame     *TrackedGame `json:"tracked_game,omitempty"`
}
