// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package config loads and validates Questlog's runtime configuration from
// defaults, an optional YAML file, and environment variables, in that order
// of precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Questlog server.
type Config struct {
	Steam     SteamConfig     `koanf:"steam"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Aggregate AggregateConfig `koanf:"aggregate"`
	Cache     CacheConfig     `koanf:"cache"`
	Settings  SettingsConfig  `koanf:"settings"`
	Detect    DetectConfig    `koanf:"detect"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SteamConfig holds credentials and overrides for the Steam Web API.
// APIKey and SteamID may also be supplied at runtime through the settings
// store; config values act as the initial seed.
type SteamConfig struct {
	APIKey    string `koanf:"api_key"`
	SteamID   string `koanf:"steam_id"`
	TestAppID int    `koanf:"test_app_id"`

	// MaxConcurrentRequests bounds the parallel calls made when merging
	// a game's achievement data from multiple endpoints.
	MaxConcurrentRequests int           `koanf:"max_concurrent_requests"`
	RequestTimeout        time.Duration `koanf:"request_timeout"`

	// RequestsPerSecond and Burst feed the client-side rate limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// RefreshConfig controls the periodic refresh scheduler.
type RefreshConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	RecentLimit int           `koanf:"recent_limit"`
}

// AggregateConfig controls library-wide progress computation.
type AggregateConfig struct {
	MaxConcurrentGames int `koanf:"max_concurrent_games"`

	// GameCountTolerance is how far the owned-game count may drift from
	// a cached snapshot before the snapshot is considered stale.
	GameCountTolerance int `koanf:"game_count_tolerance"`
}

// CacheConfig sizes the in-memory caches and locates the persistent store.
type CacheConfig struct {
	Path string `koanf:"path"`

	AchievementTTL time.Duration `koanf:"achievement_ttl"`
	SchemaTTL      time.Duration `koanf:"schema_ttl"`
	AppDetailsTTL  time.Duration `koanf:"app_details_ttl"`
	ProgressTTL    time.Duration `koanf:"progress_ttl"`

	MemoryCapacity int `koanf:"memory_capacity"`
}

// SettingsConfig locates the persisted user settings file.
type SettingsConfig struct {
	Path string `koanf:"path"`
}

// DetectConfig controls local running-game detection.
type DetectConfig struct {
	Enabled bool `koanf:"enabled"`

	// ShmDir and ProcDir are overridable for testing.
	ShmDir  string `koanf:"shm_dir"`
	ProcDir string `koanf:"proc_dir"`

	// HomeDir is the user home holding the Steam installation.
	HomeDir string `koanf:"home_dir"`

	// PollInterval bounds how often the detector rescans system state;
	// within the interval the previous result is reused.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the configuration for values that would cause runtime
// failures. It does not require Steam credentials: those may arrive later
// through the settings API.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %v", c.Refresh.Interval)
	}
	if c.Refresh.RecentLimit < 1 {
		return fmt.Errorf("refresh.recent_limit must be at least 1, got %d", c.Refresh.RecentLimit)
	}
	if c.Steam.MaxConcurrentRequests < 1 {
		return fmt.Errorf("steam.max_concurrent_requests must be at least 1, got %d", c.Steam.MaxConcurrentRequests)
	}
	if c.Steam.RequestTimeout <= 0 {
		return fmt.Errorf("steam.request_timeout must be positive, got %v", c.Steam.RequestTimeout)
	}
	if c.Aggregate.MaxConcurrentGames < 1 {
		return fmt.Errorf("aggregate.max_concurrent_games must be at least 1, got %d", c.Aggregate.MaxConcurrentGames)
	}
	if c.Aggregate.GameCountTolerance < 0 {
		return fmt.Errorf("aggregate.game_count_tolerance must not be negative, got %d", c.Aggregate.GameCountTolerance)
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path must not be empty")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
