// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/questlog/config.yaml",
	"/etc/questlog/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			APIKey:                "",
			SteamID:               "",
			TestAppID:             0,
			MaxConcurrentRequests: 6,
			RequestTimeout:        10 * time.Second,
			RequestsPerSecond:     4,
			Burst:                 8,
		},
		Refresh: RefreshConfig{
			Enabled:     true,
			Interval:    30 * time.Second,
			RecentLimit: 10,
		},
		Aggregate: AggregateConfig{
			MaxConcurrentGames: 20,
			GameCountTolerance: 5,
		},
		Cache: CacheConfig{
			Path:           "/data/questlog/cache",
			AchievementTTL: 5 * time.Minute,
			SchemaTTL:      1 * time.Hour,
			AppDetailsTTL:  24 * time.Hour,
			ProgressTTL:    24 * time.Hour,
			MemoryCapacity: 1000,
		},
		Settings: SettingsConfig{
			Path: "/data/questlog/settings.json",
		},
		Detect: DetectConfig{
			Enabled:      true,
			ShmDir:       "/dev/shm",
			ProcDir:      "/proc",
			HomeDir:      defaultHomeDir(),
			PollInterval: 5 * time.Second,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8417,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/home/deck"
	}
	return home
}

// Load builds the configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file
//  3. Environment variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// STEAM_API_KEY -> steam.api_key, HTTP_PORT -> server.port
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive through environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice from the YAML file
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment noise never
// pollutes the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Steam mappings
		"steam_api_key":                 "steam.api_key",
		"steam_user_id":                 "steam.steam_id",
		"steam_test_app_id":             "steam.test_app_id",
		"steam_max_concurrent_requests": "steam.max_concurrent_requests",
		"steam_request_timeout":         "steam.request_timeout",
		"steam_requests_per_second":     "steam.requests_per_second",
		"steam_burst":                   "steam.burst",

		// Refresh mappings
		"refresh_enabled":      "refresh.enabled",
		"refresh_interval":     "refresh.interval",
		"refresh_recent_limit": "refresh.recent_limit",

		// Aggregation mappings
		"aggregate_max_concurrent_games": "aggregate.max_concurrent_games",
		"aggregate_game_count_tolerance": "aggregate.game_count_tolerance",

		// Cache mappings
		"cache_path":            "cache.path",
		"cache_achievement_ttl": "cache.achievement_ttl",
		"cache_schema_ttl":      "cache.schema_ttl",
		"cache_app_details_ttl": "cache.app_details_ttl",
		"cache_progress_ttl":    "cache.progress_ttl",
		"cache_memory_capacity": "cache.memory_capacity",

		// Settings mappings
		"settings_path": "settings.path",

		// Detection mappings
		"detect_enabled":       "detect.enabled",
		"detect_shm_dir":       "detect.shm_dir",
		"detect_proc_dir":      "detect.proc_dir",
		"detect_home_dir":      "detect.home_dir",
		"detect_poll_interval": "detect.poll_interval",

		// Server mappings
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
