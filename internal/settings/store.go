// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package settings persists user-changeable settings (Steam credentials,
// test-game override, tracked game, refresh preferences) as a JSON file.
// Writes go through a temp file and atomic rename so a crash mid-write
// never corrupts the stored settings.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/models"
)

// Store holds the settings in memory and mirrors every change to disk.
// Safe for concurrent use.
type Store struct {
	path string

	mu      sync.RWMutex
	current models.Settings
}

// NewStore creates a store backed by the given file path. The file is not
// read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings file. A missing file yields defaults and is not
// an error; a corrupt file is.
func (s *Store) Load() error {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info().Str("path", s.path).Msg("No settings file found, using defaults")
		s.mu.Lock()
		s.current = defaultSettings()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	loaded := defaultSettings()
	if err := json.Unmarshal(content, &loaded); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	logging.Info().
		Bool("has_api_key", loaded.SteamAPIKey != "").
		Str("steam_user_id", loaded.SteamUserID).
		Msg("Settings loaded")
	return nil
}

func defaultSettings() models.Settings {
	return models.Settings{
		AutoRefresh:     true,
		RefreshInterval: 30,
	}
}

// Get returns a copy of the current settings.
func (s *Store) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save replaces the settings wholesale and persists them.
func (s *Store) Save(settings models.Settings) error {
	return s.update(func(current *models.Settings) {
		*current = settings
	})
}

// SetAPIKey stores the Steam Web API key. An empty key clears it.
func (s *Store) SetAPIKey(key string) error {
	logging.Info().Bool("set", key != "").Msg("Updating Steam API key")
	return s.update(func(current *models.Settings) {
		current.SteamAPIKey = key
	})
}

// SetUserID stores the SteamID64 of the tracked account.
func (s *Store) SetUserID(id string) error {
	logging.Info().Str("steam_user_id", id).Msg("Updating Steam user ID")
	return s.update(func(current *models.Settings) {
		current.SteamUserID = id
	})
}

// SetTestGame sets the test-game override used when no real game runs.
func (s *Store) SetTestGame(appID int) error {
	logging.Info().Int("app_id", appID).Msg("Setting test game override")
	return s.update(func(current *models.Settings) {
		current.TestAppID = appID
	})
}

// ClearTestGame removes the test-game override.
func (s *Store) ClearTestGame() error {
	logging.Info().Msg("Clearing test game override")
	return s.update(func(current *models.Settings) {
		current.TestAppID = 0
	})
}

// SetTrackedGame pins a game for tracking independent of detection.
func (s *Store) SetTrackedGame(appID int, name string) error {
	logging.Info().Int("app_id", appID).Str("name", name).Msg("Setting tracked game")
	return s.update(func(current *models.Settings) {
		current.TrackedGame = &models.TrackedGame{AppID: appID, Name: name}
	})
}

// ClearTrackedGame removes the pinned game.
func (s *Store) ClearTrackedGame() error {
	logging.Info().Msg("Clearing tracked game")
	return s.update(func(current *models.Settings) {
		current.TrackedGame = nil
	})
}

// SetRefresh updates the auto-refresh preferences.
func (s *Store) SetRefresh(enabled bool, intervalSeconds int) error {
	if intervalSeconds < 1 {
		intervalSeconds = 1
	}
	return s.update(func(current *models.Settings) {
		current.AutoRefresh = enabled
		current.RefreshInterval = intervalSeconds
	})
}

// update applies a mutation under the lock and persists the result. The
// in-memory state only advances when the write succeeds.
func (s *Store) update(mutate func(*models.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	mutate(&next)

	if err := s.write(next); err != nil {
		return err
	}

	s.current = next
	return nil
}

// write persists settings via temp file + rename.
func (s *Store) write(settings models.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	return nil
}
