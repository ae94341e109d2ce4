// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package cache

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/models/steamapi"
)

// Key prefixes for BadgerDB storage
const (
	appDetailsKeyPrefix = "appdetails:"
	progressKeyPrefix   = "progress:"
)

// ErrNotFound is returned when a key is absent or its TTL has elapsed.
var ErrNotFound = errors.New("cache: not found")

// Store persists the expensive-to-rebuild Steam data across restarts:
// Store appdetails responses (24h TTL upstream) and library-wide progress
// snapshots. Entry expiry is delegated to Badger's native TTL support.
type Store struct {
	db *badger.DB

	appDetailsTTL time.Duration
	progressTTL   time.Duration
}

// NewStore creates a store on top of an open BadgerDB handle.
// The caller owns the handle and its lifecycle.
func NewStore(db *badger.DB, appDetailsTTL, progressTTL time.Duration) *Store {
	if appDetailsTTL <= 0 {
		appDetailsTTL = 24 * time.Hour
	}
	if progressTTL <= 0 {
		progressTTL = 24 * time.Hour
	}
	return &Store{db: db, appDetailsTTL: appDetailsTTL, progressTTL: progressTTL}
}

// SetAppDetails caches store metadata for an app.
func (s *Store) SetAppDetails(appID int, data *steamapi.AppDetailsData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal app details: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(appDetailsKey(appID), payload).WithTTL(s.appDetailsTTL)
		return txn.SetEntry(entry)
	})
}

// GetAppDetails retrieves cached store metadata for an app.
func (s *Store) GetAppDetails(appID int) (*steamapi.AppDetailsData, error) {
	var data steamapi.AppDetailsData

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(appDetailsKey(appID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get app details: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &data)
		})
	})

	if err != nil {
		return nil, err
	}
	return &data, nil
}

// SetProgress caches an aggregated library progress snapshot for a user.
func (s *Store) SetProgress(steamID string, progress *models.OverallProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(progressKey(steamID), payload).WithTTL(s.progressTTL)
		return txn.SetEntry(entry)
	})
}

// GetProgress retrieves a cached progress snapshot for a user.
func (s *Store) GetProgress(steamID string) (*models.OverallProgress, error) {
	var progress models.OverallProgress

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(progressKey(steamID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get progress: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &progress)
		})
	})

	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// InvalidateApp drops the cached details for a single app.
func (s *Store) InvalidateApp(appID int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(appDetailsKey(appID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("invalidate app details: %w", err)
		}
		return nil
	})
}

// InvalidateProgress drops the cached progress snapshot for a user.
func (s *Store) InvalidateProgress(steamID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(progressKey(steamID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("invalidate progress: %w", err)
		}
		return nil
	})
}

// Clear drops every cached entry.
func (s *Store) Clear() error {
	if err := s.db.DropPrefix([]byte(appDetailsKeyPrefix)); err != nil {
		return fmt.Errorf("drop app details: %w", err)
	}
	if err := s.db.DropPrefix([]byte(progressKeyPrefix)); err != nil {
		return fmt.Errorf("drop progress: %w", err)
	}
	return nil
}

// Count returns the number of live entries under both prefixes.
func (s *Store) Count() (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

func appDetailsKey(appID int) []byte {
	return []byte(appDetailsKeyPrefix + strconv.Itoa(appID))
}

func progressKey(steamID string) []byte {
	return []byte(progressKeyPrefix + steamID)
}
