// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"context"
	"sync"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/models"
)

// SessionTracker holds the latest known game session snapshot. A failed
// poll leaves the previous snapshot untouched so the engine stays usable
// through transient detection failures.
type SessionTracker struct {
	provider Provider

	mu      sync.RWMutex
	current *models.GameSession
}

// NewSessionTracker creates a tracker with no held session.
func NewSessionTracker(provider Provider) *SessionTracker {
	return &SessionTracker{provider: provider}
}

// Poll queries the provider for the running game. On success the held
// snapshot is replaced and returned; nil means no game is running. On
// failure the previous snapshot is kept and returned alongside the error.
func (t *SessionTracker) Poll(ctx context.Context) (*models.GameSession, error) {
	session, err := t.provider.CurrentGame(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Session poll failed, keeping previous snapshot")
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.current, err
	}

	t.mu.Lock()
	t.current = session
	t.mu.Unlock()

	return session, nil
}

// Current returns the held snapshot without polling.
func (t *SessionTracker) Current() *models.GameSession {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// HasChanged reports whether the foreground game differs between two
// snapshots: a different app id, or a transition between "no game" and
// "a game" in either direction.
func HasChanged(previous, current *models.GameSession) bool {
	if previous == nil && current == nil {
		return false
	}
	if previous == nil || current == nil {
		return true
	}
	return previous.AppID != current.AppID
}
