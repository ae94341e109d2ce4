// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/questlog-app/questlog/internal/models"
)

func TestSessionTrackerPoll(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	tracker := NewSessionTracker(provider)

	// No game running.
	session, err := tracker.Poll(context.Background())
	if err != nil || session != nil {
		t.Fatalf("poll = (%+v, %v)", session, err)
	}

	// Game appears.
	provider.setSession(&models.GameSession{AppID: 220, Name: "Half-Life 2", Running: true})
	session, err = tracker.Poll(context.Background())
	if err != nil || session == nil || session.AppID != 220 {
		t.Fatalf("poll = (%+v, %v)", session, err)
	}
	if tracker.Current().AppID != 220 {
		t.Fatal("snapshot not held")
	}
}

func TestSessionTrackerPollFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.setSession(&models.GameSession{AppID: 220, Running: true})
	tracker := NewSessionTracker(provider)

	if _, err := tracker.Poll(context.Background()); err != nil {
		t.Fatalf("seed poll: %v", err)
	}

	provider.mu.Lock()
	provider.sessionErr = errors.New("boom")
	provider.mu.Unlock()

	session, err := tracker.Poll(context.Background())
	if err == nil {
		t.Fatal("expected poll error")
	}
	if session == nil || session.AppID != 220 {
		t.Fatalf("previous snapshot lost: %+v", session)
	}
}

func TestHasChanged(t *testing.T) {
	t.Parallel()

	game220 := &models.GameSession{AppID: 220}
	game220Again := &models.GameSession{AppID: 220}
	game440 := &models.GameSession{AppID: 440}

	tests := []struct {
		name     string
		previous *models.GameSession
		current  *models.GameSession
		want     bool
	}{
		{"both nil", nil, nil, false},
		{"game appears", nil, game220, true},
		{"game exits", game220, nil, true},
		{"same app polled twice", game220, game220Again, false},
		{"different app", game220, game440, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := HasChanged(tt.previous, tt.current); got != tt.want {
				t.Fatalf("HasChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}
