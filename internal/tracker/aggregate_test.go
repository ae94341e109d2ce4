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

func TestProgressTrackerCachesUntilForced(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.progress = &models.OverallProgress{TotalGames: 100}
	tracker := NewProgressTracker(provider)

	ctx := context.Background()

	first, err := tracker.Get(ctx, false)
	if err != nil || first.TotalGames != 100 {
		t.Fatalf("get = (%+v, %v)", first, err)
	}

	// Second call without force hits the cache, not the provider.
	provider.mu.Lock()
	provider.progress = &models.OverallProgress{TotalGames: 200}
	provider.mu.Unlock()

	second, err := tracker.Get(ctx, false)
	if err != nil || second.TotalGames != 100 {
		t.Fatalf("cached get = (%+v, %v)", second, err)
	}

	provider.mu.Lock()
	calls := provider.progressCalls
	provider.mu.Unlock()
	if calls != 1 {
		t.Fatalf("provider calls = %d, want 1", calls)
	}

	// force recomputes.
	third, err := tracker.Get(ctx, true)
	if err != nil || third.TotalGames != 200 {
		t.Fatalf("forced get = (%+v, %v)", third, err)
	}
}

func TestProgressTrackerInvalidate(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.progress = &models.OverallProgress{TotalGames: 1}
	tracker := NewProgressTracker(provider)

	ctx := context.Background()
	if _, err := tracker.Get(ctx, false); err != nil {
		t.Fatalf("get: %v", err)
	}

	tracker.Invalidate()
	if tracker.Cached() != nil {
		t.Fatal("cache should be empty after Invalidate")
	}

	if _, err := tracker.Get(ctx, false); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	provider.mu.Lock()
	calls := provider.progressCalls
	provider.mu.Unlock()
	if calls != 2 {
		t.Fatalf("provider calls = %d, want 2", calls)
	}
}

func TestProgressTrackerFailureKeepsCache(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.progress = &models.OverallProgress{TotalGames: 50}
	tracker := NewProgressTracker(provider)

	ctx := context.Background()
	if _, err := tracker.Get(ctx, false); err != nil {
		t.Fatalf("seed get: %v", err)
	}

	provider.mu.Lock()
	provider.progressErr = errors.New("steam down")
	provider.mu.Unlock()

	got, err := tracker.Get(ctx, true)
	if err == nil {
		t.Fatal("expected error from forced recompute")
	}
	if got == nil || got.TotalGames != 50 {
		t.Fatalf("cached snapshot should be returned on failure: %+v", got)
	}
}

func TestProgressTrackerConcurrentGuard(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	tracker := NewProgressTracker(provider)

	// Simulate an in-flight computation holding the lock.
	tracker.computeMu.Lock()
	got, err := tracker.Get(context.Background(), true)
	tracker.computeMu.Unlock()

	if err != nil {
		t.Fatalf("guarded get: %v", err)
	}
	if got == nil || got.Error == "" {
		t.Fatalf("expected in-progress marker, got %+v", got)
	}
	provider.mu.Lock()
	calls := provider.progressCalls
	provider.mu.Unlock()
	if calls != 0 {
		t.Fatalf("provider called %d times during in-flight guard", calls)
	}
}
