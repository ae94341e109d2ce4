// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"context"
	"sync"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models"
)

// ProgressTracker caches the most recent library-wide progress snapshot.
// The aggregate is computed on demand, never on a timer, and the cached
// result stands until an explicit recompute. Only one computation runs at
// a time; concurrent callers get the cached snapshot instead of blocking
// behind an in-flight run.
type ProgressTracker struct {
	provider Provider

	mu     sync.RWMutex
	cached *models.OverallProgress

	computeMu sync.Mutex
}

// NewProgressTracker creates a tracker with no cached snapshot.
func NewProgressTracker(provider Provider) *ProgressTracker {
	return &ProgressTracker{provider: provider}
}

// Cached returns the held snapshot, or nil if none has been computed.
func (t *ProgressTracker) Cached() *models.OverallProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cached
}

// Get returns the library-wide progress. A cached snapshot is returned
// unless force is set. When a computation is already in flight, the cached
// snapshot is returned rather than stacking a second run; with no cache to
// fall back on, a snapshot marked in-progress is returned.
func (t *ProgressTracker) Get(ctx context.Context, force bool) (*models.OverallProgress, error) {
	if !force {
		if cached := t.Cached(); cached != nil {
			metrics.AggregationRuns.WithLabelValues("cached").Inc()
			return cached, nil
		}
	}

	if !t.computeMu.TryLock() {
		metrics.AggregationRuns.WithLabelValues("in_progress").Inc()
		if cached := t.Cached(); cached != nil {
			return cached, nil
		}
		return &models.OverallProgress{Error: "progress computation in progress"}, nil
	}
	defer t.computeMu.Unlock()

	progress, err := t.provider.OverallProgress(ctx, force)
	if err != nil {
		metrics.AggregationRuns.WithLabelValues("failure").Inc()
		logging.Error().Err(err).Msg("Overall progress computation failed")
		if cached := t.Cached(); cached != nil {
			return cached, err
		}
		return nil, err
	}

	metrics.AggregationRuns.WithLabelValues("computed").Inc()

	t.mu.Lock()
	t.cached = progress
	t.mu.Unlock()

	return progress, nil
}

// Invalidate drops the cached snapshot so the next Get recomputes.
func (t *ProgressTracker) Invalidate() {
	t.mu.Lock()
	t.cached = nil
	t.mu.Unlock()
}
