// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models"
)

// Update kinds delivered to the engine's update callback.
const (
	UpdateSession          = "session_update"
	UpdateAchievements     = "achievements_update"
	UpdateStats            = "stats_update"
	UpdateRecent           = "recent_update"
	UpdateProgress         = "progress_update"
	UpdateRefreshCompleted = "refresh_completed"
)

// RefreshOutcome is the payload of an UpdateRefreshCompleted notification.
type RefreshOutcome struct {
	Trigger string `json:"trigger"`
	Result  string `json:"result"`
}

// Views whose optional fetches a manual refresh performs only when that
// view is currently displayed.
const (
	ViewAchievements = "achievements"
	ViewRecent       = "recent"
	ViewProgress     = "progress"
)

// Engine ties the trackers together: it owns the latest achievement, stat
// and recent-unlock snapshots, runs refresh cycles, and fans updates out to
// an optional callback (the WebSocket hub in production).
//
// Snapshot updates are last-writer-wins: overlapping fetches may race and
// the most recently completed one is authoritative. Acceptable for
// read-mostly status display.
type Engine struct {
	provider Provider
	session  *SessionTracker
	progress *ProgressTracker

	recentLimit int

	mu           sync.RWMutex
	achievements *models.AchievementSet
	stats        *models.GameStats
	recent       []models.RecentUnlock

	viewMu     sync.RWMutex
	activeView string

	notifyMu sync.RWMutex
	onUpdate func(kind string, payload interface{})
}

// NewEngine creates an engine over the given provider. recentLimit bounds
// how many recent unlocks a refresh requests.
func NewEngine(provider Provider, recentLimit int) *Engine {
	if recentLimit < 1 {
		recentLimit = 10
	}
	return &Engine{
		provider:    provider,
		session:     NewSessionTracker(provider),
		progress:    NewProgressTracker(provider),
		recentLimit: recentLimit,
		activeView:  ViewAchievements,
	}
}

// OnUpdate registers the callback invoked after each snapshot update.
func (e *Engine) OnUpdate(fn func(kind string, payload interface{})) {
	e.notifyMu.Lock()
	e.onUpdate = fn
	e.notifyMu.Unlock()
}

func (e *Engine) notify(kind string, payload interface{}) {
	e.notifyMu.RLock()
	fn := e.onUpdate
	e.notifyMu.RUnlock()
	if fn != nil {
		fn(kind, payload)
	}
}

// SetActiveView records which view the client is displaying. The scheduler
// reads this to skip optional fetches nobody is looking at.
func (e *Engine) SetActiveView(view string) {
	e.viewMu.Lock()
	e.activeView = view
	e.viewMu.Unlock()
}

// ActiveView returns the currently displayed view.
func (e *Engine) ActiveView() string {
	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return e.activeView
}

// Session returns the held game session snapshot, nil when no game runs.
func (e *Engine) Session() *models.GameSession {
	return e.session.Current()
}

// Achievements returns the held achievement snapshot for the active game.
func (e *Engine) Achievements() *models.AchievementSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.achievements
}

// AchievementView returns the held snapshot with the given view applied.
func (e *Engine) AchievementView(opts ViewOptions) *models.AchievementSetView {
	set := e.Achievements()
	if set == nil {
		return nil
	}
	return models.NewAchievementSetView(set, ApplyView(set.Achievements, opts))
}

// Stats returns the held stats snapshot for the active game.
func (e *Engine) Stats() *models.GameStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Recent returns the held recent-unlocks snapshot.
func (e *Engine) Recent() []models.RecentUnlock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recent
}

// Progress returns the library-wide progress, cached unless force is set.
func (e *Engine) Progress(ctx context.Context, force bool) (*models.OverallProgress, error) {
	progress, err := e.progress.Get(ctx, force)
	if err == nil && progress != nil {
		e.notify(UpdateProgress, progress)
	}
	return progress, err
}

// InvalidateProgress drops the cached aggregate snapshot.
func (e *Engine) InvalidateProgress() {
	e.progress.Invalidate()
}

// FetchAchievements fetches and stores the achievement set for an app,
// bypassing the refresh cycle. Used by the API for explicit app queries.
func (e *Engine) FetchAchievements(ctx context.Context, appID int) (*models.AchievementSet, error) {
	raw, err := e.provider.Achievements(ctx, appID)
	if err != nil {
		return nil, err
	}

	set := NormalizeSet(raw)
	e.mu.Lock()
	e.achievements = set
	e.mu.Unlock()

	e.notify(UpdateAchievements, set)
	return set, nil
}

// FetchStats fetches and stores the stat map for an app.
func (e *Engine) FetchStats(ctx context.Context, appID int) (*models.GameStats, error) {
	stats, err := e.provider.GameStats(ctx, appID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.stats = stats
	e.mu.Unlock()

	e.notify(UpdateStats, stats)
	return stats, nil
}

// FetchRecent fetches and stores the recent unlocks list. A non-positive
// limit falls back to the engine default.
func (e *Engine) FetchRecent(ctx context.Context, limit int) ([]models.RecentUnlock, error) {
	if limit < 1 {
		limit = e.recentLimit
	}
	recent, err := e.provider.RecentUnlocks(ctx, limit)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.recent = recent
	e.mu.Unlock()

	e.notify(UpdateRecent, recent)
	return recent, nil
}

// RefreshCycle runs one refresh pass: poll the session, then fetch the
// active game's achievements and stats. A manual trigger additionally
// fetches recent unlocks and overall progress when those views are
// displayed. Fetch failures are isolated: one kind failing never aborts
// the others, and each failure is reported independently in the joined
// error.
func (e *Engine) RefreshCycle(ctx context.Context, trigger string) error {
	start := time.Now()
	cycleID := uuid.NewString()[:8]

	previous := e.session.Current()
	session, err := e.session.Poll(ctx)
	if err != nil {
		metrics.RefreshFetchErrors.WithLabelValues("session").Inc()
		metrics.RecordRefreshCycle(trigger, "failure", time.Since(start))
		return fmt.Errorf("session poll: %w", err)
	}

	if HasChanged(previous, session) {
		logging.Info().
			Str("cycle", cycleID).
			Int("app_id", sessionAppID(session)).
			Msg("Active game changed")
		e.notify(UpdateSession, session)
	}

	var errs []error
	fetched := 0

	if session != nil {
		if _, err := e.FetchAchievements(ctx, session.AppID); err != nil {
			metrics.RefreshFetchErrors.WithLabelValues("achievements").Inc()
			errs = append(errs, fmt.Errorf("achievements: %w", err))
		} else {
			fetched++
		}

		if _, err := e.FetchStats(ctx, session.AppID); err != nil {
			metrics.RefreshFetchErrors.WithLabelValues("stats").Inc()
			errs = append(errs, fmt.Errorf("stats: %w", err))
		} else {
			fetched++
		}
	}

	if trigger == "manual" {
		switch e.ActiveView() {
		case ViewRecent:
			if _, err := e.FetchRecent(ctx, 0); err != nil {
				metrics.RefreshFetchErrors.WithLabelValues("recent").Inc()
				errs = append(errs, fmt.Errorf("recent unlocks: %w", err))
			} else {
				fetched++
			}
		case ViewProgress:
			if _, err := e.Progress(ctx, false); err != nil {
				errs = append(errs, fmt.Errorf("overall progress: %w", err))
			} else {
				fetched++
			}
		}
	}

	result := cycleResult(fetched, len(errs))
	metrics.RecordRefreshCycle(trigger, result, time.Since(start))

	logging.Debug().
		Str("cycle", cycleID).
		Str("trigger", trigger).
		Str("result", result).
		Int("app_id", sessionAppID(session)).
		Dur("duration", time.Since(start)).
		Msg("Refresh cycle completed")

	e.notify(UpdateRefreshCompleted, RefreshOutcome{Trigger: trigger, Result: result})

	return errors.Join(errs...)
}

func cycleResult(fetched, failed int) string {
	switch {
	case failed == 0 && fetched == 0:
		return "skipped"
	case failed == 0:
		return "success"
	case fetched == 0:
		return "failure"
	default:
		return "partial"
	}
}

func sessionAppID(s *models.GameSession) int {
	if s == nil {
		return 0
	}
	return s.AppID
}
