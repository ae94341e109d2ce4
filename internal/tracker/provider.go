// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package tracker is the core achievement engine: it polls the active game,
// keeps the latest achievement and stat snapshots, schedules periodic
// refreshes, applies user-selected views, and caches library-wide progress.
// All external data flows through the Provider interface so the engine can
// be tested against a fake with no network dependency.
package tracker

import (
	"context"

	"github.com/questlog-app/questlog/internal/models"
)

// Provider is the abstract data source the engine queries. Each call is an
// opaque remote operation that either resolves with a value or fails; the
// engine assumes no ordering or atomicity across calls.
//
// Data-level failures (missing credential, game without stats) arrive as a
// populated Error field inside the payload, not as a Go error. Go errors
// mean the provider itself was unreachable.
type Provider interface {
	// CurrentGame returns the running game, or (nil, nil) when no game is
	// detected.
	CurrentGame(ctx context.Context) (*models.GameSession, error)

	// Achievements returns the merged achievement set for an app.
	Achievements(ctx context.Context, appID int) (*models.AchievementSet, error)

	// GameStats returns the numeric stat map for an app.
	GameStats(ctx context.Context, appID int) (*models.GameStats, error)

	// RecentUnlocks returns up to limit achievements unlocked across
	// recently played games, most recent first.
	RecentUnlocks(ctx context.Context, limit int) ([]models.RecentUnlock, error)

	// OverallProgress returns the library-wide aggregation snapshot.
	// force bypasses the provider's cache.
	OverallProgress(ctx context.Context, force bool) (*models.OverallProgress, error)
}
