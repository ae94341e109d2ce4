// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/models"
)

// recentGamesWindow is how many recently played games are inspected for
// recent unlocks. Steam orders the window by recency already.
const recentGamesWindow = 10

// RecentUnlocks returns the most recent achievement unlocks across the
// player's recently played games, newest first, capped at limit.
//
// Per-game achievement failures are skipped rather than failing the whole
// result: a single private-stats game must not hide unlocks from the rest
// of the window.
func (p *Provider) RecentUnlocks(ctx context.Context, limit int) ([]models.RecentUnlock, error) {
	if !p.api.HasCredentials() {
		return nil, ErrNoCredentials
	}
	if limit <= 0 {
		limit = 10
	}

	recent, err := p.api.GetRecentlyPlayedGames(ctx, recentGamesWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch recently played games: %w", err)
	}

	var (
		mu      sync.Mutex
		unlocks []models.RecentUnlock
	)

	var g errgroup.Group
	g.SetLimit(p.maxConcurrent)

	for _, game := range recent.Response.Games {
		game := game
		g.Go(func() error {
			set, err := p.Achievements(ctx, game.AppID)
			if err != nil {
				logging.Debug().Err(err).Int("app_id", game.AppID).Msg("Skipping game in recent unlocks")
				return nil
			}
			if set.Error != "" {
				return nil
			}

			var collected []models.RecentUnlock
			for _, ach := range set.Achievements {
				if !ach.Unlocked || ach.UnlockTime <= 0 {
					continue
				}
				collected = append(collected, models.RecentUnlock{
					GameID:          game.AppID,
					GameName:        game.Name,
					AchievementName: ach.DisplayName,
					AchievementDesc: ach.Description,
					UnlockTime:      ach.UnlockTime,
					Icon:            ach.Icon,
					GlobalPercent:   ach.GlobalPercent,
				})
			}

			if len(collected) > 0 {
				mu.Lock()
				unlocks = append(unlocks, collected...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(unlocks, func(i, j int) bool {
		return unlocks[i].UnlockTime > unlocks[j].UnlockTime
	})
	if len(unlocks) > limit {
		unlocks = unlocks[:limit]
	}
	return unlocks, nil
}
