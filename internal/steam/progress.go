// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/questlog-app/questlog/internal/cache"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/models/steamapi"
)

// OverallProgress computes the library-wide achievement aggregate: totals,
// unlocked counts, average per-game completion, and perfect games.
//
// Unless force is set, a persisted snapshot is reused when the owned-game
// count has not drifted beyond the configured tolerance; library growth of
// a few titles does not meaningfully move the aggregate, while a full
// recompute walks every game with community-visible stats.
func (p *Provider) OverallProgress(ctx context.Context, force bool) (*models.OverallProgress, error) {
	if !p.api.HasCredentials() {
		return &models.OverallProgress{Error: msgNoCredentials}, nil
	}

	owned, err := p.api.GetOwnedGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch owned games: %w", err)
	}
	gameCount := owned.Response.GameCount

	steamID := p.currentSteamID()
	if !force && p.store != nil {
		cached, err := p.store.GetProgress(steamID)
		switch {
		case err == nil:
			drift := cached.TotalGames - gameCount
			if drift < 0 {
				drift = -drift
			}
			if drift <= p.countTolerance {
				metrics.RecordCacheHit("progress")
				return cached, nil
			}
			logging.Info().
				Int("cached_games", cached.TotalGames).
				Int("current_games", gameCount).
				Msg("Progress snapshot stale, recomputing")
		case errors.Is(err, cache.ErrNotFound):
		default:
			logging.Warn().Err(err).Msg("Progress cache read failed")
		}
	}
	metrics.RecordCacheMiss("progress")

	start := time.Now()
	progress, err := p.computeProgress(ctx, owned.Response.Games, gameCount)
	if err != nil {
		return nil, err
	}
	metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	metrics.AggregationGamesProcessed.Observe(float64(progress.ProcessedGames))

	if p.store != nil {
		if err := p.store.SetProgress(steamID, progress); err != nil {
			logging.Warn().Err(err).Msg("Progress cache write failed")
		}
	}
	return progress, nil
}

// gameProgress is one game's contribution to the aggregate.
type gameProgress struct {
	total    int
	unlocked int
	perfect  *models.PerfectGame
}

// computeProgress walks every owned game with community-visible stats and
// sums their achievement state with bounded concurrency. Games whose
// achievement fetch fails (Go error or payload error) are skipped; the
// aggregate reflects the games that answered.
func (p *Provider) computeProgress(ctx context.Context, games []steamapi.OwnedGame, gameCount int) (*models.OverallProgress, error) {
	candidates := make([]steamapi.OwnedGame, 0, len(games))
	for _, g := range games {
		if g.HasCommunityVisibleStats {
			candidates = append(candidates, g)
		}
	}

	var (
		mu      sync.Mutex
		results []gameProgress
	)

	var g errgroup.Group
	g.SetLimit(p.maxGames)

	for _, game := range candidates {
		game := game
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			resp, err := p.api.GetPlayerAchievements(ctx, game.AppID)
			if err != nil {
				logging.Debug().Err(err).Int("app_id", game.AppID).Msg("Skipping game in progress aggregation")
				return nil
			}
			if resp.PlayerStats.Error != "" || len(resp.PlayerStats.Achievements) == 0 {
				return nil
			}

			gp := gameProgress{total: len(resp.PlayerStats.Achievements)}
			for _, a := range resp.PlayerStats.Achievements {
				if a.Achieved == 1 {
					gp.unlocked++
				}
			}

			if gp.unlocked == gp.total {
				perfect := &models.PerfectGame{
					AppID:             game.AppID,
					Name:              game.Name,
					TotalAchievements: gp.total,
					PlaytimeForever:   game.PlaytimeForever,
				}
				if details, err := p.appDetails(ctx, game.AppID); err == nil {
					perfect.HeaderImage = details.HeaderImage
				}
				gp.perfect = perfect
			}

			mu.Lock()
			results = append(results, gp)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate progress: %w", err)
	}

	progress := &models.OverallProgress{
		TotalGames:     gameCount,
		ProcessedGames: len(results),
		LastUpdated:    time.Now().Unix(),
		PerfectGames:   []models.PerfectGame{},
	}

	var completionSum float64
	for _, r := range results {
		progress.GamesWithAchievements++
		progress.TotalAchievements += r.total
		progress.UnlockedAchievements += r.unlocked
		completionSum += float64(r.unlocked) / float64(r.total) * 100
		if r.perfect != nil {
			progress.PerfectGames = append(progress.PerfectGames, *r.perfect)
		}
	}
	if progress.GamesWithAchievements > 0 {
		progress.AverageCompletion = math.Round(completionSum/float64(progress.GamesWithAchievements)*10) / 10
	}

	sort.Slice(progress.PerfectGames, func(i, j int) bool {
		return progress.PerfectGames[i].AppID < progress.PerfectGames[j].AppID
	})
	progress.PerfectGamesCount = len(progress.PerfectGames)

	return progress, nil
}
