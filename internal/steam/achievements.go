// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/models/steamapi"
)

// Achievements fetches and merges the achievement state for one game from
// three endpoints: the game schema (display data), the player's unlock
// state, and global unlock percentages. Results are cached briefly so that
// back-to-back refresh cycles and recent-unlock fan-outs do not refetch.
//
// Global percentages are best-effort: a failure there yields nil percents,
// never a failed set. Schema order is preserved in the merged set.
func (p *Provider) Achievements(ctx context.Context, appID int) (*models.AchievementSet, error) {
	if set, ok := p.achievementCache.Get(achievementCacheKey(appID)); ok {
		metrics.RecordCacheHit("achievements")
		return set.(*models.AchievementSet), nil
	}
	metrics.RecordCacheMiss("achievements")

	if !p.api.HasCredentials() {
		return &models.AchievementSet{AppID: appID, Error: msgNoCredentials}, nil
	}

	var (
		schema   *steamapi.SchemaResponse
		player   *steamapi.PlayerAchievementsResponse
		percents map[string]*float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	g.Go(func() error {
		var err error
		schema, err = p.gameSchema(gctx, appID)
		return err
	})
	g.Go(func() error {
		var err error
		player, err = p.api.GetPlayerAchievements(gctx, appID)
		return err
	})
	g.Go(func() error {
		percents = p.globalPercents(gctx, appID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch achievements for app %d: %w", appID, err)
	}

	if player.PlayerStats.Error != "" {
		return &models.AchievementSet{AppID: appID, Error: player.PlayerStats.Error}, nil
	}

	defs := schema.Game.AvailableGameStats.Achievements
	if len(defs) == 0 {
		return &models.AchievementSet{AppID: appID, Error: "game has no achievements"}, nil
	}

	unlocks := make(map[string]steamapi.PlayerAchievement, len(player.PlayerStats.Achievements))
	for _, a := range player.PlayerStats.Achievements {
		unlocks[a.APIName] = a
	}

	set := &models.AchievementSet{
		AppID:        appID,
		Total:        len(defs),
		Achievements: make([]models.Achievement, 0, len(defs)),
	}
	for _, def := range defs {
		ach := models.Achievement{
			APIName:       def.Name,
			DisplayName:   def.DisplayName,
			Description:   def.Description,
			Icon:          def.Icon,
			IconGray:      def.IconGray,
			Hidden:        def.Hidden == 1,
			GlobalPercent: percents[def.Name],
		}
		if state, ok := unlocks[def.Name]; ok && state.Achieved == 1 {
			ach.Unlocked = true
			if state.UnlockTime > 0 {
				ach.UnlockTime = state.UnlockTime
			}
			set.Unlocked++
		}
		set.Achievements = append(set.Achievements, ach)
	}

	p.achievementCache.Add(achievementCacheKey(appID), set)
	return set, nil
}

// gameSchema returns the achievement schema for an app, cached for the
// schema TTL. Schemas change only on game updates.
func (p *Provider) gameSchema(ctx context.Context, appID int) (*steamapi.SchemaResponse, error) {
	if cached, ok := p.schemaCache.Get(schemaCacheKey(appID)); ok {
		metrics.RecordCacheHit("schema")
		return cached.(*steamapi.SchemaResponse), nil
	}
	metrics.RecordCacheMiss("schema")

	schema, err := p.api.GetSchemaForGame(ctx, appID)
	if err != nil {
		return nil, err
	}
	p.schemaCache.Add(schemaCacheKey(appID), schema)
	return schema, nil
}

// globalPercents returns a name-to-percentage map for an app, or nil when
// the endpoint fails or a given achievement's value is unparseable. Unknown
// stays nil; it is never coerced to zero.
func (p *Provider) globalPercents(ctx context.Context, appID int) map[string]*float64 {
	if cached, ok := p.schemaCache.Get(percentCacheKey(appID)); ok {
		metrics.RecordCacheHit("global_percentages")
		return cached.(map[string]*float64)
	}
	metrics.RecordCacheMiss("global_percentages")

	resp, err := p.api.GetGlobalAchievementPercentages(ctx, appID)
	if err != nil {
		logging.Warn().Err(err).Int("app_id", appID).Msg("Global achievement percentages unavailable")
		return nil
	}

	percents := make(map[string]*float64, len(resp.AchievementPercentages.Achievements))
	for _, entry := range resp.AchievementPercentages.Achievements {
		percents[entry.Name] = entry.Percent.Ptr()
	}
	p.schemaCache.Add(percentCacheKey(appID), percents)
	return percents
}
