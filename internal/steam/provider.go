// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/questlog-app/questlog/internal/cache"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/models/steamapi"
	"github.com/questlog-app/questlog/internal/settings"
	"github.com/questlog-app/questlog/internal/tracker"
)

var _ tracker.Provider = (*Provider)(nil)

// msgNoCredentials is the payload-carried error for operations attempted
// before a Steam API key and user id are configured.
const msgNoCredentials = "Steam API key or user id not configured"

// Detector reports the currently running game, if any. Satisfied by
// detect.Detector; tests substitute fakes.
type Detector interface {
	RunningAppID() (appID int, source string)
}

// Provider merges Steam Web API and Store API data into Questlog's domain
// types. It implements tracker.Provider.
//
// Error discipline: a Go error means Steam was unreachable or the response
// was undecodable. Data-level conditions (missing credentials, a game with
// no achievement schema, a private profile) arrive as payload Error fields
// on the returned value.
type Provider struct {
	api      API
	detector Detector
	settings *settings.Store
	store    *cache.Store

	// achievementCache holds merged *models.AchievementSet per app.
	// schemaCache holds raw schema and global-percentage payloads, which
	// change far less often than unlock state.
	achievementCache *cache.LRUCache
	schemaCache      *cache.LRUCache

	maxConcurrent  int
	maxGames       int
	countTolerance int

	mu      sync.RWMutex
	steamID string
}

// NewProvider assembles a provider from its collaborators. The steam id
// seed from config may later be replaced through SetCredentials.
func NewProvider(api API, detector Detector, settingsStore *settings.Store, store *cache.Store, cfg *config.Config) *Provider {
	achTTL := cfg.Cache.AchievementTTL
	if achTTL <= 0 {
		achTTL = 5 * time.Minute
	}
	schemaTTL := cfg.Cache.SchemaTTL
	if schemaTTL <= 0 {
		schemaTTL = time.Hour
	}
	capacity := cfg.Cache.MemoryCapacity
	if capacity <= 0 {
		capacity = 1000
	}

	maxConcurrent := cfg.Steam.MaxConcurrentRequests
	if maxConcurrent < 1 {
		maxConcurrent = 6
	}
	maxGames := cfg.Aggregate.MaxConcurrentGames
	if maxGames < 1 {
		maxGames = 20
	}
	tolerance := cfg.Aggregate.GameCountTolerance
	if tolerance < 0 {
		tolerance = 5
	}

	return &Provider{
		api:              api,
		detector:         detector,
		settings:         settingsStore,
		store:            store,
		achievementCache: cache.NewLRUCache(capacity, achTTL),
		schemaCache:      cache.NewLRUCache(capacity, schemaTTL),
		maxConcurrent:    maxConcurrent,
		maxGames:         maxGames,
		countTolerance:   tolerance,
		steamID:          cfg.Steam.SteamID,
	}
}

// SetCredentials updates the Steam credentials on the underlying client.
// When the user changes, the per-user achievement cache and the previous
// user's persisted progress snapshot are dropped, since both are scoped to
// the account.
func (p *Provider) SetCredentials(apiKey, steamID string) {
	p.api.SetCredentials(apiKey, steamID)
	if steamID == "" {
		return
	}

	p.mu.Lock()
	previous := p.steamID
	p.steamID = steamID
	p.mu.Unlock()

	if previous != steamID {
		p.achievementCache.Clear()
		p.dropProgressSnapshot(previous)
	}
}

// ClearCredentials removes the stored credentials and drops the per-user
// achievement cache and progress snapshot.
func (p *Provider) ClearCredentials() {
	p.api.ClearCredentials()
	p.mu.Lock()
	previous := p.steamID
	p.steamID = ""
	p.mu.Unlock()

	p.achievementCache.Clear()
	p.dropProgressSnapshot(previous)
}

// HasCredentials reports whether the underlying client has credentials set.
func (p *Provider) HasCredentials() bool {
	return p.api.HasCredentials()
}

func (p *Provider) dropProgressSnapshot(steamID string) {
	if p.store == nil || steamID == "" {
		return
	}
	if err := p.store.InvalidateProgress(steamID); err != nil {
		logging.Warn().Err(err).Str("steam_id", steamID).Msg("Progress snapshot invalidation failed")
	}
}

func (p *Provider) currentSteamID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.steamID
}

// CurrentGame resolves the active game. A configured test app id takes
// priority over local detection; (nil, nil) means no game is running.
func (p *Provider) CurrentGame(ctx context.Context) (*models.GameSession, error) {
	if p.settings != nil {
		if s := p.settings.Get(); s.TestAppID > 0 {
			return p.buildSession(ctx, s.TestAppID, true), nil
		}
	}

	if p.detector == nil {
		return nil, nil
	}
	appID, _ := p.detector.RunningAppID()
	if appID == 0 {
		return nil, nil
	}
	return p.buildSession(ctx, appID, false), nil
}

// buildSession fills a GameSession from cached store metadata. Store
// lookups are best-effort: a delisted app still yields a usable session.
func (p *Provider) buildSession(ctx context.Context, appID int, testOverride bool) *models.GameSession {
	session := &models.GameSession{
		AppID:   appID,
		Name:    fmt.Sprintf("App %d", appID),
		Running: true,
	}

	details, err := p.appDetails(ctx, appID)
	if err != nil {
		logging.Debug().Err(err).Int("app_id", appID).Msg("No store details for running game")
	} else {
		if details.Name != "" {
			session.Name = details.Name
		}
		session.HeaderImage = details.HeaderImage
		if details.Achievements != nil && details.Achievements.Total > 0 {
			session.HasAchievements = true
			session.AchievementCount = details.Achievements.Total
		}
	}

	if testOverride {
		session.Name = "[TEST] " + session.Name
	}
	return session
}

// GameStats fetches the player's numeric stats for one game.
func (p *Provider) GameStats(ctx context.Context, appID int) (*models.GameStats, error) {
	if !p.api.HasCredentials() {
		return &models.GameStats{AppID: appID, Error: msgNoCredentials}, nil
	}

	resp, err := p.api.GetUserStatsForGame(ctx, appID)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return &models.GameStats{AppID: appID, Error: msgNoCredentials}, nil
		}
		return nil, fmt.Errorf("fetch stats for app %d: %w", appID, err)
	}

	if resp.PlayerStats.Error != "" {
		return &models.GameStats{AppID: appID, Error: resp.PlayerStats.Error}, nil
	}

	stats := make(map[string]float64, len(resp.PlayerStats.Stats))
	for _, s := range resp.PlayerStats.Stats {
		stats[s.Name] = s.Value
	}
	return &models.GameStats{AppID: appID, Stats: stats}, nil
}

// appDetails returns Store metadata for an app, consulting the persistent
// cache before the Store API.
func (p *Provider) appDetails(ctx context.Context, appID int) (*steamapi.AppDetailsData, error) {
	if p.store != nil {
		if details, err := p.store.GetAppDetails(appID); err == nil {
			metrics.RecordCacheHit("appdetails")
			return details, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			logging.Warn().Err(err).Int("app_id", appID).Msg("App details cache read failed")
		}
	}

	metrics.RecordCacheMiss("appdetails")
	details, err := p.api.GetAppDetails(ctx, appID)
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		if err := p.store.SetAppDetails(appID, details); err != nil {
			logging.Warn().Err(err).Int("app_id", appID).Msg("App details cache write failed")
		}
	}
	return details, nil
}

// InvalidateApp drops all cached data for one app: the merged achievement
// set, the schema payloads, and the persisted store metadata.
func (p *Provider) InvalidateApp(appID int) error {
	p.achievementCache.Remove(achievementCacheKey(appID))
	p.schemaCache.Remove(schemaCacheKey(appID))
	p.schemaCache.Remove(percentCacheKey(appID))
	if p.store == nil {
		return nil
	}
	return p.store.InvalidateApp(appID)
}

// InvalidateAll clears every cache layer, including the persisted progress
// snapshot.
func (p *Provider) InvalidateAll() error {
	p.achievementCache.Clear()
	p.schemaCache.Clear()
	if p.store == nil {
		return nil
	}
	return p.store.Clear()
}

func achievementCacheKey(appID int) string { return "ach:" + strconv.Itoa(appID) }
func schemaCacheKey(appID int) string      { return "schema:" + strconv.Itoa(appID) }
func percentCacheKey(appID int) string     { return "pct:" + strconv.Itoa(appID) }
