// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Questlog server: tracks the running Steam game, keeps achievement and
// stat snapshots fresh, aggregates library-wide progress, and serves it
// all over a JSON API with WebSocket push.
//
// The process runs three supervised services: the refresh scheduler, the
// WebSocket hub, and the HTTP server. The supervisor restarts a crashed
// service with backoff; SIGINT or SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/questlog-app/questlog/internal/api"
	"github.com/questlog-app/questlog/internal/cache"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/detect"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/settings"
	"github.com/questlog-app/questlog/internal/steam"
	"github.com/questlog-app/questlog/internal/supervisor"
	"github.com/questlog-app/questlog/internal/supervisor/services"
	"github.com/questlog-app/questlog/internal/tracker"
	ws "github.com/questlog-app/questlog/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Bool("detect_enabled", cfg.Detect.Enabled).
		Msg("Starting Questlog")

	// Persistent cache for app details and progress snapshots.
	badgerOpts := badger.DefaultOptions(cfg.Cache.Path).WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("Failed to open cache database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache database")
		}
	}()
	cacheStore := cache.NewStore(db, cfg.Cache.AppDetailsTTL, cfg.Cache.ProgressTTL)
	if n, err := cacheStore.Count(); err == nil {
		logging.Info().Int("entries", n).Str("path", cfg.Cache.Path).Msg("Cache database opened")
	}

	settingsStore := settings.NewStore(cfg.Settings.Path)
	if err := settingsStore.Load(); err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Settings.Path).Msg("Failed to load settings")
	}

	client := steam.NewClient(&cfg.Steam)
	breaker := steam.NewCircuitBreakerClient(client)

	detector := detect.New(detect.Config{
		ShmDir:       cfg.Detect.ShmDir,
		ProcDir:      cfg.Detect.ProcDir,
		HomeDir:      cfg.Detect.HomeDir,
		PollInterval: cfg.Detect.PollInterval,
	})

	// With detection disabled the provider never scans local state; only
	// the test-game override can produce a session. The detector itself is
	// still used for the Steam user fallback below.
	var gameDetector steam.Detector
	if cfg.Detect.Enabled {
		gameDetector = detector
	}

	provider := steam.NewProvider(breaker, gameDetector, settingsStore, cacheStore, cfg)
	seedCredentials(provider, settingsStore, cfg, detector)

	engine := tracker.NewEngine(provider, cfg.Refresh.RecentLimit)
	scheduler := tracker.NewScheduler(engine, schedulerConfig(settingsStore, cfg))

	// Engine updates fan out to WebSocket clients; update kinds map 1:1
	// onto hub message types.
	wsHub := ws.NewHub()
	engine.OnUpdate(updateFanout(wsHub))

	handler := api.NewHandler(engine, scheduler, provider, settingsStore, cfg, wsHub)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server)))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// sutureslog wants slog; the adapter bridges to zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddEngineService(services.NewSchedulerService(scheduler))
	tree.AddEngineService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Questlog stopped gracefully")
}

// credentialSink is the provider surface seedCredentials writes to.
type credentialSink interface {
	SetCredentials(apiKey, steamID string)
}

// userDetector resolves the logged-in Steam user from local state.
type userDetector interface {
	CurrentUser() string
}

// seedCredentials applies stored Steam credentials to the provider.
// Settings saved through the API win over config supplied values, so a
// key entered in the UI survives restarts regardless of environment.
// When neither source names a user, the detector reads the logged-in
// account from Steam's local registry.
func seedCredentials(provider credentialSink, store *settings.Store, cfg *config.Config, detector userDetector) {
	saved := store.Get()

	apiKey := saved.SteamAPIKey
	if apiKey == "" {
		apiKey = cfg.Steam.APIKey
	}
	steamID := saved.SteamUserID
	if steamID == "" {
		steamID = cfg.Steam.SteamID
	}
	if steamID == "" && detector != nil {
		steamID = detector.CurrentUser()
	}

	if apiKey != "" && steamID != "" {
		provider.SetCredentials(apiKey, steamID)
		logging.Info().Str("steam_id", steamID).Msg("Steam credentials configured")
		return
	}
	logging.Warn().Msg("Steam credentials not configured; set them via POST /api/v1/settings/api-key")
}

// updateBroadcaster is the hub surface the engine fanout writes to.
type updateBroadcaster interface {
	Broadcast(messageType string, data interface{})
	BroadcastRefreshCompleted(trigger, result string)
}

// updateFanout bridges engine update notifications onto the WebSocket hub.
// Refresh completions go through the dedicated broadcast so clients get
// the timestamped payload; everything else passes through by kind.
func updateFanout(hub updateBroadcaster) func(kind string, payload interface{}) {
	return func(kind string, payload interface{}) {
		if outcome, ok := payload.(tracker.RefreshOutcome); ok && kind == tracker.UpdateRefreshCompleted {
			hub.BroadcastRefreshCompleted(outcome.Trigger, outcome.Result)
			return
		}
		hub.Broadcast(kind, payload)
	}
}

// schedulerConfig derives the refresh schedule: config supplies the
// baseline, the user-mutable settings file overrides it.
func schedulerConfig(store *settings.Store, cfg *config.Config) tracker.SchedulerConfig {
	saved := store.Get()

	interval := time.Duration(saved.RefreshInterval) * time.Second
	if interval <= 0 {
		interval = cfg.Refresh.Interval
	}

	return tracker.SchedulerConfig{
		Enabled:  cfg.Refresh.Enabled && saved.AutoRefresh,
		Interval: interval,
	}
}
