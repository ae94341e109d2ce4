// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/models"
	"github.com/questlog-app/questlog/internal/settings"
	"github.com/questlog-app/questlog/internal/steam"
	"github.com/questlog-app/questlog/internal/tracker"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// stubDataProvider is an in-memory tracker.Provider backing the engine in
// handler tests.
type stubDataProvider struct {
	mu sync.Mutex

	session    *models.GameSession
	sessionErr error

	achievements    map[int]*models.AchievementSet
	achievementsErr error

	stats    map[int]*models.GameStats
	statsErr error

	recent          []models.RecentUnlock
	recentErr       error
	lastRecentLimit int

	progress      *models.OverallProgress
	progressErr   error
	progressCalls int
}

func newStubDataProvider() *stubDataProvider {
	return &stubDataProvider{
		achievements: map[int]*models.AchievementSet{},
		stats:        map[int]*models.GameStats{},
		progress:     &models.OverallProgress{TotalGames: 1},
	}
}

func (p *stubDataProvider) CurrentGame(ctx context.Context) (*models.GameSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.session, nil
}

func (p *stubDataProvider) Achievements(ctx context.Context, appID int) (*models.AchievementSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.achievementsErr != nil {
		return nil, p.achievementsErr
	}
	if set, ok := p.achievements[appID]; ok {
		return set, nil
	}
	return &models.AchievementSet{AppID: appID, Error: "no achievements"}, nil
}

func (p *stubDataProvider) GameStats(ctx context.Context, appID int) (*models.GameStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statsErr != nil {
		return nil, p.statsErr
	}
	if stats, ok := p.stats[appID]; ok {
		return stats, nil
	}
	return &models.GameStats{AppID: appID, Error: "no stats"}, nil
}

func (p *stubDataProvider) RecentUnlocks(ctx context.Context, limit int) ([]models.RecentUnlock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRecentLimit = limit
	if p.recentErr != nil {
		return nil, p.recentErr
	}
	if len(p.recent) > limit {
		return p.recent[:limit], nil
	}
	return p.recent, nil
}

func (p *stubDataProvider) OverallProgress(ctx context.Context, force bool) (*models.OverallProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressCalls++
	if p.progressErr != nil {
		return nil, p.progressErr
	}
	return p.progress, nil
}

// stubAdminProvider is an in-memory api.Provider recording credential and
// cache operations.
type stubAdminProvider struct {
	mu sync.Mutex

	apiKey  string
	steamID string

	invalidatedApps []int
	invalidatedAll  int
	invalidateErr   error
}

func (p *stubAdminProvider) SetCredentials(apiKey, steamID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = apiKey
	p.steamID = steamID
}

func (p *stubAdminProvider) ClearCredentials() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = ""
	p.steamID = ""
}

func (p *stubAdminProvider) HasCredentials() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apiKey != "" && p.steamID != ""
}

func (p *stubAdminProvider) InvalidateApp(appID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.invalidateErr != nil {
		return p.invalidateErr
	}
	p.invalidatedApps = append(p.invalidatedApps, appID)
	return nil
}

func (p *stubAdminProvider) InvalidateAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.invalidateErr != nil {
		return p.invalidateErr
	}
	p.invalidatedAll++
	return nil
}

// testHarness bundles the handler with its collaborators so tests can
// reach behind the HTTP surface.
type testHarness struct {
	handler   *Handler
	engine    *tracker.Engine
	scheduler *tracker.Scheduler
	data      *stubDataProvider
	admin     *stubAdminProvider
	settings  *settings.Store
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	data := newStubDataProvider()
	engine := tracker.NewEngine(data, 10)
	scheduler := tracker.NewScheduler(engine, tracker.SchedulerConfig{Enabled: false, Interval: time.Minute})

	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	if err := store.Load(); err != nil {
		t.Fatalf("load settings: %v", err)
	}

	admin := &stubAdminProvider{apiKey: "k", steamID: "s"}
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}

	return &testHarness{
		handler:   NewHandler(engine, scheduler, admin, store, cfg, nil),
		engine:    engine,
		scheduler: scheduler,
		data:      data,
		admin:     admin,
		settings:  store,
	}
}

// envelope mirrors models.APIResponse with a raw data payload so each test
// decodes data into the shape it expects.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func TestSession_NoActiveGame(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.Session(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Errorf("status = %q, want success", env.Status)
	}
	if string(env.Data) != "null" {
		t.Errorf("data = %s, want null", env.Data)
	}
}

func TestSession_ActiveGame(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.session = &models.GameSession{AppID: 620, Name: "Portal 2", Running: true}
	if err := h.engine.RefreshCycle(context.Background(), "periodic"); err != nil {
		t.Fatalf("refresh cycle: %v", err)
	}

	rec := httptest.NewRecorder()
	h.handler.Session(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	var session models.GameSession
	decodeData(t, decodeEnvelope(t, rec), &session)
	if session.AppID != 620 || !session.Running {
		t.Errorf("session = %+v, want app 620 running", session)
	}
}

func TestAchievements_ExplicitApp(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.achievements[220] = &models.AchievementSet{
		AppID: 220,
		Achievements: []models.Achievement{
			{APIName: "HL2_A", Unlocked: true, UnlockTime: 200},
			{APIName: "HL2_B", Unlocked: true, UnlockTime: 100},
			{APIName: "HL2_C"},
		},
	}

	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?app_id=220", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var view models.AchievementSetView
	decodeData(t, decodeEnvelope(t, rec), &view)
	if view.AppID != 220 || view.Total != 3 || view.Unlocked != 2 || view.Remaining != 1 {
		t.Errorf("view = %+v", view)
	}
	if view.Percentage < 66.6 || view.Percentage > 66.7 {
		t.Errorf("percentage = %v, want ~66.67", view.Percentage)
	}
	// Default sort is unlocked-first, newest unlock first.
	if view.Achievements[0].APIName != "HL2_A" || view.Achievements[2].APIName != "HL2_C" {
		t.Errorf("order = %v", view.Achievements)
	}
}

func TestAchievements_NegativeAppID(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?app_id=-1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeValidationError {
		t.Errorf("error = %+v, want %s", env.Error, codeValidationError)
	}
}

func TestAchievements_NoSnapshot(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeNotFound {
		t.Errorf("error = %+v, want %s", env.Error, codeNotFound)
	}
}

func TestAchievements_ProviderError(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.achievementsErr = errors.New("steam api: 503")

	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?app_id=220", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeProviderError {
		t.Errorf("error = %+v, want %s", env.Error, codeProviderError)
	}
}

func TestAchievements_PayloadErrorStaysSuccess(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.achievements[10] = &models.AchievementSet{AppID: 10, Error: "profile is private"}

	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?app_id=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var view models.AchievementSetView
	decodeData(t, decodeEnvelope(t, rec), &view)
	if view.Error != "profile is private" {
		t.Errorf("payload error = %q", view.Error)
	}
}

func TestAchievements_InvalidViewParams(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)

	for _, query := range []string{"sort=alphabetical", "rarity_ceiling=150", "rarity_ceiling=-5"} {
		rec := httptest.NewRecorder()
		h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestAchievements_RarityCeilingFilters(t *testing.T) {
	t.Parallel()

	rare := 3.2
	common := 81.5
	h := newTestHarness(t)
	h.data.achievements[220] = &models.AchievementSet{
		AppID: 220,
		Achievements: []models.Achievement{
			{APIName: "RARE", GlobalPercent: &rare},
			{APIName: "COMMON", GlobalPercent: &common},
		},
	}

	rec := httptest.NewRecorder()
	h.handler.Achievements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/achievements?app_id=220&rarity_ceiling=10", nil))

	var view models.AchievementSetView
	decodeData(t, decodeEnvelope(t, rec), &view)
	if len(view.Achievements) != 1 || view.Achievements[0].APIName != "RARE" {
		t.Errorf("filtered achievements = %+v", view.Achievements)
	}
	// Totals describe the full set, not the filtered view.
	if view.Total != 2 {
		t.Errorf("total = %d, want 2", view.Total)
	}
}

func TestStats_ExplicitApp(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.stats[220] = &models.GameStats{AppID: 220, Stats: map[string]float64{"kills": 1337}}

	rec := httptest.NewRecorder()
	h.handler.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats?app_id=220", nil))

	var stats models.GameStats
	decodeData(t, decodeEnvelope(t, rec), &stats)
	if stats.Stats["kills"] != 1337 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStats_NoSnapshot(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRecent_LimitReachesProvider(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.recent = []models.RecentUnlock{
		{GameID: 1, AchievementName: "first", UnlockTime: 300},
		{GameID: 1, AchievementName: "second", UnlockTime: 200},
		{GameID: 2, AchievementName: "third", UnlockTime: 100},
	}

	rec := httptest.NewRecorder()
	h.handler.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recent?limit=2", nil))

	var unlocks []models.RecentUnlock
	decodeData(t, decodeEnvelope(t, rec), &unlocks)
	if len(unlocks) != 2 || unlocks[0].AchievementName != "first" {
		t.Errorf("unlocks = %+v", unlocks)
	}
	if got := h.data.lastRecentLimit; got != 2 {
		t.Errorf("provider limit = %d, want 2", got)
	}

	// A limit above the configured default is honored, not clamped to it.
	rec = httptest.NewRecorder()
	h.handler.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recent?limit=50", nil))

	decodeData(t, decodeEnvelope(t, rec), &unlocks)
	if len(unlocks) != 3 {
		t.Errorf("got %d unlocks, want all 3", len(unlocks))
	}
	if got := h.data.lastRecentLimit; got != 50 {
		t.Errorf("provider limit = %d, want 50", got)
	}
}

func TestRecent_NoCredentials(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.recentErr = steam.ErrNoCredentials

	rec := httptest.NewRecorder()
	h.handler.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recent", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeNotConfigured {
		t.Errorf("error = %+v, want %s", env.Error, codeNotConfigured)
	}
}

func TestRecent_ProviderError(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.recentErr = errors.New("timeout")

	rec := httptest.NewRecorder()
	h.handler.Recent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recent", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestProgress_ServesCachedSnapshot(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.progress = &models.OverallProgress{
		TotalGames:           12,
		TotalAchievements:    400,
		UnlockedAchievements: 123,
		PerfectGames:         []models.PerfectGame{{AppID: 620, Name: "Portal 2", TotalAchievements: 51}},
		PerfectGamesCount:    1,
	}

	rec := httptest.NewRecorder()
	h.handler.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))

	env := decodeEnvelope(t, rec)
	if !env.Metadata.Cached {
		t.Error("metadata.cached = false, want true")
	}
	var progress models.OverallProgress
	decodeData(t, env, &progress)
	if progress.TotalGames != 12 || progress.PerfectGamesCount != 1 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestProgress_ForceBypassesCache(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.engine.Progress(ctx, false); err != nil {
		t.Fatalf("warm progress: %v", err)
	}
	before := h.data.progressCalls

	rec := httptest.NewRecorder()
	h.handler.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress?refresh=true", nil))

	if env := decodeEnvelope(t, rec); env.Metadata.Cached {
		t.Error("metadata.cached = true, want false on forced refresh")
	}
	if h.data.progressCalls != before+1 {
		t.Errorf("provider calls = %d, want %d", h.data.progressCalls, before+1)
	}
}

func TestProgress_ProviderError(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.progressErr = errors.New("owned games fetch failed")

	rec := httptest.NewRecorder()
	h.handler.Progress(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestRefresh_NoBody(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.session = &models.GameSession{AppID: 220, Name: "Half-Life 2", Running: true}

	rec := httptest.NewRecorder()
	h.handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if session := h.engine.Session(); session == nil || session.AppID != 220 {
		t.Errorf("session after refresh = %+v", session)
	}
}

func TestRefresh_SwitchesActiveView(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	body := strings.NewReader(`{"view":"recent"}`)

	rec := httptest.NewRecorder()
	h.handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := h.engine.ActiveView(); got != tracker.ViewRecent {
		t.Errorf("active view = %q, want %q", got, tracker.ViewRecent)
	}

	var result map[string]interface{}
	decodeData(t, decodeEnvelope(t, rec), &result)
	if result["refreshed"] != true || result["view"] != "recent" {
		t.Errorf("result = %+v", result)
	}
}

func TestRefresh_InvalidView(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	body := strings.NewReader(`{"view":"leaderboard"}`)

	rec := httptest.NewRecorder()
	h.handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeValidationError {
		t.Errorf("error = %+v, want %s", env.Error, codeValidationError)
	}
}

func TestRefresh_ReportsPartialFailure(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.data.sessionErr = errors.New("detection failed")

	rec := httptest.NewRecorder()
	h.handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != codeProviderError {
		t.Errorf("error = %+v, want %s", env.Error, codeProviderError)
	}
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var data map[string]interface{}
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data["alive"] != true {
		t.Errorf("alive = %v", data["alive"])
	}
}

func TestHealthReady_SchedulerStopped(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Status != "not_ready" {
		t.Errorf("status = %q, want not_ready", env.Status)
	}
}

func TestHealthReady_SchedulerRunning(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	if err := h.scheduler.Start(context.Background()); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	defer h.scheduler.Stop()

	rec := httptest.NewRecorder()
	h.handler.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data map[string]interface{}
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data["scheduler_running"] != true {
		t.Errorf("scheduler_running = %v", data["scheduler_running"])
	}
	if data["credentials_configured"] != true {
		t.Errorf("credentials_configured = %v", data["credentials_configured"])
	}
}

func TestHealth_DegradedWhenSchedulerStopped(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	rec := httptest.NewRecorder()
	h.handler.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var data map[string]interface{}
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", data["status"])
	}
}
