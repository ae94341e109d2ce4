// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package steam implements the Steam Web API and Store API client plus the
// data provider that merges raw Steam payloads into Questlog's domain types.
package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models/steamapi"
)

const (
	defaultAPIBaseURL   = "https://api.steampowered.com"
	defaultStoreBaseURL = "https://store.steampowered.com"

	// Retry handling for HTTP 429 responses.
	maxRetries     = 5
	retryBaseDelay = 1 * time.Second

	// Cap on response body read when extracting error details.
	maxErrorBodySize = 64 * 1024
)

// API is the Steam client surface consumed by the provider. The concrete
// Client and the circuit-breaker wrapper both satisfy it, as do test fakes.
type API interface {
	SetCredentials(apiKey, steamID string)
	ClearCredentials()
	HasCredentials() bool
	GetOwnedGames(ctx context.Context) (*steamapi.OwnedGamesResponse, error)
	GetRecentlyPlayedGames(ctx context.Context, count int) (*steamapi.RecentlyPlayedResponse, error)
	GetPlayerAchievements(ctx context.Context, appID int) (*steamapi.PlayerAchievementsResponse, error)
	GetUserStatsForGame(ctx context.Context, appID int) (*steamapi.UserStatsResponse, error)
	GetSchemaForGame(ctx context.Context, appID int) (*steamapi.SchemaResponse, error)
	GetGlobalAchievementPercentages(ctx context.Context, appID int) (*steamapi.GlobalPercentagesResponse, error)
	GetAppDetails(ctx context.Context, appID int) (*steamapi.AppDetailsData, error)
}

// Client is a rate-limited Steam Web API client. Credentials are mutable at
// runtime: the settings API may set or replace the key and user id while the
// server is running.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	apiBaseURL   string
	storeBaseURL string

	mu      sync.RWMutex
	apiKey  string
	steamID string
}

// NewClient creates a Steam client seeded with the configured credentials.
func NewClient(cfg *config.SteamConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		apiBaseURL:   defaultAPIBaseURL,
		storeBaseURL: defaultStoreBaseURL,
		apiKey:       cfg.APIKey,
		steamID:      cfg.SteamID,
	}
}

// SetBaseURLs overrides the Web API and Store API endpoints. Used by tests
// to point the client at a local fake server.
func (c *Client) SetBaseURLs(apiBase, storeBase string) {
	if apiBase != "" {
		c.apiBaseURL = apiBase
	}
	if storeBase != "" {
		c.storeBaseURL = storeBase
	}
}

// SetCredentials replaces the API key and Steam user id.
func (c *Client) SetCredentials(apiKey, steamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if apiKey != "" {
		c.apiKey = apiKey
	}
	if steamID != "" {
		c.steamID = steamID
	}
}

// ClearCredentials removes the stored API key and Steam user id.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = ""
	c.steamID = ""
}

// HasCredentials reports whether both the API key and Steam user id are set.
func (c *Client) HasCredentials() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != "" && c.steamID != ""
}

func (c *Client) credentials() (apiKey, steamID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.steamID
}

// doRequestWithRateLimit performs a GET with client-side rate limiting and
// retries on HTTP 429 using exponential backoff. The Retry-After header,
// when present and parseable as seconds, overrides the computed delay.
//
// Returns the response body and status code. Non-2xx statuses other than
// 429 are returned to the caller for endpoint-specific handling.
func (c *Client) doRequestWithRateLimit(ctx context.Context, endpoint, reqURL string) ([]byte, int, error) {
	start := time.Now()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if c.limiter.Tokens() < 1 {
			metrics.SteamRateLimitWaits.Inc()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordSteamRequest(endpoint, 0, time.Since(start))
			return nil, 0, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
			_ = resp.Body.Close()

			if attempt == maxRetries {
				metrics.RecordSteamRequest(endpoint, resp.StatusCode, time.Since(start))
				return nil, resp.StatusCode, fmt.Errorf("steam rate limited after %d retries", maxRetries)
			}

			delay := retryBaseDelay * time.Duration(1<<attempt)
			if retryAfter != "" {
				if secs, parseErr := strconv.Atoi(retryAfter); parseErr == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}

			metrics.SteamRequestRetries.WithLabelValues(endpoint).Inc()
			logging.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Steam API rate limited, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			metrics.RecordSteamRequest(endpoint, resp.StatusCode, time.Since(start))
			return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
		}
		if closeErr != nil {
			logging.Debug().Err(closeErr).Str("endpoint", endpoint).Msg("Failed to close response body")
		}

		metrics.RecordSteamRequest(endpoint, resp.StatusCode, time.Since(start))
		return body, resp.StatusCode, nil
	}

	return nil, 0, fmt.Errorf("steam request retries exhausted")
}

// apiRequest performs a Web API GET against the given interface path and
// decodes the JSON response into result. params must not include the key.
func (c *Client) apiRequest(ctx context.Context, endpoint, path string, params url.Values, result interface{}) error {
	reqURL := c.apiBaseURL + path + "?" + params.Encode()

	body, status, err := c.doRequestWithRateLimit(ctx, endpoint, reqURL)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}

// truncateBody trims a response body for inclusion in error messages.
func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// GetOwnedGames retrieves the full owned-game library with app info.
func (c *Client) GetOwnedGames(ctx context.Context) (*steamapi.OwnedGamesResponse, error) {
	apiKey, steamID := c.credentials()
	if apiKey == "" || steamID == "" {
		return nil, ErrNoCredentials
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamid", steamID)
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")

	var result steamapi.OwnedGamesResponse
	if err := c.apiRequest(ctx, "owned_games", "/IPlayerService/GetOwnedGames/v1/", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecentlyPlayedGames retrieves up to count recently played games.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, count int) (*steamapi.RecentlyPlayedResponse, error) {
	apiKey, steamID := c.credentials()
	if apiKey == "" || steamID == "" {
		return nil, ErrNoCredentials
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamid", steamID)
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var result steamapi.RecentlyPlayedResponse
	if err := c.apiRequest(ctx, "recently_played", "/IPlayerService/GetRecentlyPlayedGames/v1/", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPlayerAchievements retrieves the player's unlock state for one game.
//
// Steam answers HTTP 400 with a playerstats error payload for apps that have
// no achievement registration. That is a data-level condition, so the
// decoded payload is returned with Success=false rather than a Go error.
func (c *Client) GetPlayerAchievements(ctx context.Context, appID int) (*steamapi.PlayerAchievementsResponse, error) {
	apiKey, steamID := c.credentials()
	if apiKey == "" || steamID == "" {
		return nil, ErrNoCredentials
	}

	const endpoint = "player_achievements"
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamid", steamID)
	params.Set("appid", strconv.Itoa(appID))

	reqURL := c.apiBaseURL + "/ISteamUserStats/GetPlayerAchievements/v1/?" + params.Encode()
	body, status, err := c.doRequestWithRateLimit(ctx, endpoint, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	var result steamapi.PlayerAchievementsResponse
	if decodeErr := json.Unmarshal(body, &result); decodeErr != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
		}
		return nil, fmt.Errorf("%s: decode response: %w", endpoint, decodeErr)
	}

	if status != http.StatusOK && result.PlayerStats.Error == "" {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
	}
	return &result, nil
}

// GetUserStatsForGame retrieves the player's numeric stats for one game.
// Like GetPlayerAchievements, a 400 with an error payload is data-level.
func (c *Client) GetUserStatsForGame(ctx context.Context, appID int) (*steamapi.UserStatsResponse, error) {
	apiKey, steamID := c.credentials()
	if apiKey == "" || steamID == "" {
		return nil, ErrNoCredentials
	}

	const endpoint = "user_stats"
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("steamid", steamID)
	params.Set("appid", strconv.Itoa(appID))

	reqURL := c.apiBaseURL + "/ISteamUserStats/GetUserStatsForGame/v2/?" + params.Encode()
	body, status, err := c.doRequestWithRateLimit(ctx, endpoint, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	var result steamapi.UserStatsResponse
	if decodeErr := json.Unmarshal(body, &result); decodeErr != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
		}
		return nil, fmt.Errorf("%s: decode response: %w", endpoint, decodeErr)
	}

	if status != http.StatusOK && result.PlayerStats.Error == "" {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
	}
	return &result, nil
}

// GetSchemaForGame retrieves the achievement and stat schema for one game.
func (c *Client) GetSchemaForGame(ctx context.Context, appID int) (*steamapi.SchemaResponse, error) {
	apiKey, _ := c.credentials()
	if apiKey == "" {
		return nil, ErrNoCredentials
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("appid", strconv.Itoa(appID))

	var result steamapi.SchemaResponse
	if err := c.apiRequest(ctx, "game_schema", "/ISteamUserStats/GetSchemaForGame/v2/", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGlobalAchievementPercentages retrieves global unlock percentages for
// one game. This endpoint needs no credentials.
func (c *Client) GetGlobalAchievementPercentages(ctx context.Context, appID int) (*steamapi.GlobalPercentagesResponse, error) {
	params := url.Values{}
	params.Set("gameid", strconv.Itoa(appID))

	var result steamapi.GlobalPercentagesResponse
	if err := c.apiRequest(ctx, "global_percentages", "/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAppDetails retrieves Store metadata for one app. The Store endpoint
// returns a map keyed by the stringified app id with a per-entry success
// flag; a false flag (delisted or region-locked app) is an error here since
// there is no usable data to return.
func (c *Client) GetAppDetails(ctx context.Context, appID int) (*steamapi.AppDetailsData, error) {
	const endpoint = "app_details"
	params := url.Values{}
	params.Set("appids", strconv.Itoa(appID))

	reqURL := c.storeBaseURL + "/api/appdetails?" + params.Encode()
	body, status, err := c.doRequestWithRateLimit(ctx, endpoint, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", endpoint, status, truncateBody(body))
	}

	var envelope map[string]steamapi.AppDetailsEntry
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", endpoint, err)
	}

	entry, ok := envelope[strconv.Itoa(appID)]
	if !ok || !entry.Success {
		return nil, fmt.Errorf("%s: no store data for app %d", endpoint, appID)
	}
	data := entry.Data
	return &data, nil
}
