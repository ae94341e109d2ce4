// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
	"github.com/questlog-app/questlog/internal/models/steamapi"
)

// CircuitBreakerClient wraps a Steam client with the circuit breaker
// pattern, shedding load when Steam's API is unavailable or slow.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout calculations. Unit tests should exercise the wrapped client
// directly rather than waiting out breaker state transitions.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client with a circuit breaker.
// Configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client API) *CircuitBreakerClient {
	cbName := "steam-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a Steam API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// SetCredentials passes through to the wrapped client.
func (cbc *CircuitBreakerClient) SetCredentials(apiKey, steamID string) {
	cbc.client.SetCredentials(apiKey, steamID)
}

// ClearCredentials passes through to the wrapped client.
func (cbc *CircuitBreakerClient) ClearCredentials() {
	cbc.client.ClearCredentials()
}

// HasCredentials passes through to the wrapped client.
func (cbc *CircuitBreakerClient) HasCredentials() bool {
	return cbc.client.HasCredentials()
}

// GetOwnedGames retrieves the owned-game library with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetOwnedGames(ctx context.Context) (*steamapi.OwnedGamesResponse, error) {
	return castResult[steamapi.OwnedGamesResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetOwnedGames(ctx)
	}))
}

// GetRecentlyPlayedGames retrieves recently played games with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetRecentlyPlayedGames(ctx context.Context, count int) (*steamapi.RecentlyPlayedResponse, error) {
	return castResult[steamapi.RecentlyPlayedResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetRecentlyPlayedGames(ctx, count)
	}))
}

// GetPlayerAchievements retrieves player achievement state with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetPlayerAchievements(ctx context.Context, appID int) (*steamapi.PlayerAchievementsResponse, error) {
	return castResult[steamapi.PlayerAchievementsResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetPlayerAchievements(ctx, appID)
	}))
}

// GetUserStatsForGame retrieves player stats with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetUserStatsForGame(ctx context.Context, appID int) (*steamapi.UserStatsResponse, error) {
	return castResult[steamapi.UserStatsResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetUserStatsForGame(ctx, appID)
	}))
}

// GetSchemaForGame retrieves the game schema with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetSchemaForGame(ctx context.Context, appID int) (*steamapi.SchemaResponse, error) {
	return castResult[steamapi.SchemaResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetSchemaForGame(ctx, appID)
	}))
}

// GetGlobalAchievementPercentages retrieves global unlock rates with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetGlobalAchievementPercentages(ctx context.Context, appID int) (*steamapi.GlobalPercentagesResponse, error) {
	return castResult[steamapi.GlobalPercentagesResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetGlobalAchievementPercentages(ctx, appID)
	}))
}

// GetAppDetails retrieves Store metadata with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetAppDetails(ctx context.Context, appID int) (*steamapi.AppDetailsData, error) {
	return castResult[steamapi.AppDetailsData](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetAppDetails(ctx, appID)
	}))
}
