// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/questlog-app/questlog/internal/logging"
)

// SchedulerConfig configures the periodic refresh schedule.
type SchedulerConfig struct {
	// Enabled controls whether periodic cycles run at all.
	Enabled bool

	// Interval is the delay between periodic refresh cycles.
	Interval time.Duration
}

// DefaultSchedulerConfig returns production defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:  true,
		Interval: 30 * time.Second,
	}
}

// Scheduler drives periodic refresh cycles against the engine. It holds
// at most one active timer: Reconfigure stops the current timer before a
// replacement starts, so interval or enabled-flag changes never leave a
// duplicate schedule behind, and no cycle fires after Stop returns.
type Scheduler struct {
	engine *Engine

	// Runtime state
	mu       sync.RWMutex
	config   SchedulerConfig
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	reconfigChan chan SchedulerConfig
}

// NewScheduler creates a scheduler for the engine.
func NewScheduler(engine *Engine, config SchedulerConfig) *Scheduler {
	if config.Interval < time.Second {
		config.Interval = time.Second
	}
	return &Scheduler{
		engine:       engine,
		config:       config,
		stopChan:     make(chan struct{}),
		reconfigChan: make(chan SchedulerConfig, 1),
	}
}

// Start begins the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopChan = make(chan struct{})
	config := s.config
	s.mu.Unlock()

	logging.Info().
		Bool("enabled", config.Enabled).
		Dur("interval", config.Interval).
		Msg("Starting refresh scheduler")

	s.wg.Add(1)
	go s.runLoop(ctx, config)

	return nil
}

// Serve implements suture.Service for supervisor integration.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	s.Stop()

	return ctx.Err()
}

// Stop cancels the schedule. No cycle fires after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info().Msg("[scheduler] Refresh scheduler stopped")
}

// IsRunning returns whether the scheduling loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Config returns the current schedule configuration.
func (s *Scheduler) Config() SchedulerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Reconfigure replaces the schedule. The running loop stops its current
// timer before arming the new one. Safe to call whether or not the loop
// is running.
func (s *Scheduler) Reconfigure(config SchedulerConfig) {
	if config.Interval < time.Second {
		config.Interval = time.Second
	}

	s.mu.Lock()
	s.config = config
	running := s.running
	s.mu.Unlock()

	if !running {
		return
	}

	// Collapse bursts of reconfigures; only the latest matters.
	select {
	case s.reconfigChan <- config:
	default:
		select {
		case <-s.reconfigChan:
		default:
		}
		s.reconfigChan <- config
	}
}

// Refresh runs one manual cycle immediately in the caller's goroutine,
// independent of the periodic timer.
func (s *Scheduler) Refresh(ctx context.Context) error {
	return s.engine.RefreshCycle(ctx, "manual")
}

// runLoop owns the periodic timer. The timer is stopped before any
// replacement is created, and always stopped on exit.
func (s *Scheduler) runLoop(ctx context.Context, config SchedulerConfig) {
	defer s.wg.Done()

	var ticker *time.Ticker
	var tick <-chan time.Time

	arm := func(cfg SchedulerConfig) {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
		if cfg.Enabled {
			ticker = time.NewTicker(cfg.Interval)
			tick = ticker.C
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	arm(config)

	if config.Enabled {
		s.cycle(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("[scheduler] Context canceled, stopping")
			return
		case <-s.stopChan:
			logging.Info().Msg("[scheduler] Stop signal received")
			return
		case cfg := <-s.reconfigChan:
			logging.Info().
				Bool("enabled", cfg.Enabled).
				Dur("interval", cfg.Interval).
				Msg("Rescheduling refresh timer")
			arm(cfg)
		case <-tick:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if err := s.engine.RefreshCycle(ctx, "periodic"); err != nil {
		logging.Warn().Err(err).Msg("Refresh cycle finished with errors")
	}
}
