// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package services

import (
	"context"
)

// RefreshScheduler matches *tracker.Scheduler's Serve method without
// importing the tracker package.
type RefreshScheduler interface {
	Serve(ctx context.Context) error
}

// SchedulerService runs the periodic refresh scheduler under supervision.
// A panic inside a refresh cycle restarts the scheduler with a fresh timer
// while the HTTP layer keeps serving the held snapshots.
type SchedulerService struct {
	scheduler RefreshScheduler
	name      string
}

// NewSchedulerService wraps the refresh scheduler as a supervised service.
func NewSchedulerService(scheduler RefreshScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "refresh-scheduler",
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	return s.scheduler.Serve(ctx)
}

// String identifies the service in suture log events.
func (s *SchedulerService) String() string {
	return s.name
}
