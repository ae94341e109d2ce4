// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package services

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	err    error
	called bool
}

func (f *fakeRunner) RunWithContext(ctx context.Context) error {
	f.called = true
	return f.err
}

func (f *fakeRunner) Serve(ctx context.Context) error {
	f.called = true
	return f.err
}

func TestWebSocketHubService_Delegates(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("hub crashed")}
	svc := NewWebSocketHubService(runner)

	if err := svc.Serve(context.Background()); !errors.Is(err, runner.err) {
		t.Errorf("Serve = %v, want hub error", err)
	}
	if !runner.called {
		t.Error("RunWithContext not called")
	}
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestSchedulerService_Delegates(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: context.Canceled}
	svc := NewSchedulerService(runner)

	if err := svc.Serve(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
	if svc.String() != "refresh-scheduler" {
		t.Errorf("String() = %q", svc.String())
	}
}
