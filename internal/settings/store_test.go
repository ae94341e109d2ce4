// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/questlog-app/questlog/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "settings.json"))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := s.Get()
	if !got.AutoRefresh || got.RefreshInterval != 30 {
		t.Fatalf("defaults = %+v", got)
	}
	if got.SteamAPIKey != "" || got.TestAppID != 0 {
		t.Fatalf("defaults carry values: %+v", got)
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := NewStore(path).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.json")
	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := models.Settings{
		SteamAPIKey:     "0123456789ABCDEF0123456789ABCDEF",
		SteamUserID:     "76561198000000001",
		TestAppID:       440,
		AutoRefresh:     false,
		RefreshInterval: 120,
		TrackedGame:     &models.TrackedGame{AppID: 220, Name: "Half-Life 2"},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	got := reloaded.Get()
	if got.SteamAPIKey != want.SteamAPIKey || got.SteamUserID != want.SteamUserID {
		t.Fatalf("credentials = %+v", got)
	}
	if got.TestAppID != 440 || got.AutoRefresh || got.RefreshInterval != 120 {
		t.Fatalf("prefs = %+v", got)
	}
	if got.TrackedGame == nil || got.TrackedGame.AppID != 220 {
		t.Fatalf("tracked game = %+v", got.TrackedGame)
	}
}

func TestFieldSetters(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.SetAPIKey("0123456789ABCDEF0123456789ABCDEF"); err != nil {
		t.Fatalf("set api key: %v", err)
	}
	if err := s.SetUserID("76561198000000001"); err != nil {
		t.Fatalf("set user id: %v", err)
	}
	if err := s.SetTestGame(440); err != nil {
		t.Fatalf("set test game: %v", err)
	}
	if err := s.SetTrackedGame(220, "Half-Life 2"); err != nil {
		t.Fatalf("set tracked game: %v", err)
	}

	got := s.Get()
	if got.SteamAPIKey == "" || got.SteamUserID == "" || got.TestAppID != 440 {
		t.Fatalf("settings = %+v", got)
	}
	if got.TrackedGame == nil || got.TrackedGame.Name != "Half-Life 2" {
		t.Fatalf("tracked game = %+v", got.TrackedGame)
	}

	if err := s.ClearTestGame(); err != nil {
		t.Fatalf("clear test game: %v", err)
	}
	if err := s.ClearTrackedGame(); err != nil {
		t.Fatalf("clear tracked game: %v", err)
	}

	got = s.Get()
	if got.TestAppID != 0 || got.TrackedGame != nil {
		t.Fatalf("clears did not apply: %+v", got)
	}
	// Other fields survive the clears.
	if got.SteamAPIKey == "" {
		t.Fatal("api key lost by unrelated update")
	}
}

func TestSetRefreshClampsInterval(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.SetRefresh(true, 0); err != nil {
		t.Fatalf("set refresh: %v", err)
	}
	if got := s.Get().RefreshInterval; got != 1 {
		t.Fatalf("interval = %d, want 1", got)
	}
}

func TestFailedWriteKeepsMemoryState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "settings.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.SetUserID("76561198000000001"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Make the directory unwritable so the temp-file write fails.
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	if err := s.SetUserID("76561198000000099"); err == nil {
		t.Skip("running as root, write cannot be made to fail")
	}

	if got := s.Get().SteamUserID; got != "76561198000000001" {
		t.Fatalf("memory state advanced after failed write: %q", got)
	}
}
