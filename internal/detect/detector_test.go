// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestDetector roots every scan path in a temp dir so nothing touches
// the real system.
func newTestDetector(t *testing.T) (*Detector, Config) {
	t.Helper()

	cfg := Config{
		ShmDir:  t.TempDir(),
		ProcDir: t.TempDir(),
		HomeDir: t.TempDir(),
	}
	return New(cfg), cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRunningAppIDNoSources(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, _ := newTestDetector(t)
	id, source := d.RunningAppID()
	if id != 0 || source != "" {
		t.Fatalf("got (%d, %q), want (0, \"\")", id, source)
	}
}

func TestRunningAppIDFromEnv(t *testing.T) {
	t.Setenv("SteamAppId", "220")

	d, _ := newTestDetector(t)
	id, source := d.RunningAppID()
	if id != 220 || source != SourceEnv {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDEnvZeroIgnored(t *testing.T) {
	t.Setenv("SteamAppId", "0")

	d, cfg := newTestDetector(t)
	writeFile(t, filepath.Join(cfg.ShmDir, "SteamOverlayAppId"), "440\n")

	id, source := d.RunningAppID()
	if id != 440 || source != SourceOverlay {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDFromShmFallback(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, cfg := newTestDetector(t)
	writeFile(t, filepath.Join(cfg.ShmDir, "steam_appid.txt"), "570")

	id, source := d.RunningAppID()
	if id != 570 || source != SourceShm {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDFromProc(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, cfg := newTestDetector(t)

	// Non-numeric entries and unrelated processes are skipped.
	writeFile(t, filepath.Join(cfg.ProcDir, "self", "cmdline"), "reaper\x00AppId=999")
	writeFile(t, filepath.Join(cfg.ProcDir, "100", "cmdline"), "bash\x00-l")
	writeFile(t, filepath.Join(cfg.ProcDir, "200", "cmdline"), "reaper\x00SteamLaunch\x00AppId=730\x00--")

	id, source := d.RunningAppID()
	if id != 730 || source != SourceProc {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDFromRegistry(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, cfg := newTestDetector(t)
	registry := `"Registry"
{
	"HKCU"
	{
		"Software"
		{
			"Valve"
			{
				"Steam"
				{
					"RunningAppID"		"220"
				}
			}
		}
	}
}`
	writeFile(t, filepath.Join(cfg.HomeDir, ".steam/registry.vdf"), registry)

	id, source := d.RunningAppID()
	if id != 220 || source != SourceRegistry {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDRegistryZeroIgnored(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, cfg := newTestDetector(t)
	writeFile(t, filepath.Join(cfg.HomeDir, ".steam/registry.vdf"), `"RunningAppID"		"0"`)

	id, source := d.RunningAppID()
	if id != 0 || source != "" {
		t.Fatalf("got (%d, %q)", id, source)
	}
}

func TestRunningAppIDPollIntervalReusesResult(t *testing.T) {
	t.Setenv("SteamAppId", "")

	cfg := Config{
		ShmDir:       t.TempDir(),
		ProcDir:      t.TempDir(),
		HomeDir:      t.TempDir(),
		PollInterval: time.Hour,
	}
	d := New(cfg)

	marker := filepath.Join(cfg.ShmDir, "SteamOverlayAppId")
	writeFile(t, marker, "440")

	if id, _ := d.RunningAppID(); id != 440 {
		t.Fatalf("initial scan got %d", id)
	}

	// The marker disappears, but within the interval the cached result is
	// served without rescanning.
	if err := os.Remove(marker); err != nil {
		t.Fatal(err)
	}
	if id, source := d.RunningAppID(); id != 440 || source != SourceOverlay {
		t.Fatalf("got (%d, %q), want cached (440, overlay)", id, source)
	}

	// Expiring the interval forces a fresh scan.
	d.mu.Lock()
	d.lastScan = time.Now().Add(-2 * time.Hour)
	d.mu.Unlock()
	if id, _ := d.RunningAppID(); id != 0 {
		t.Fatalf("got %d after marker removed, want 0", id)
	}
}

func TestRunningAppIDZeroIntervalAlwaysScans(t *testing.T) {
	t.Setenv("SteamAppId", "")

	d, cfg := newTestDetector(t)
	marker := filepath.Join(cfg.ShmDir, "SteamOverlayAppId")
	writeFile(t, marker, "440")

	if id, _ := d.RunningAppID(); id != 440 {
		t.Fatalf("initial scan got %d", id)
	}
	if err := os.Remove(marker); err != nil {
		t.Fatal(err)
	}
	if id, _ := d.RunningAppID(); id != 0 {
		t.Fatalf("got %d, want fresh scan result 0", id)
	}
}

func TestCurrentUserFromEnv(t *testing.T) {
	t.Setenv("STEAM_USER_ID", "76561198000000001")

	d, _ := newTestDetector(t)
	if got := d.CurrentUser(); got != "76561198000000001" {
		t.Fatalf("got %q", got)
	}
}

func TestCurrentUserFromLoginUsers(t *testing.T) {
	t.Setenv("STEAM_USER_ID", "")

	d, cfg := newTestDetector(t)
	vdf := `"users"
{
	"76561198000000042"
	{
		"AccountName"		"gordon"
		"MostRecent"		"1"
	}
}`
	writeFile(t, filepath.Join(cfg.HomeDir, ".local/share/Steam/config/loginusers.vdf"), vdf)

	if got := d.CurrentUser(); got != "76561198000000042" {
		t.Fatalf("got %q", got)
	}
}

func TestCurrentUserNoneFound(t *testing.T) {
	t.Setenv("STEAM_USER_ID", "")

	d, _ := newTestDetector(t)
	if got := d.CurrentUser(); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestParseAppID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"220", 220},
		{"-5", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := parseAppID(tt.in); got != tt.want {
			t.Errorf("parseAppID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
