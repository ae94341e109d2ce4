// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

// Package detect identifies the running Steam game and the logged-in Steam
// user from local system state: environment variables, the shared-memory
// files Steam maintains, /proc command lines, and Steam's VDF registry.
// Detection sources are tried in fixed priority order and every path root
// is injectable for tests.
package detect

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/questlog-app/questlog/internal/logging"
	"github.com/questlog-app/questlog/internal/metrics"
)

// Detection source names, in priority order.
const (
	SourceEnv      = "env"
	SourceOverlay  = "overlay"
	SourceShm      = "shm"
	SourceProc     = "proc"
	SourceRegistry = "registry"
)

var (
	steamIDPattern      = regexp.MustCompile(`"(7656\d{13})"`)
	runningAppIDPattern = regexp.MustCompile(`"RunningAppID"\s+"(\d+)"`)
	cmdlineAppIDPattern = regexp.MustCompile(`AppId=(\d+)`)
)

// Config locates the system paths the detector scans.
type Config struct {
	// ShmDir is where Steam drops its app-id marker files,
	// normally /dev/shm.
	ShmDir string

	// ProcDir is the procfs mount, normally /proc.
	ProcDir string

	// HomeDir is the user home holding the Steam installation.
	HomeDir string

	// PollInterval bounds how often the system paths are rescanned. A
	// result is reused until the interval elapses; zero rescans on every
	// call.
	PollInterval time.Duration
}

// DefaultConfig returns the standard system paths.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/home/deck"
	}
	return Config{
		ShmDir:  "/dev/shm",
		ProcDir: "/proc",
		HomeDir: home,
	}
}

// Detector scans local system state for the running game and Steam user.
type Detector struct {
	cfg Config

	mu         sync.Mutex
	lastScan   time.Time
	lastID     int
	lastSource string
}

// New creates a detector. Empty config fields fall back to defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.ShmDir == "" {
		cfg.ShmDir = def.ShmDir
	}
	if cfg.ProcDir == "" {
		cfg.ProcDir = def.ProcDir
	}
	if cfg.HomeDir == "" {
		cfg.HomeDir = def.HomeDir
	}
	return &Detector{cfg: cfg}
}

// CurrentUser returns the SteamID64 of the logged-in user, or "" when none
// can be determined. The STEAM_USER_ID environment variable wins; otherwise
// the first SteamID64 found in Steam's loginusers.vdf is used.
func (d *Detector) CurrentUser() string {
	if id := os.Getenv("STEAM_USER_ID"); id != "" {
		logging.Info().Str("steam_id", id).Msg("Steam user from environment")
		return id
	}

	for _, path := range d.loginUsersPaths() {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if m := steamIDPattern.FindSubmatch(content); m != nil {
			id := string(m[1])
			logging.Info().Str("steam_id", id).Str("path", path).Msg("Steam user from config")
			return id
		}
	}

	logging.Warn().Msg("No Steam user ID found")
	return ""
}

// RunningAppID returns the app id of the running game and the source that
// reported it, or (0, "") when no game is detected. Scans are rate limited
// by PollInterval: within the interval the previous result is returned
// without touching the filesystem.
func (d *Detector) RunningAppID() (int, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.PollInterval > 0 && time.Since(d.lastScan) < d.cfg.PollInterval {
		return d.lastID, d.lastSource
	}

	id, source := d.scan()
	d.lastScan = time.Now()
	d.lastID, d.lastSource = id, source
	return id, source
}

func (d *Detector) scan() (int, string) {
	if id := parseAppID(os.Getenv("SteamAppId")); id != 0 {
		return d.found(id, SourceEnv)
	}

	if id := d.readAppIDFile(filepath.Join(d.cfg.ShmDir, "SteamOverlayAppId")); id != 0 {
		return d.found(id, SourceOverlay)
	}

	for _, name := range []string{"SteamAppId", "steam_appid.txt"} {
		if id := d.readAppIDFile(filepath.Join(d.cfg.ShmDir, name)); id != 0 {
			return d.found(id, SourceShm)
		}
	}

	if id := d.scanProc(); id != 0 {
		return d.found(id, SourceProc)
	}

	if id := d.scanRegistry(); id != 0 {
		return d.found(id, SourceRegistry)
	}

	metrics.DetectedGameID.Set(0)
	return 0, ""
}

func (d *Detector) found(id int, source string) (int, string) {
	logging.Info().Int("app_id", id).Str("source", source).Msg("Detected running app")
	metrics.DetectedGameID.Set(float64(id))
	metrics.DetectionSourceUses.WithLabelValues(source).Inc()
	return id, source
}

func (d *Detector) readAppIDFile(path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return parseAppID(strings.TrimSpace(string(content)))
}

// scanProc looks for Steam's reaper process, whose command line carries
// AppId=<id> for the launched game.
func (d *Detector) scanProc() int {
	entries, err := os.ReadDir(d.cfg.ProcDir)
	if err != nil {
		return 0
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}

		cmdline, err := os.ReadFile(filepath.Join(d.cfg.ProcDir, entry.Name(), "cmdline"))
		if err != nil {
			continue
		}

		// cmdline args are NUL separated
		line := strings.ReplaceAll(string(cmdline), "\x00", " ")
		if !strings.Contains(line, "reaper") {
			continue
		}
		if m := cmdlineAppIDPattern.FindStringSubmatch(line); m != nil {
			if id := parseAppID(m[1]); id != 0 {
				return id
			}
		}
	}

	return 0
}

func (d *Detector) scanRegistry() int {
	for _, path := range d.registryPaths() {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if m := runningAppIDPattern.FindSubmatch(content); m != nil {
			if id := parseAppID(string(m[1])); id != 0 {
				return id
			}
		}
	}
	return 0
}

func (d *Detector) loginUsersPaths() []string {
	return []string{
		filepath.Join(d.cfg.HomeDir, ".steam/steam/config/loginusers.vdf"),
		filepath.Join(d.cfg.HomeDir, ".local/share/Steam/config/loginusers.vdf"),
	}
}

func (d *Detector) registryPaths() []string {
	return []string{
		filepath.Join(d.cfg.HomeDir, ".steam/registry.vdf"),
		filepath.Join(d.cfg.HomeDir, ".local/share/Steam/registry.vdf"),
	}
}

func parseAppID(s string) int {
	if s == "" || s == "0" {
		return 0
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
