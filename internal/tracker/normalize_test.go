// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"math"
	"reflect"
	"testing"

	"github.com/questlog-app/questlog/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestFormatGlobalPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input *float64
		want  string
	}{
		{"nil", nil, "N/A"},
		{"nan", ptr(math.NaN()), "N/A"},
		{"positive inf", ptr(math.Inf(1)), "N/A"},
		{"negative inf", ptr(math.Inf(-1)), "N/A"},
		{"negative", ptr(-1), "N/A"},
		{"over hundred", ptr(100.5), "N/A"},
		{"pi", ptr(3.14159), "3.1%"},
		{"zero", ptr(0), "0.0%"},
		{"hundred", ptr(100), "100.0%"},
		{"typical", ptr(68.5), "68.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatGlobalPercent(tt.input); got != tt.want {
				t.Fatalf("FormatGlobalPercent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePercentNeverZeroCoerced(t *testing.T) {
	t.Parallel()

	if got := NormalizePercent(ptr(math.NaN())); got != nil {
		t.Fatalf("NaN should normalize to unknown, got %v", *got)
	}
	if got := NormalizePercent(nil); got != nil {
		t.Fatalf("nil should stay unknown, got %v", *got)
	}
	if got := NormalizePercent(ptr(0)); got == nil || *got != 0 {
		t.Fatal("an actual 0 percent must survive normalization")
	}
}

func TestNormalizeClearsUnlockTimeWhenLocked(t *testing.T) {
	t.Parallel()

	a := Normalize(models.Achievement{APIName: "ACH", Unlocked: false, UnlockTime: 12345})
	if a.UnlockTime != 0 {
		t.Fatalf("locked achievement kept unlock_time %d", a.UnlockTime)
	}

	b := Normalize(models.Achievement{APIName: "ACH", Unlocked: true, UnlockTime: 12345})
	if b.UnlockTime != 12345 {
		t.Fatalf("unlocked achievement lost unlock_time, got %d", b.UnlockTime)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	in := models.Achievement{
		APIName:       "ACH_IDEM",
		DisplayName:   "Idempotent",
		Unlocked:      true,
		UnlockTime:    1700000000,
		GlobalPercent: ptr(42.5),
	}

	once := Normalize(in)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent: %+v vs %+v", once, twice)
	}
}

func TestNormalizeSetRecomputesCounters(t *testing.T) {
	t.Parallel()

	set := &models.AchievementSet{
		AppID:    220,
		Total:    99, // wrong on purpose
		Unlocked: 99,
		Achievements: []models.Achievement{
			{APIName: "A", Unlocked: true, UnlockTime: 100},
			{APIName: "B", Unlocked: false},
			{APIName: "C", Unlocked: true, UnlockTime: 200, GlobalPercent: ptr(math.NaN())},
		},
	}

	out := NormalizeSet(set)
	if out.Total != 3 || out.Unlocked != 2 {
		t.Fatalf("counters = (%d, %d), want (3, 2)", out.Total, out.Unlocked)
	}
	if out.Achievements[2].GlobalPercent != nil {
		t.Fatal("NaN percent should normalize to unknown")
	}

	// Input untouched.
	if set.Total != 99 {
		t.Fatal("input set was mutated")
	}
}

func TestEmptySetNoDivideByZero(t *testing.T) {
	t.Parallel()

	set := NormalizeSet(&models.AchievementSet{AppID: 1})
	if got := set.Percentage(); got != 0 {
		t.Fatalf("percentage = %v, want 0", got)
	}
	if got := set.Remaining(); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
	if set.IsPerfect() {
		t.Fatal("empty set must not count as perfect")
	}
}
