// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"fmt"
	"math"

	"github.com/questlog-app/questlog/internal/models"
)

// NormalizePercent returns a global unlock percentage fit for display and
// comparison: a finite value in [0,100], or nil for "unknown". Malformed
// input degrades to unknown rather than failing; a missing percentage is
// never coerced to 0.
func NormalizePercent(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return nil
	}
	return &v
}

// Normalize returns a copy of the achievement with its numeric fields
// sanitized: the global percent is valid or unknown, and unlock_time is
// present only when the achievement is unlocked. Idempotent.
func Normalize(a models.Achievement) models.Achievement {
	a.GlobalPercent = NormalizePercent(a.GlobalPercent)
	if !a.Unlocked || a.UnlockTime < 0 {
		a.UnlockTime = 0
	}
	return a
}

// NormalizeSet sanitizes every achievement in the set and recomputes the
// Total and Unlocked counters from the actual list. The input is not
// modified.
func NormalizeSet(set *models.AchievementSet) *models.AchievementSet {
	if set == nil {
		return nil
	}

	out := *set
	out.Achievements = make([]models.Achievement, len(set.Achievements))
	out.Total = len(set.Achievements)
	out.Unlocked = 0
	for i, a := range set.Achievements {
		out.Achievements[i] = Normalize(a)
		if out.Achievements[i].Unlocked {
			out.Unlocked++
		}
	}
	return &out
}

// FormatGlobalPercent renders a global percentage for display: "N/A" for
// unknown values, otherwise one decimal place with a percent sign.
func FormatGlobalPercent(p *float64) string {
	v := NormalizePercent(p)
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v)
}
