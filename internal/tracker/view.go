// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package tracker

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/questlog-app/questlog/internal/models"
)

// SortMode selects the ordering applied to an achievement view.
type SortMode string

const (
	// SortByUnlock orders unlocked achievements first, most recent unlock
	// at the top. The default.
	SortByUnlock SortMode = "unlock"

	// SortByName orders by display name, locale-aware, ascending.
	SortByName SortMode = "name"

	// SortByRarity orders by global percent ascending, rarest first.
	SortByRarity SortMode = "rarity"
)

// ParseSortMode maps a query string value to a SortMode. An empty value
// selects the default unlock ordering.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "":
		return SortByUnlock, nil
	case SortByUnlock, SortByName, SortByRarity:
		return SortMode(s), nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// ViewOptions are the user-selected view parameters. They are passed
// explicitly so the view computation stays a pure function.
type ViewOptions struct {
	Sort SortMode

	// RarityCeiling, when positive, retains only achievements whose
	// global percent is known and at most this value.
	RarityCeiling float64

	// ShowHidden controls whether locked hidden achievements appear.
	// Unlocked achievements always appear regardless of this toggle.
	ShowHidden bool
}

// ApplyView produces an ordered, filtered view of one game's achievements.
// Filters run before the sort; the sort is stable; the input slice is never
// mutated. Deterministic given its inputs.
func ApplyView(achievements []models.Achievement, opts ViewOptions) []models.Achievement {
	out := make([]models.Achievement, 0, len(achievements))

	for _, a := range achievements {
		if opts.RarityCeiling > 0 {
			p := NormalizePercent(a.GlobalPercent)
			if p == nil || *p > opts.RarityCeiling {
				continue
			}
		}
		if !opts.ShowHidden && a.Hidden && !a.Unlocked {
			continue
		}
		out = append(out, a)
	}

	switch opts.Sort {
	case SortByName:
		c := collate.New(language.Und)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
		})
	case SortByRarity:
		sort.SliceStable(out, func(i, j int) bool {
			return rarityKey(out[i]) < rarityKey(out[j])
		})
	default: // SortByUnlock
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if a.Unlocked != b.Unlocked {
				return a.Unlocked
			}
			if a.Unlocked {
				return a.UnlockTime > b.UnlockTime
			}
			// Locked items keep their relative input order.
			return false
		})
	}

	return out
}

// rarityKey maps unknown percentages to the maximum so they sort last.
func rarityKey(a models.Achievement) float64 {
	p := NormalizePercent(a.GlobalPercent)
	if p == nil {
		return 100
	}
	return *p
}
