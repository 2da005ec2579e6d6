// Package achievement contains the badge catalog and unlock rules.
// Requirements form a closed variant dispatched exhaustively, so adding a
// new requirement kind is a compile-time-checked change.
package achievement

import (
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT (closed tagged variant)
// ══════════════════════════════════════════════════════════════════════════════

// RequirementKind names the counter a requirement is checked against.
type RequirementKind string

const (
	// RequirementHabitCompletions checks lifetime completion count.
	RequirementHabitCompletions RequirementKind = "habit_completions"
	// RequirementStreak checks the current streak length.
	RequirementStreak RequirementKind = "streak"
	// RequirementHabitCount checks how many habits the user owns.
	RequirementHabitCount RequirementKind = "habit_count"
	// RequirementTotalXP checks cumulative XP.
	RequirementTotalXP RequirementKind = "total_xp"
	// RequirementMoodEntries checks lifetime mood entry count.
	RequirementMoodEntries RequirementKind = "mood_entries"
	// RequirementLevel checks the current level.
	RequirementLevel RequirementKind = "level"
)

// IsValid checks that the kind is one of the known variants.
func (k RequirementKind) IsValid() bool {
	switch k {
	case RequirementHabitCompletions, RequirementStreak, RequirementHabitCount,
		RequirementTotalXP, RequirementMoodEntries, RequirementLevel:
		return true
	default:
		return false
	}
}

// Requirement is an unlock condition: a counter kind plus the threshold the
// counter must reach. Satisfaction uses counter >= Count.
type Requirement struct {
	Kind  RequirementKind
	Count int
}

// Counters is the snapshot of user counters a requirement is evaluated
// against. The evaluator loads it once per pass.
type Counters struct {
	// Completions is the lifetime habit completion count.
	Completions int

	// CurrentStreak is the streak length as of the triggering event.
	CurrentStreak int

	// HabitCount is how many habits the user owns.
	HabitCount int

	// TotalXP is the user's cumulative XP.
	TotalXP int

	// MoodEntries is the lifetime mood entry count.
	MoodEntries int

	// Level is the user's current level.
	Level int
}

// SatisfiedBy evaluates the requirement against the counters. The switch is
// exhaustive over RequirementKind; an unknown kind is an error, never a
// silent false.
func (r Requirement) SatisfiedBy(c Counters) (bool, error) {
	switch r.Kind {
	case RequirementHabitCompletions:
		return c.Completions >= r.Count, nil
	case RequirementStreak:
		return c.CurrentStreak >= r.Count, nil
	case RequirementHabitCount:
		return c.HabitCount >= r.Count, nil
	case RequirementTotalXP:
		return c.TotalXP >= r.Count, nil
	case RequirementMoodEntries:
		return c.MoodEntries >= r.Count, nil
	case RequirementLevel:
		return c.Level >= r.Count, nil
	default:
		return false, shared.ErrUnknownRequirement
	}
}
