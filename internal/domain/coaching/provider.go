// Package coaching defines the contract for the external text provider that
// generates coach messages and habit suggestions. The deterministic core
// never depends on a concrete implementation; infrastructure supplies one.
package coaching

import (
	"context"
)

// Snapshot is the slice of user state handed to the provider. It carries
// only what a prompt needs, never live entities.
type Snapshot struct {
	// UserID identifies the user.
	UserID string

	// DisplayName is the user's name, for addressing them.
	DisplayName string

	// Level is the user's current level.
	Level int

	// TotalXP is the user's cumulative XP.
	TotalXP int

	// CurrentStreak is the user's streak as of now.
	CurrentStreak int

	// TodayCompletions is how many habits were completed today.
	TodayCompletions int

	// HabitCount is how many habits the user owns.
	HabitCount int

	// HabitNames lists the user's existing habit names. Suggestion
	// consumers filter candidates against this list.
	HabitNames []string

	// RecentMood is the latest mood rating, 0 when none logged.
	RecentMood int
}

// Suggestion is one habit candidate produced by the provider.
type Suggestion struct {
	// Name is the suggested habit name.
	Name string `json:"name"`

	// Description explains the habit.
	Description string `json:"description"`

	// Category is a habit category label.
	Category string `json:"category"`

	// Difficulty is the suggested 1-5 difficulty.
	Difficulty int `json:"difficulty"`
}

// Provider generates coach text and habit suggestions. Implementations are
// expected to be slow and fallible; callers degrade to static fallbacks.
type Provider interface {
	// GenerateCoachMessage produces a short encouragement line for the
	// dashboard.
	GenerateCoachMessage(ctx context.Context, state Snapshot) (string, error)

	// SuggestHabits produces habit candidates for the user.
	SuggestHabits(ctx context.Context, state Snapshot) ([]Suggestion, error)
}
