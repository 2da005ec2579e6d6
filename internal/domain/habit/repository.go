package habit

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for habits, completions and
// mood entries. Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the persistence operations for habits.
type Repository interface {
	// Create stores a new habit.
	Create(ctx context.Context, h *Habit) error

	// GetByID returns a habit by ID.
	// Returns shared.ErrHabitNotFound when absent.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUser returns all habits of a user, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*Habit, error)

	// CountByUser returns how many habits a user owns.
	CountByUser(ctx context.Context, userID string) (int, error)
}

// CompletionRepository defines the persistence operations for completions.
type CompletionRepository interface {
	// Create conditionally inserts a completion. It reports inserted=false
	// without error when a completion for (habit, day) already exists; that
	// uniqueness check is the engine's idempotency enforcement point.
	Create(ctx context.Context, c *Completion) (inserted bool, err error)

	// GetForDay returns the completion of a habit on a calendar day.
	// Returns shared.ErrNotFound when absent.
	GetForDay(ctx context.Context, habitID string, day time.Time) (*Completion, error)

	// HasOnDay reports whether the user completed any habit on the day.
	HasOnDay(ctx context.Context, userID string, day time.Time) (bool, error)

	// CountOnDay returns how many habits the user completed on the day.
	CountOnDay(ctx context.Context, userID string, day time.Time) (int, error)

	// CountByUser returns the user's lifetime completion count.
	CountByUser(ctx context.Context, userID string) (int, error)

	// ListByUserBetween returns completions with from <= date <= to,
	// ascending by date.
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*Completion, error)

	// ListCompletedHabitIDs returns the IDs of habits the user completed
	// on the given day.
	ListCompletedHabitIDs(ctx context.Context, userID string, day time.Time) ([]string, error)

	// ListCompletionDays returns the user's distinct completion days,
	// most recent first.
	ListCompletionDays(ctx context.Context, userID string) ([]time.Time, error)
}

// MoodRepository defines the persistence operations for mood entries.
type MoodRepository interface {
	// Upsert inserts the entry or replaces the user's existing entry for
	// the same day ("replace" same-day policy).
	Upsert(ctx context.Context, e *MoodEntry) error

	// Create always inserts a new entry ("append" same-day policy).
	Create(ctx context.Context, e *MoodEntry) error

	// GetMostRecent returns the user's latest entry.
	// Returns shared.ErrNotFound when the user has no entries.
	GetMostRecent(ctx context.Context, userID string) (*MoodEntry, error)

	// CountByUser returns the user's lifetime mood entry count.
	CountByUser(ctx context.Context, userID string) (int, error)

	// ListByUserBetween returns entries with from <= date <= to,
	// ascending by date.
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*MoodEntry, error)
}
