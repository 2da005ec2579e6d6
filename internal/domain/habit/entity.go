// Package habit contains the habit aggregate: habits, their completions,
// and mood entries. This is core business logic - no external dependencies.
package habit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Category classifies a habit. The engine treats categories as opaque
// labels; the closed set exists so the UI can map them to visuals.
type Category string

const (
	CategoryFitness      Category = "fitness"
	CategoryWellness     Category = "wellness"
	CategoryProductivity Category = "productivity"
	CategoryFocus        Category = "focus"
	CategorySleep        Category = "sleep"
	CategoryOther        Category = "other"
)

// IsValid checks that the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFitness, CategoryWellness, CategoryProductivity,
		CategoryFocus, CategorySleep, CategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory normalizes a string into a Category, falling back to
// CategoryOther for unknown values only when the input is empty.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryOther, nil
	}
	if !c.IsValid() {
		return "", shared.ErrInvalidCategory
	}
	return c, nil
}

// Difficulty rates how hard a habit is, on a 1-5 scale. It drives the XP
// reward of each completion.
type Difficulty int

const (
	MinDifficulty Difficulty = 1
	MaxDifficulty Difficulty = 5
)

// XPPerDifficulty is the XP multiplier: reward = difficulty * 10.
const XPPerDifficulty = 10

// IsValid checks that the difficulty is within the 1-5 range.
func (d Difficulty) IsValid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// Int returns the underlying int value.
func (d Difficulty) Int() int {
	return int(d)
}

// XPReward returns the XP awarded for completing a habit of this difficulty.
func (d Difficulty) XPReward() int {
	return int(d) * XPPerDifficulty
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: HABIT
// ══════════════════════════════════════════════════════════════════════════════

// Habit is a recurring activity owned by exactly one user.
type Habit struct {
	// ID is the unique identifier (UUID in string form).
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the habit's display name.
	Name string

	// Description is an optional longer description.
	Description string

	// Category classifies the habit.
	Category Category

	// Difficulty is the 1-5 difficulty rating.
	Difficulty Difficulty

	// CreatedAt is when the habit was created.
	CreatedAt time.Time
}

// ErrInvalidHabitID means the habit ID is missing.
var ErrInvalidHabitID = errors.New("habit id is required")

// NewHabitParams contains the parameters for creating a new habit.
type NewHabitParams struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Category    Category
	Difficulty  Difficulty
}

// NewHabit creates a new habit with all fields validated.
func NewHabit(params NewHabitParams) (*Habit, error) {
	if params.ID == "" {
		return nil, ErrInvalidHabitID
	}

	if _, err := shared.NewUserID(params.UserID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 200 {
		return nil, shared.ErrEmptyHabitName
	}

	category := params.Category
	if category == "" {
		category = CategoryOther
	}
	if !category.IsValid() {
		return nil, shared.ErrInvalidCategory
	}

	if !params.Difficulty.IsValid() {
		return nil, shared.ErrInvalidDifficulty
	}

	return &Habit{
		ID:          params.ID,
		UserID:      params.UserID,
		Name:        name,
		Description: strings.TrimSpace(params.Description),
		Category:    category,
		Difficulty:  params.Difficulty,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// XPReward returns the XP awarded for one completion of this habit.
func (h *Habit) XPReward() int {
	return h.Difficulty.XPReward()
}

// BelongsTo reports whether the habit is owned by the given user.
func (h *Habit) BelongsTo(userID string) bool {
	return h.UserID == userID
}

// String returns a representation of the habit for logging.
func (h *Habit) String() string {
	return fmt.Sprintf(
		"Habit{ID: %s, User: %s, Name: %q, Difficulty: %d}",
		h.ID, h.UserID, h.Name, h.Difficulty,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

// Completion records that a habit was finished on a calendar day.
// At most one completion exists per (habit, day); the store's uniqueness
// constraint is the enforcement point. Completions are immutable.
type Completion struct {
	// ID is the unique identifier (UUID in string form).
	ID string

	// HabitID is the completed habit.
	HabitID string

	// UserID is the owning user, denormalized for per-user queries.
	UserID string

	// Date is the calendar day of the completion (midnight in the
	// reference timezone), not the request instant.
	Date time.Time

	// MoodRating is the optional 1-5 mood captured at completion time.
	// Zero means not captured.
	MoodRating int

	// EnergyLevel is the optional 1-5 energy captured at completion time.
	// Zero means not captured.
	EnergyLevel int

	// XPAwarded is the XP granted by this completion.
	XPAwarded int

	// CreatedAt is the request instant.
	CreatedAt time.Time
}

// NewCompletion creates a completion record for the given day. Optional
// mood and energy are validated only when present.
func NewCompletion(id string, h *Habit, date time.Time, moodRating, energyLevel int) (*Completion, error) {
	if id == "" {
		return nil, errors.New("completion id is required")
	}
	if moodRating != 0 {
		if _, err := shared.NewRating(moodRating); err != nil {
			return nil, shared.ErrInvalidMoodRating
		}
	}
	if energyLevel != 0 {
		if _, err := shared.NewRating(energyLevel); err != nil {
			return nil, shared.ErrInvalidEnergyLevel
		}
	}

	return &Completion{
		ID:          id,
		HabitID:     h.ID,
		UserID:      h.UserID,
		Date:        date,
		MoodRating:  moodRating,
		EnergyLevel: energyLevel,
		XPAwarded:   h.XPReward(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MOOD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// MoodEntry records a user's mood and energy for one calendar day.
// The same-day policy (replace vs append) is decided by the command layer.
type MoodEntry struct {
	// ID is the unique identifier (UUID in string form).
	ID string

	// UserID is the owning user.
	UserID string

	// Date is the calendar day of the entry.
	Date time.Time

	// MoodRating is the 1-5 mood value.
	MoodRating shared.Rating

	// EnergyLevel is the 1-5 energy value.
	EnergyLevel shared.Rating

	// Notes is free-form text.
	Notes string

	// CreatedAt is the request instant.
	CreatedAt time.Time
}

// NewMoodEntry creates a mood entry with validated ratings.
func NewMoodEntry(id, userID string, date time.Time, moodRating, energyLevel int, notes string) (*MoodEntry, error) {
	if id == "" {
		return nil, errors.New("mood entry id is required")
	}
	if _, err := shared.NewUserID(userID); err != nil {
		return nil, err
	}

	mood, err := shared.NewRating(moodRating)
	if err != nil {
		return nil, shared.ErrInvalidMoodRating
	}
	energy, err := shared.NewRating(energyLevel)
	if err != nil {
		return nil, shared.ErrInvalidEnergyLevel
	}

	return &MoodEntry{
		ID:          id,
		UserID:      userID,
		Date:        date,
		MoodRating:  mood,
		EnergyLevel: energy,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   time.Now().UTC(),
	}, nil
}
