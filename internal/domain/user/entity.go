// Package user contains the user aggregate of the progression engine.
// This is core business logic - no external dependencies here.
package user

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

// WorldTheme is the visual theme of a user's habit world. It is presentation
// state carried by the engine, never interpreted by it.
type WorldTheme string

const (
	// ThemeForest is the default world theme.
	ThemeForest WorldTheme = "forest"
	// ThemeOcean is the ocean world theme.
	ThemeOcean WorldTheme = "ocean"
	// ThemeSpace is the space world theme.
	ThemeSpace WorldTheme = "space"
	// ThemeCity is the city world theme.
	ThemeCity WorldTheme = "city"
)

// IsValid checks that the theme is one of the known values.
func (w WorldTheme) IsValid() bool {
	switch w {
	case ThemeForest, ThemeOcean, ThemeSpace, ThemeCity:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User is the central entity of the engine. Progression state (XP, level,
// streaks) lives here; completions and mood entries reference it.
type User struct {
	// ID is the unique identifier, chosen by the client at creation time.
	ID string

	// DisplayName is the name shown in the UI.
	DisplayName string

	// TotalXP is the cumulative experience. Monotonic: it only grows.
	TotalXP shared.XP

	// CurrentLevel is the level implied by TotalXP. Cached on the entity so
	// reads never recompute, but always kept equal to TotalXP.Level().
	CurrentLevel shared.Level

	// CurrentStreak is the streak length as of the last recorded completion.
	CurrentStreak int

	// LongestStreak is the best streak ever reached. Never decreases.
	LongestStreak int

	// Theme is the user's world theme.
	Theme WorldTheme

	// CreatedAt is when the user was created.
	CreatedAt time.Time

	// UpdatedAt is when the user was last modified.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName means the display name is empty or too long.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidTheme means the world theme is not a known value.
	ErrInvalidTheme = errors.New("invalid world theme")

	// ErrStreakInvariant means current streak exceeded the longest streak.
	ErrStreakInvariant = errors.New("current streak cannot exceed longest streak")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewUserParams contains the parameters for creating a new user.
type NewUserParams struct {
	ID          string
	DisplayName string
	Theme       WorldTheme
}

// NewUser creates a new user with all fields validated. A zero Theme
// defaults to the forest world.
func NewUser(params NewUserParams) (*User, error) {
	id, err := shared.NewUserID(params.ID)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	theme := params.Theme
	if theme == "" {
		theme = ThemeForest
	}
	if !theme.IsValid() {
		return nil, ErrInvalidTheme
	}

	now := time.Now().UTC()

	return &User{
		ID:            id.String(),
		DisplayName:   displayName,
		TotalXP:       0,
		CurrentLevel:  shared.MinLevel,
		CurrentStreak: 0,
		LongestStreak: 0,
		Theme:         theme,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AddXP credits XP to the user and recomputes the cached level.
// It returns the level before and after so callers can report level-ups.
// A single credit may cross several thresholds; both values reflect the
// final state of this credit only.
func (u *User) AddXP(amount int) (oldLevel, newLevel shared.Level) {
	oldLevel = u.CurrentLevel
	u.TotalXP = u.TotalXP.Add(amount)
	u.CurrentLevel = u.TotalXP.Level()
	u.UpdatedAt = time.Now().UTC()
	return oldLevel, u.CurrentLevel
}

// XPToNextLevel returns how much XP the user still needs for the next level.
func (u *User) XPToNextLevel() int {
	return u.TotalXP.ToNextLevel()
}

// ApplyStreak stores the streak counters computed by the streak tracker.
// LongestStreak never decreases.
func (u *User) ApplyStreak(current, longest int) error {
	if longest < u.LongestStreak {
		longest = u.LongestStreak
	}
	if current > longest {
		return ErrStreakInvariant
	}
	u.CurrentStreak = current
	u.LongestStreak = longest
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a representation of the user for logging.
func (u *User) String() string {
	return fmt.Sprintf(
		"User{ID: %s, XP: %d, Level: %d, Streak: %d/%d}",
		u.ID, u.TotalXP, u.CurrentLevel, u.CurrentStreak, u.LongestStreak,
	)
}

// Clone creates a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	clone := *u
	return &clone
}
