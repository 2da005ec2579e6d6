package shared

import (
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier. IDs are chosen by the client
// at creation time, so the only structural requirement is a sane length.
type UserID string

// IsValid checks if the user ID is valid.
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) >= 1 && len(s) <= 64
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", ErrInvalidUserID
	}
	return uid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned by a user. XP is monotonic: the
// engine only ever adds to it.
type XP int

// MinXP is the lower bound; XP never goes negative.
const MinXP XP = 0

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, floored at MinXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result < MinXP {
		return MinXP
	}
	return result
}

// Level calculates the level implied by this XP total.
// Advancing from level L to L+1 costs 100*L XP, so the cumulative
// threshold for level L is 100*L*(L-1)/2. Levels are uncapped.
func (x XP) Level() Level {
	level := 1
	costToNext := 100
	remaining := int(x)
	for remaining >= costToNext {
		remaining -= costToNext
		level++
		costToNext = 100 * level
	}
	return Level(level)
}

// ToNextLevel returns how much XP is still needed to reach the next level.
func (x XP) ToNextLevel() int {
	next := x.Level() + 1
	return next.RequiredXP() - int(x)
}

// ProgressToNextLevel returns percentage progress within the current level (0-100).
func (x XP) ProgressToNextLevel() int {
	currentLevel := x.Level()
	currentLevelXP := currentLevel.RequiredXP()
	nextLevelXP := (currentLevel + 1).RequiredXP()

	xpInCurrentLevel := int(x) - currentLevelXP
	xpNeededForLevel := nextLevelXP - currentLevelXP

	if xpNeededForLevel == 0 {
		return 100
	}

	return (xpInCurrentLevel * 100) / xpNeededForLevel
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a user's level. Level 1 is the floor; there is no cap.
type Level int

// MinLevel is the starting level for every user.
const MinLevel Level = 1

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredXP returns the total XP required to reach this level:
// 100 * L * (L-1) / 2.
func (l Level) RequiredXP() int {
	if l <= 1 {
		return 0
	}
	n := int(l)
	return 100 * n * (n - 1) / 2
}

// ═══════════════════════════════════════════════════════════════════════════
// Rating Value Object (mood rating, energy level, habit difficulty)
// ═══════════════════════════════════════════════════════════════════════════

// Rating represents a 1-5 scale value.
type Rating int

const (
	MinRating Rating = 1
	MaxRating Rating = 5
)

// IsValid checks if the rating is within valid range.
func (r Rating) IsValid() bool {
	return r >= MinRating && r <= MaxRating
}

// Int returns the underlying int value.
func (r Rating) Int() int {
	return int(r)
}

// NewRating creates a new Rating with validation.
func NewRating(value int) (Rating, error) {
	if value < int(MinRating) || value > int(MaxRating) {
		return 0, NewDomainError("shared", "NewRating", ErrValueOutOfRange, "rating must be between 1 and 5")
	}
	return Rating(value), nil
}

// AverageRating calculates the average from a slice of ratings.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += int(r)
	}
	return float64(sum) / float64(len(ratings))
}
