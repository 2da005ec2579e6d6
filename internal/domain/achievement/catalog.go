package achievement

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITIONS & CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Definition describes one achievement: an immutable catalog entry.
type Definition struct {
	// ID is the stable identifier, e.g. "week_warrior".
	ID string

	// Name is the display name.
	Name string

	// Description explains how to earn the badge.
	Description string

	// Icon is the emoji shown next to the badge.
	Icon string

	// Requirement is the unlock condition.
	Requirement Requirement

	// RewardXP is granted exactly once, at unlock time.
	RewardXP int
}

// Catalog returns all achievement definitions in catalog order. Evaluation
// and result lists follow this order.
func Catalog() []Definition {
	return []Definition{
		{
			ID:          "first_habit",
			Name:        "Baby Steps",
			Description: "Complete your first habit",
			Icon:        "👶",
			Requirement: Requirement{Kind: RequirementHabitCompletions, Count: 1},
			RewardXP:    50,
		},
		{
			ID:          "week_warrior",
			Name:        "Week Warrior",
			Description: "Maintain a 7-day streak",
			Icon:        "⚔️",
			Requirement: Requirement{Kind: RequirementStreak, Count: 7},
			RewardXP:    100,
		},
		{
			ID:          "habit_collector",
			Name:        "Habit Collector",
			Description: "Create 5 habits",
			Icon:        "📚",
			Requirement: Requirement{Kind: RequirementHabitCount, Count: 5},
			RewardXP:    75,
		},
		{
			ID:          "xp_master",
			Name:        "XP Master",
			Description: "Earn 500 total XP",
			Icon:        "⭐",
			Requirement: Requirement{Kind: RequirementTotalXP, Count: 500},
			RewardXP:    100,
		},
		{
			ID:          "consistency_king",
			Name:        "Consistency King",
			Description: "Complete habits 30 times",
			Icon:        "👑",
			Requirement: Requirement{Kind: RequirementHabitCompletions, Count: 30},
			RewardXP:    200,
		},
		{
			ID:          "mood_tracker",
			Name:        "Mood Tracker",
			Description: "Log your mood 10 times",
			Icon:        "😊",
			Requirement: Requirement{Kind: RequirementMoodEntries, Count: 10},
			RewardXP:    50,
		},
		{
			ID:          "level_up",
			Name:        "Rising Star",
			Description: "Reach level 10",
			Icon:        "🌟",
			Requirement: Requirement{Kind: RequirementLevel, Count: 10},
			RewardXP:    150,
		},
	}
}

// DefinitionByID looks up a catalog entry.
func DefinitionByID(id string) (Definition, bool) {
	for _, def := range Catalog() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Unlocked is one (user, achievement) unlock record. It is created exactly
// once and never mutated or removed.
type Unlocked struct {
	// UserID is the user who earned the badge.
	UserID string

	// AchievementID references the catalog entry.
	AchievementID string

	// UnlockedAt is when the badge was earned.
	UnlockedAt time.Time
}
