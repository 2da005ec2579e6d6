// Package postgres implements the PostgreSQL persistence layer of the
// progression engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users table
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    theme VARCHAR(20) NOT NULL DEFAULT 'forest',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Progression invariants
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (current_level >= 1),
    CONSTRAINT valid_streaks CHECK (
        current_streak >= 0 AND longest_streak >= current_streak
    ),
    CONSTRAINT valid_theme CHECK (theme IN ('forest', 'ocean', 'space', 'city'))
);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE HABITS, COMPLETIONS, MOOD ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create habits, completions and mood entries
-- Version: 002

CREATE TABLE IF NOT EXISTS habits (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(20) NOT NULL DEFAULT 'other',
    difficulty INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty BETWEEN 1 AND 5),
    CONSTRAINT valid_category CHECK (
        category IN ('fitness', 'wellness', 'productivity', 'focus', 'sleep', 'other')
    )
);

CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits(user_id, created_at);

CREATE TABLE IF NOT EXISTS completions (
    id UUID PRIMARY KEY,
    habit_id UUID NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    mood_rating INTEGER,
    energy_level INTEGER,
    xp_awarded INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- The idempotency anchor: at most one completion per habit per day.
    CONSTRAINT uq_completion_per_day UNIQUE (habit_id, date),
    CONSTRAINT valid_completion_mood CHECK (mood_rating IS NULL OR mood_rating BETWEEN 1 AND 5),
    CONSTRAINT valid_completion_energy CHECK (energy_level IS NULL OR energy_level BETWEEN 1 AND 5)
);

CREATE INDEX IF NOT EXISTS idx_completions_user_date ON completions(user_id, date DESC);

CREATE TABLE IF NOT EXISTS mood_entries (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date DATE NOT NULL,
    mood_rating INTEGER NOT NULL,
    energy_level INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_mood CHECK (mood_rating BETWEEN 1 AND 5),
    CONSTRAINT valid_energy CHECK (energy_level BETWEEN 1 AND 5)
);

-- No unique index on (user_id, date): the "append" same-day policy allows
-- several entries per day. The "replace" policy is enforced by the upsert.
CREATE INDEX IF NOT EXISTS idx_mood_entries_user_date ON mood_entries(user_id, date DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS mood_entries;
DROP TABLE IF EXISTS completions;
DROP TABLE IF EXISTS habits;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ACHIEVEMENT UNLOCKS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create achievement unlocks
-- Version: 003
-- The catalog itself lives in code; only unlock records are stored.

CREATE TABLE IF NOT EXISTS unlocked_achievements (
    user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    achievement_id VARCHAR(50) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Exactly-once unlocking.
    CONSTRAINT uq_unlock PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_unlocks_user ON unlocked_achievements(user_id, unlocked_at);
`

const migration003Down = `
DROP TABLE IF EXISTS unlocked_achievements;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_habits",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_achievement_unlocks",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
