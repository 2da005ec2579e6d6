// Package postgres implements the PostgreSQL persistence layer of the
// progression engine.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HABIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HabitRepository implements habit.Repository for PostgreSQL.
type HabitRepository struct {
	conn *Connection
}

// NewHabitRepository creates a new HabitRepository.
func NewHabitRepository(conn *Connection) *HabitRepository {
	return &HabitRepository{conn: conn}
}

// Create stores a new habit.
func (r *HabitRepository) Create(ctx context.Context, h *habit.Habit) error {
	query := `
		INSERT INTO habits (id, user_id, name, description, category, difficulty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		h.ID,
		h.UserID,
		h.Name,
		h.Description,
		h.Category.String(),
		h.Difficulty.Int(),
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	return nil
}

// GetByID returns a habit by ID.
func (r *HabitRepository) GetByID(ctx context.Context, id string) (*habit.Habit, error) {
	query := `
		SELECT id, user_id, name, description, category, difficulty, created_at
		FROM habits
		WHERE id = $1
	`

	return r.scanHabit(r.conn.QueryRow(ctx, query, id))
}

// ListByUser returns all habits of a user, oldest first.
func (r *HabitRepository) ListByUser(ctx context.Context, userID string) ([]*habit.Habit, error) {
	query := `
		SELECT id, user_id, name, description, category, difficulty, created_at
		FROM habits
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*habit.Habit
	for rows.Next() {
		h, err := r.scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// CountByUser returns how many habits a user owns.
func (r *HabitRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM habits WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count habits: %w", err)
	}
	return count, nil
}

// scanHabit maps a row onto the habit entity.
func (r *HabitRepository) scanHabit(row pgx.Row) (*habit.Habit, error) {
	var (
		h          habit.Habit
		category   string
		difficulty int
	)

	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&category,
		&difficulty,
		&h.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}

	h.Category = habit.Category(category)
	h.Difficulty = habit.Difficulty(difficulty)
	return &h, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository implements habit.CompletionRepository for PostgreSQL.
// The uq_completion_per_day constraint is the idempotency enforcement point;
// ON CONFLICT DO NOTHING turns a duplicate into inserted=false.
type CompletionRepository struct {
	conn *Connection
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(conn *Connection) *CompletionRepository {
	return &CompletionRepository{conn: conn}
}

// Create conditionally inserts a completion.
func (r *CompletionRepository) Create(ctx context.Context, c *habit.Completion) (bool, error) {
	query := `
		INSERT INTO completions (id, habit_id, user_id, date, mood_rating, energy_level, xp_awarded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (habit_id, date) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query,
		c.ID,
		c.HabitID,
		c.UserID,
		c.Date,
		nullableRating(c.MoodRating),
		nullableRating(c.EnergyLevel),
		c.XPAwarded,
		c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create completion: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetForDay returns the completion of a habit on a calendar day.
func (r *CompletionRepository) GetForDay(ctx context.Context, habitID string, day time.Time) (*habit.Completion, error) {
	query := `
		SELECT id, habit_id, user_id, date, mood_rating, energy_level, xp_awarded, created_at
		FROM completions
		WHERE habit_id = $1 AND date = $2
	`

	return r.scanCompletion(r.conn.QueryRow(ctx, query, habitID, day))
}

// HasOnDay reports whether the user completed any habit on the day.
func (r *CompletionRepository) HasOnDay(ctx context.Context, userID string, day time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM completions WHERE user_id = $1 AND date = $2)",
		userID, day,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completions: %w", err)
	}
	return exists, nil
}

// CountOnDay returns how many habits the user completed on the day.
func (r *CompletionRepository) CountOnDay(ctx context.Context, userID string, day time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM completions WHERE user_id = $1 AND date = $2",
		userID, day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}

// CountByUser returns the user's lifetime completion count.
func (r *CompletionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM completions WHERE user_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}

// ListByUserBetween returns completions in the inclusive date range,
// ascending by date.
func (r *CompletionRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*habit.Completion, error) {
	query := `
		SELECT id, habit_id, user_id, date, mood_rating, energy_level, xp_awarded, created_at
		FROM completions
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.conn.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	var completions []*habit.Completion
	for rows.Next() {
		c, err := r.scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// ListCompletedHabitIDs returns the habits the user completed on the day.
func (r *CompletionRepository) ListCompletedHabitIDs(ctx context.Context, userID string, day time.Time) ([]string, error) {
	query := `
		SELECT habit_id FROM completions
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at
	`

	rows, err := r.conn.Query(ctx, query, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed habits: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan habit id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCompletionDays returns the user's distinct completion days, most
// recent first.
func (r *CompletionRepository) ListCompletionDays(ctx context.Context, userID string) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date FROM completions
		WHERE user_id = $1
		ORDER BY date DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan completion day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// scanCompletion maps a row onto the completion record.
func (r *CompletionRepository) scanCompletion(row pgx.Row) (*habit.Completion, error) {
	var (
		c      habit.Completion
		mood   *int
		energy *int
	)

	err := row.Scan(
		&c.ID,
		&c.HabitID,
		&c.UserID,
		&c.Date,
		&mood,
		&energy,
		&c.XPAwarded,
		&c.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan completion: %w", err)
	}

	if mood != nil {
		c.MoodRating = *mood
	}
	if energy != nil {
		c.EnergyLevel = *energy
	}
	return &c, nil
}

// nullableRating maps a zero "not captured" rating to NULL.
func nullableRating(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// ══════════════════════════════════════════════════════════════════════════════
// MOOD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MoodRepository implements habit.MoodRepository for PostgreSQL.
type MoodRepository struct {
	conn *Connection
}

// NewMoodRepository creates a new MoodRepository.
func NewMoodRepository(conn *Connection) *MoodRepository {
	return &MoodRepository{conn: conn}
}

// Upsert inserts the entry, replacing any existing entries the user has
// for the same day. Delete-then-insert in one transaction, because the
// append policy means the table carries no per-day uniqueness to conflict
// against.
func (r *MoodRepository) Upsert(ctx context.Context, e *habit.MoodEntry) error {
	return r.conn.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.conn.Exec(ctx,
			"DELETE FROM mood_entries WHERE user_id = $1 AND date = $2",
			e.UserID, e.Date,
		); err != nil {
			return fmt.Errorf("failed to replace mood entry: %w", err)
		}

		_, err := r.conn.Exec(ctx, `
			INSERT INTO mood_entries (id, user_id, date, mood_rating, energy_level, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			e.ID,
			e.UserID,
			e.Date,
			e.MoodRating.Int(),
			e.EnergyLevel.Int(),
			e.Notes,
			e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert mood entry: %w", err)
		}
		return nil
	})
}

// Create always inserts a new entry.
func (r *MoodRepository) Create(ctx context.Context, e *habit.MoodEntry) error {
	query := `
		INSERT INTO mood_entries (id, user_id, date, mood_rating, energy_level, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Date,
		e.MoodRating.Int(),
		e.EnergyLevel.Int(),
		e.Notes,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mood entry: %w", err)
	}
	return nil
}

// GetMostRecent returns the user's latest entry.
func (r *MoodRepository) GetMostRecent(ctx context.Context, userID string) (*habit.MoodEntry, error) {
	query := `
		SELECT id, user_id, date, mood_rating, energy_level, notes, created_at
		FROM mood_entries
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT 1
	`

	return r.scanMoodEntry(r.conn.QueryRow(ctx, query, userID))
}

// CountByUser returns the user's lifetime mood entry count.
func (r *MoodRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM mood_entries WHERE user_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mood entries: %w", err)
	}
	return count, nil
}

// ListByUserBetween returns entries in the inclusive date range,
// ascending by date.
func (r *MoodRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*habit.MoodEntry, error) {
	query := `
		SELECT id, user_id, date, mood_rating, energy_level, notes, created_at
		FROM mood_entries
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.conn.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood entries: %w", err)
	}
	defer rows.Close()

	var entries []*habit.MoodEntry
	for rows.Next() {
		e, err := r.scanMoodEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanMoodEntry maps a row onto the mood entry.
func (r *MoodRepository) scanMoodEntry(row pgx.Row) (*habit.MoodEntry, error) {
	var (
		e      habit.MoodEntry
		mood   int
		energy int
	)

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Date,
		&mood,
		&energy,
		&e.Notes,
		&e.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan mood entry: %w", err)
	}

	e.MoodRating = shared.Rating(mood)
	e.EnergyLevel = shared.Rating(energy)
	return &e, nil
}
