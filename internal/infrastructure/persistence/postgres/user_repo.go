// Package postgres implements the PostgreSQL persistence layer of the
// progression engine.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, display_name, total_xp, current_level, current_streak,
			longest_streak, theme, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID,
		u.DisplayName,
		int(u.TotalXP),
		int(u.CurrentLevel),
		u.CurrentStreak,
		u.LongestStreak,
		string(u.Theme),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `
		SELECT id, display_name, total_xp, current_level, current_streak,
			   longest_streak, theme, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanUser(row)
}

// Update persists changed progression state.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			display_name = $1,
			total_xp = $2,
			current_level = $3,
			current_streak = $4,
			longest_streak = $5,
			theme = $6,
			updated_at = $7
		WHERE id = $8
	`

	tag, err := r.conn.Exec(ctx, query,
		u.DisplayName,
		int(u.TotalXP),
		int(u.CurrentLevel),
		u.CurrentStreak,
		u.LongestStreak,
		string(u.Theme),
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// Exists reports whether a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// scanUser maps a row onto the user entity.
func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u       user.User
		totalXP int
		level   int
		theme   string
	)

	err := row.Scan(
		&u.ID,
		&u.DisplayName,
		&totalXP,
		&level,
		&u.CurrentStreak,
		&u.LongestStreak,
		&theme,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.TotalXP = shared.XP(totalXP)
	u.CurrentLevel = shared.Level(level)
	u.Theme = user.WorldTheme(theme)
	return &u, nil
}
