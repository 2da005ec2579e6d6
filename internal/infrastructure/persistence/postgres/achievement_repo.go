// Package postgres implements the PostgreSQL persistence layer of the
// progression engine.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT UNLOCK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UnlockRepository implements achievement.UnlockRepository for PostgreSQL.
// The composite primary key on (user_id, achievement_id) carries the
// exactly-once guarantee; Unlock reports whether this call won the insert.
type UnlockRepository struct {
	conn *Connection
}

// NewUnlockRepository creates a new UnlockRepository.
func NewUnlockRepository(conn *Connection) *UnlockRepository {
	return &UnlockRepository{conn: conn}
}

// Unlock conditionally records an unlock. It returns true only when this
// call inserted the row, so concurrent evaluators cannot both credit the
// reward.
func (r *UnlockRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO unlocked_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query, userID, achievementID, at)
	if err != nil {
		return false, fmt.Errorf("failed to record unlock: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListByUser returns the user's unlock records ordered by unlock time.
func (r *UnlockRepository) ListByUser(ctx context.Context, userID string) ([]*achievement.Unlocked, error) {
	query := `
		SELECT user_id, achievement_id, unlocked_at
		FROM unlocked_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at, achievement_id
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	defer rows.Close()

	var result []*achievement.Unlocked
	for rows.Next() {
		var u achievement.Unlocked
		if err := rows.Scan(&u.UserID, &u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unlocks: %w", err)
	}

	return result, nil
}

// UnlockedIDs returns the set of achievement IDs the user has unlocked.
func (r *UnlockRepository) UnlockedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT achievement_id FROM unlocked_achievements WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocked ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unlocked ids: %w", err)
	}

	return ids, nil
}
