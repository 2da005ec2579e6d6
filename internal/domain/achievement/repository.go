package achievement

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// UnlockRepository defines the persistence operations for unlock records.
// Implementations live in infrastructure/persistence.
type UnlockRepository interface {
	// Unlock conditionally inserts an unlock record. It reports
	// inserted=false without error when the (user, achievement) pair
	// already exists. The store's uniqueness constraint makes unlocking
	// exactly-once even under concurrent evaluation.
	Unlock(ctx context.Context, userID, achievementID string, at time.Time) (inserted bool, err error)

	// ListByUser returns the user's unlock records in unlock order.
	ListByUser(ctx context.Context, userID string) ([]*Unlocked, error)

	// UnlockedIDs returns the set of achievement IDs the user has unlocked.
	UnlockedIDs(ctx context.Context, userID string) (map[string]bool, error)
}
