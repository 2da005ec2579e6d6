package memory

import (
	"context"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
)

// UnlockRepository is the in-memory implementation of
// achievement.UnlockRepository. The (user, achievement) map key makes the
// unlock exactly-once, mirroring the UNIQUE constraint in Postgres.
type UnlockRepository struct {
	store *Store
}

// Unlock conditionally inserts an unlock record.
func (r *UnlockRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := unlockKey{userID: userID, achievementID: achievementID}
	if _, ok := r.store.unlocks[key]; ok {
		return false, nil
	}

	r.store.unlocks[key] = &achievement.Unlocked{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    at,
	}
	r.store.unlockOrder = append(r.store.unlockOrder, key)
	return true, nil
}

// ListByUser returns the user's unlock records in unlock order.
func (r *UnlockRepository) ListByUser(ctx context.Context, userID string) ([]*achievement.Unlocked, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*achievement.Unlocked
	for _, key := range r.store.unlockOrder {
		if key.userID != userID {
			continue
		}
		copied := *r.store.unlocks[key]
		result = append(result, &copied)
	}
	return result, nil
}

// UnlockedIDs returns the set of achievement IDs the user has unlocked.
func (r *UnlockRepository) UnlockedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make(map[string]bool)
	for key := range r.store.unlocks {
		if key.userID == userID {
			ids[key.achievementID] = true
		}
	}
	return ids, nil
}
