package memory

import (
	"context"
	"sort"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HABITS
// ══════════════════════════════════════════════════════════════════════════════

// HabitRepository is the in-memory implementation of habit.Repository.
type HabitRepository struct {
	store *Store
}

// Create stores a new habit.
func (r *HabitRepository) Create(ctx context.Context, h *habit.Habit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *h
	r.store.habits[h.ID] = &copied
	r.store.habitOrder = append(r.store.habitOrder, h.ID)
	return nil
}

// GetByID returns a copy of the stored habit.
func (r *HabitRepository) GetByID(ctx context.Context, id string) (*habit.Habit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	h, ok := r.store.habits[id]
	if !ok {
		return nil, shared.ErrHabitNotFound
	}
	copied := *h
	return &copied, nil
}

// ListByUser returns the user's habits in creation order.
func (r *HabitRepository) ListByUser(ctx context.Context, userID string) ([]*habit.Habit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*habit.Habit
	for _, id := range r.store.habitOrder {
		h := r.store.habits[id]
		if h.UserID == userID {
			copied := *h
			result = append(result, &copied)
		}
	}
	return result, nil
}

// CountByUser returns how many habits a user owns.
func (r *HabitRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, h := range r.store.habits {
		if h.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETIONS
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRepository is the in-memory implementation of
// habit.CompletionRepository. The (habit, day) map key is the idempotency
// enforcement point.
type CompletionRepository struct {
	store *Store
}

// Create conditionally inserts a completion.
func (r *CompletionRepository) Create(ctx context.Context, c *habit.Completion) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := completionKey{habitID: c.HabitID, day: dayKey(c.Date)}
	if _, ok := r.store.completions[key]; ok {
		return false, nil
	}

	copied := *c
	r.store.completions[key] = &copied
	r.store.completionOrder = append(r.store.completionOrder, key)
	return true, nil
}

// GetForDay returns the completion of a habit on a calendar day.
func (r *CompletionRepository) GetForDay(ctx context.Context, habitID string, day time.Time) (*habit.Completion, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.completions[completionKey{habitID: habitID, day: dayKey(day)}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// HasOnDay reports whether the user completed any habit on the day.
func (r *CompletionRepository) HasOnDay(ctx context.Context, userID string, day time.Time) (bool, error) {
	count, err := r.CountOnDay(ctx, userID, day)
	return count > 0, err
}

// CountOnDay returns how many habits the user completed on the day.
func (r *CompletionRepository) CountOnDay(ctx context.Context, userID string, day time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	key := dayKey(day)
	count := 0
	for ck, c := range r.store.completions {
		if c.UserID == userID && ck.day == key {
			count++
		}
	}
	return count, nil
}

// CountByUser returns the user's lifetime completion count.
func (r *CompletionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, c := range r.store.completions {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ListByUserBetween returns completions in the inclusive date range,
// ascending by date.
func (r *CompletionRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*habit.Completion, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	fromKey := dayKey(from)
	toKey := dayKey(to)

	var result []*habit.Completion
	for _, ck := range r.store.completionOrder {
		c := r.store.completions[ck]
		if c.UserID != userID || ck.day < fromKey || ck.day > toKey {
			continue
		}
		copied := *c
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ListCompletedHabitIDs returns the habits the user completed on the day.
func (r *CompletionRepository) ListCompletedHabitIDs(ctx context.Context, userID string, day time.Time) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	key := dayKey(day)
	var ids []string
	for _, ck := range r.store.completionOrder {
		c := r.store.completions[ck]
		if c.UserID == userID && ck.day == key {
			ids = append(ids, c.HabitID)
		}
	}
	return ids, nil
}

// ListCompletionDays returns the user's distinct completion days, most
// recent first.
func (r *CompletionRepository) ListCompletionDays(ctx context.Context, userID string) ([]time.Time, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]time.Time)
	for _, c := range r.store.completions {
		if c.UserID == userID {
			seen[dayKey(c.Date)] = timeutil.DateOf(c.Date)
		}
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})
	return days, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MOOD ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

// MoodRepository is the in-memory implementation of habit.MoodRepository.
type MoodRepository struct {
	store *Store
}

// Upsert inserts the entry or replaces the user's entry for the same day.
func (r *MoodRepository) Upsert(ctx context.Context, e *habit.MoodEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *e
	key := moodKey{userID: e.UserID, day: dayKey(e.Date)}
	if idx, ok := r.store.moodByDay[key]; ok {
		r.store.moods[idx] = &copied
		return nil
	}

	r.store.moods = append(r.store.moods, &copied)
	r.store.moodByDay[key] = len(r.store.moods) - 1
	return nil
}

// Create always inserts a new entry.
func (r *MoodRepository) Create(ctx context.Context, e *habit.MoodEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *e
	r.store.moods = append(r.store.moods, &copied)
	key := moodKey{userID: e.UserID, day: dayKey(e.Date)}
	r.store.moodByDay[key] = len(r.store.moods) - 1
	return nil
}

// GetMostRecent returns the user's latest entry.
func (r *MoodRepository) GetMostRecent(ctx context.Context, userID string) (*habit.MoodEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *habit.MoodEntry
	for _, e := range r.store.moods {
		if e.UserID != userID {
			continue
		}
		if latest == nil || e.Date.After(latest.Date) || (e.Date.Equal(latest.Date) && e.CreatedAt.After(latest.CreatedAt)) {
			latest = e
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

// CountByUser returns the user's lifetime mood entry count.
func (r *MoodRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, e := range r.store.moods {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ListByUserBetween returns entries in the inclusive date range, ascending
// by date.
func (r *MoodRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*habit.MoodEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	fromKey := dayKey(from)
	toKey := dayKey(to)

	var result []*habit.MoodEntry
	for _, e := range r.store.moods {
		key := dayKey(e.Date)
		if e.UserID != userID || key < fromKey || key > toKey {
			continue
		}
		copied := *e
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}
