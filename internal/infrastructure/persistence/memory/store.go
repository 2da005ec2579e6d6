// Package memory provides an in-memory implementation of every repository
// interface. It backs tests and local development runs without Postgres.
// All repositories share one Store so cross-aggregate reads stay coherent.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// Store holds all in-memory state behind a single mutex. Maps are keyed the
// same way the Postgres schema constrains them, so the uniqueness semantics
// match the production store.
type Store struct {
	mu sync.RWMutex

	// txMu serializes WithinTx blocks so a rollback cannot clobber a
	// concurrent transaction's writes.
	txMu sync.Mutex

	users map[string]*user.User

	habits     map[string]*habit.Habit
	habitOrder []string

	// completions is keyed by (habitID, day); the key collision is the
	// same idempotency guard the UNIQUE constraint gives Postgres.
	completions     map[completionKey]*habit.Completion
	completionOrder []completionKey

	// moods holds entries in insert order. moodByDay indexes the latest
	// entry per (user, day) for the replace policy.
	moods     []*habit.MoodEntry
	moodByDay map[moodKey]int

	unlocks map[unlockKey]*achievement.Unlocked
	// unlockOrder preserves unlock order per user for listing.
	unlockOrder []unlockKey
}

type completionKey struct {
	habitID string
	day     string
}

type moodKey struct {
	userID string
	day    string
}

type unlockKey struct {
	userID        string
	achievementID string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*user.User),
		habits:      make(map[string]*habit.Habit),
		completions: make(map[completionKey]*habit.Completion),
		moodByDay:   make(map[moodKey]int),
		unlocks:     make(map[unlockKey]*achievement.Unlocked),
	}
}

// UserRepository returns the user repository view of the store.
func (s *Store) UserRepository() *UserRepository {
	return &UserRepository{store: s}
}

// HabitRepository returns the habit repository view of the store.
func (s *Store) HabitRepository() *HabitRepository {
	return &HabitRepository{store: s}
}

// CompletionRepository returns the completion repository view of the store.
func (s *Store) CompletionRepository() *CompletionRepository {
	return &CompletionRepository{store: s}
}

// MoodRepository returns the mood repository view of the store.
func (s *Store) MoodRepository() *MoodRepository {
	return &MoodRepository{store: s}
}

// UnlockRepository returns the achievement unlock repository view.
func (s *Store) UnlockRepository() *UnlockRepository {
	return &UnlockRepository{store: s}
}

// WithinTx runs fn and restores the prior state when it fails, so a
// multi-write command applies all of its mutations or none of them. This
// mirrors the transactional path of the Postgres store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// stateSnapshot is a shallow copy of the store. Stored values are cloned
// on write and never mutated in place, so copying the containers is
// enough to roll back.
type stateSnapshot struct {
	users           map[string]*user.User
	habits          map[string]*habit.Habit
	habitOrder      []string
	completions     map[completionKey]*habit.Completion
	completionOrder []completionKey
	moods           []*habit.MoodEntry
	moodByDay       map[moodKey]int
	unlocks         map[unlockKey]*achievement.Unlocked
	unlockOrder     []unlockKey
}

func (s *Store) snapshot() stateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := stateSnapshot{
		users:           make(map[string]*user.User, len(s.users)),
		habits:          make(map[string]*habit.Habit, len(s.habits)),
		habitOrder:      append([]string(nil), s.habitOrder...),
		completions:     make(map[completionKey]*habit.Completion, len(s.completions)),
		completionOrder: append([]completionKey(nil), s.completionOrder...),
		moods:           append([]*habit.MoodEntry(nil), s.moods...),
		moodByDay:       make(map[moodKey]int, len(s.moodByDay)),
		unlocks:         make(map[unlockKey]*achievement.Unlocked, len(s.unlocks)),
		unlockOrder:     append([]unlockKey(nil), s.unlockOrder...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.habits {
		snap.habits[k] = v
	}
	for k, v := range s.completions {
		snap.completions[k] = v
	}
	for k, v := range s.moodByDay {
		snap.moodByDay[k] = v
	}
	for k, v := range s.unlocks {
		snap.unlocks[k] = v
	}
	return snap
}

func (s *Store) restore(snap stateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.users
	s.habits = snap.habits
	s.habitOrder = snap.habitOrder
	s.completions = snap.completions
	s.completionOrder = snap.completionOrder
	s.moods = snap.moods
	s.moodByDay = snap.moodByDay
	s.unlocks = snap.unlocks
	s.unlockOrder = snap.unlockOrder
}

// dayKey collapses a timestamp to its calendar day.
func dayKey(t time.Time) string {
	return timeutil.FormatDateStr(t)
}
