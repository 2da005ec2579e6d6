package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/memory"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// fixture wires the command handlers over the in-memory store with a
// controllable clock.
type fixture struct {
	store         *memory.Store
	clock         *timeutil.FixedClock
	createUser    *CreateUserHandler
	createHabit   *CreateHabitHandler
	completeHabit *CompleteHabitHandler
	logMood       *LogMoodHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := &timeutil.FixedClock{Instant: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	locks := NewUserLocks()

	evaluator := saga.NewAchievementEvaluator(
		store.HabitRepository(),
		store.CompletionRepository(),
		store.MoodRepository(),
		store.UnlockRepository(),
		nil,
		clock,
		nil,
	)

	return &fixture{
		store: store,
		clock: clock,
		createUser: NewCreateUserHandler(store.UserRepository(), nil, nil),
		createHabit: NewCreateHabitHandler(
			store.UserRepository(), store.HabitRepository(), store, evaluator, locks, nil, nil,
		),
		completeHabit: NewCompleteHabitHandler(
			store.UserRepository(), store.HabitRepository(), store.CompletionRepository(),
			store, evaluator, locks, nil, clock, nil,
		),
		logMood: NewLogMoodHandler(
			store.UserRepository(), store.MoodRepository(), store, evaluator, locks,
			PolicyReplace, nil, clock, nil,
		),
	}
}

func (f *fixture) mustUser(t *testing.T, id string) {
	t.Helper()
	_, err := f.createUser.Handle(context.Background(), CreateUserCommand{
		UserID:      id,
		DisplayName: "Demo User",
	})
	require.NoError(t, err)
}

func (f *fixture) mustHabit(t *testing.T, userID, name string, difficulty int) string {
	t.Helper()
	res, err := f.createHabit.Handle(context.Background(), CreateHabitCommand{
		UserID:     userID,
		Name:       name,
		Category:   "fitness",
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return res.HabitID
}

func achievementIDs(defs []achievement.Definition) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE HABIT
// ══════════════════════════════════════════════════════════════════════════════

func TestCompleteHabitFirstCompletion(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Morning Run", 3)

	res, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{
		UserID:  "demo",
		HabitID: habitID,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, res.XPEarned)
	assert.Equal(t, 1, res.CurrentStreak)
	// 30 XP from the completion plus 50 from the first-completion badge.
	assert.Equal(t, 80, res.TotalXP)
	assert.Contains(t, achievementIDs(res.NewAchievements), "first_habit")
}

func TestCompleteHabitSameDayIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Morning Run", 3)

	first, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{UserID: "demo", HabitID: habitID})
	require.NoError(t, err)

	// Later the same day, even across an hour boundary.
	f.clock.Advance(6 * time.Hour)

	second, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{UserID: "demo", HabitID: habitID})
	require.NoError(t, err)

	assert.Equal(t, 0, second.XPEarned)
	assert.False(t, second.LevelUp)
	assert.Empty(t, second.NewAchievements)
	assert.Equal(t, first.TotalXP, second.TotalXP)
	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
}

func TestCompleteHabitLevelUp(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Deep Work", 5)

	res, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{UserID: "demo", HabitID: habitID})
	require.NoError(t, err)

	// 50 XP from the completion plus 50 reward puts the user at 100,
	// exactly the level 2 threshold.
	assert.Equal(t, 100, res.TotalXP)
	assert.Equal(t, 2, res.CurrentLevel)
	assert.True(t, res.LevelUp)
}

func TestCompleteHabitStreakProgression(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Stretch", 1)

	ctx := context.Background()
	var last *CompleteHabitResult
	for day := 0; day < 7; day++ {
		var err error
		last, err = f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: habitID})
		require.NoError(t, err)
		assert.Equal(t, day+1, last.CurrentStreak)
		f.clock.AdvanceDays(1)
	}

	assert.Contains(t, achievementIDs(last.NewAchievements), "week_warrior")
}

func TestCompleteHabitSecondHabitSameDayDoesNotDoubleStreak(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	first := f.mustHabit(t, "demo", "Stretch", 1)
	second := f.mustHabit(t, "demo", "Read", 2)

	ctx := context.Background()
	_, err := f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: first})
	require.NoError(t, err)

	res, err := f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: second})
	require.NoError(t, err)
	assert.Equal(t, 20, res.XPEarned)
	assert.Equal(t, 1, res.CurrentStreak)
}

func TestCompleteHabitGapResetsStreak(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Stretch", 1)

	ctx := context.Background()
	for day := 0; day < 3; day++ {
		_, err := f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: habitID})
		require.NoError(t, err)
		f.clock.AdvanceDays(1)
	}

	// Skip two days.
	f.clock.AdvanceDays(2)

	res, err := f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: habitID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)

	u, err := f.store.UserRepository().GetByID(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 3, u.LongestStreak)
}

// brokenUnlockRepo fails every unlock write, standing in for a store
// outage in the middle of the mutation sequence.
type brokenUnlockRepo struct {
	achievement.UnlockRepository
}

func (brokenUnlockRepo) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	return false, shared.ErrStoreUnavailable
}

func TestCompleteHabitRollsBackOnEvaluatorFailure(t *testing.T) {
	store := memory.NewStore()
	clock := &timeutil.FixedClock{Instant: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	locks := NewUserLocks()

	evaluator := saga.NewAchievementEvaluator(
		store.HabitRepository(),
		store.CompletionRepository(),
		store.MoodRepository(),
		brokenUnlockRepo{store.UnlockRepository()},
		nil,
		clock,
		nil,
	)

	createUser := NewCreateUserHandler(store.UserRepository(), nil, nil)
	// Creating the first habit satisfies no achievement, so the broken
	// unlock write is never reached during setup.
	createHabit := NewCreateHabitHandler(
		store.UserRepository(), store.HabitRepository(), store, evaluator, locks, nil, nil,
	)
	completeHabit := NewCompleteHabitHandler(
		store.UserRepository(), store.HabitRepository(), store.CompletionRepository(),
		store, evaluator, locks, nil, clock, nil,
	)

	ctx := context.Background()
	_, err := createUser.Handle(ctx, CreateUserCommand{UserID: "demo", DisplayName: "Demo User"})
	require.NoError(t, err)
	habitRes, err := createHabit.Handle(ctx, CreateHabitCommand{
		UserID: "demo", Name: "Morning Run", Category: "fitness", Difficulty: 3,
	})
	require.NoError(t, err)

	_, err = completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: habitRes.HabitID})
	require.Error(t, err)

	// The failed attempt must leave no trace: no completion row, no XP, no
	// streak. A retry after the outage then awards XP normally.
	count, err := store.CompletionRepository().CountByUser(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	u, err := store.UserRepository().GetByID(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, int(u.TotalXP))
	assert.Equal(t, 0, u.CurrentStreak)
}

func TestCompleteHabitRejectsForeignHabit(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "alice")
	f.mustUser(t, "bob")
	habitID := f.mustHabit(t, "alice", "Journal", 2)

	_, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{
		UserID:  "bob",
		HabitID: habitID,
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteHabitUnknownHabit(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	_, err := f.completeHabit.Handle(context.Background(), CompleteHabitCommand{
		UserID:  "demo",
		HabitID: "missing",
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteHabitRewardChainsIntoSamePass(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Deep Work", 5)

	ctx := context.Background()

	// On day 7 the week_warrior reward pushes the total from 400 to 500,
	// so xp_master must unlock in that same pass, not a request later.
	var sawXPMaster bool
	for day := 0; day < 9; day++ {
		res, err := f.completeHabit.Handle(ctx, CompleteHabitCommand{UserID: "demo", HabitID: habitID})
		require.NoError(t, err)
		for _, def := range res.NewAchievements {
			if def.ID == "xp_master" {
				sawXPMaster = true
				assert.GreaterOrEqual(t, res.TotalXP, 500)
			}
		}
		f.clock.AdvanceDays(1)
	}

	require.True(t, sawXPMaster)

	u, err := f.store.UserRepository().GetByID(ctx, "demo")
	require.NoError(t, err)
	unlocked, err := f.store.UnlockRepository().UnlockedIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, unlocked["xp_master"])
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE HABIT
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateHabitCollectorUnlock(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	ctx := context.Background()
	var lastRes *CreateHabitResult
	names := []string{"Run", "Read", "Meditate", "Sleep Early", "Hydrate"}
	for _, name := range names {
		var err error
		lastRes, err = f.createHabit.Handle(ctx, CreateHabitCommand{
			UserID:     "demo",
			Name:       name,
			Difficulty: 2,
		})
		require.NoError(t, err)
	}

	assert.Contains(t, achievementIDs(lastRes.NewAchievements), "habit_collector")

	// Reward XP was persisted.
	u, err := f.store.UserRepository().GetByID(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 75, int(u.TotalXP))
}

func TestCreateHabitValidation(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	_, err := f.createHabit.Handle(context.Background(), CreateHabitCommand{
		UserID:     "demo",
		Name:       "Run",
		Difficulty: 6,
	})
	assert.True(t, shared.IsValidation(err))

	_, err = f.createHabit.Handle(context.Background(), CreateHabitCommand{
		UserID:     "demo",
		Name:       "Run",
		Category:   "astrology",
		Difficulty: 2,
	})
	assert.True(t, shared.IsValidation(err))
}

func TestCreateHabitUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.createHabit.Handle(context.Background(), CreateHabitCommand{
		UserID:     "ghost",
		Name:       "Run",
		Difficulty: 2,
	})
	assert.True(t, shared.IsNotFound(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE USER
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateUserDuplicate(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	_, err := f.createUser.Handle(context.Background(), CreateUserCommand{
		UserID:      "demo",
		DisplayName: "Someone Else",
	})
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestCreateUserStartsAtLevelOne(t *testing.T) {
	f := newFixture(t)

	res, err := f.createUser.Handle(context.Background(), CreateUserCommand{
		UserID:      "demo",
		DisplayName: "Demo User",
		Theme:       "ocean",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, "ocean", res.Theme)
}
