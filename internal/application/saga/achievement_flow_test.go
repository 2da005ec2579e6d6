package saga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/memory"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

func newEvaluator(store *memory.Store) *AchievementEvaluator {
	clock := &timeutil.FixedClock{Instant: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewAchievementEvaluator(
		store.HabitRepository(),
		store.CompletionRepository(),
		store.MoodRepository(),
		store.UnlockRepository(),
		nil,
		clock,
		nil,
	)
}

func newTestUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser(user.NewUserParams{ID: "demo", DisplayName: "Demo User"})
	require.NoError(t, err)
	return u
}

func TestEvaluateAllIsExactlyOnce(t *testing.T) {
	store := memory.NewStore()
	evaluator := newEvaluator(store)
	u := newTestUser(t)
	u.AddXP(500)

	ctx := context.Background()

	first, err := evaluator.EvaluateAll(ctx, u)
	require.NoError(t, err)
	require.True(t, first.HasNewAchievements())
	assert.Equal(t, "xp_master", first.NewAchievements[0].ID)

	// A second pass with the same state unlocks nothing more.
	second, err := evaluator.EvaluateAll(ctx, u)
	require.NoError(t, err)
	assert.False(t, second.HasNewAchievements())
	assert.Zero(t, second.TotalRewardXP)
}

func TestEvaluateAllRewardCascadesWithinPass(t *testing.T) {
	store := memory.NewStore()
	evaluator := newEvaluator(store)
	u := newTestUser(t)

	// 450 XP alone does not satisfy xp_master; the streak reward pushes
	// the total over 500 mid-pass.
	u.AddXP(450)
	require.NoError(t, u.ApplyStreak(7, 7))

	result, err := evaluator.EvaluateAll(context.Background(), u)
	require.NoError(t, err)

	var ids []string
	for _, def := range result.NewAchievements {
		ids = append(ids, def.ID)
	}
	assert.Contains(t, ids, "week_warrior")
	assert.Contains(t, ids, "xp_master")
	assert.Equal(t, 650, int(u.TotalXP))
}

func TestEvaluateAllLevelRequirement(t *testing.T) {
	store := memory.NewStore()
	evaluator := newEvaluator(store)
	u := newTestUser(t)

	// Level 10 needs 4500 XP.
	u.AddXP(4500)

	result, err := evaluator.EvaluateAll(context.Background(), u)
	require.NoError(t, err)

	var ids []string
	for _, def := range result.NewAchievements {
		ids = append(ids, def.ID)
	}
	assert.Contains(t, ids, "level_up")
	assert.Contains(t, ids, "xp_master")
}
