package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
)

func TestLogMoodValidation(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	_, err := f.logMood.Handle(context.Background(), LogMoodCommand{
		UserID:      "demo",
		MoodRating:  0,
		EnergyLevel: 3,
	})
	assert.True(t, shared.IsValidation(err))

	_, err = f.logMood.Handle(context.Background(), LogMoodCommand{
		UserID:      "demo",
		MoodRating:  3,
		EnergyLevel: 6,
	})
	assert.True(t, shared.IsValidation(err))
}

func TestLogMoodReplacePolicySameDayCountsOnce(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	ctx := context.Background()
	_, err := f.logMood.Handle(ctx, LogMoodCommand{UserID: "demo", MoodRating: 2, EnergyLevel: 2})
	require.NoError(t, err)

	// Second entry the same day replaces the first.
	_, err = f.logMood.Handle(ctx, LogMoodCommand{UserID: "demo", MoodRating: 5, EnergyLevel: 4})
	require.NoError(t, err)

	count, err := f.store.MoodRepository().CountByUser(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := f.store.MoodRepository().GetMostRecent(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 5, latest.MoodRating.Int())
}

func TestLogMoodTrackerUnlock(t *testing.T) {
	f := newFixture(t)
	f.mustUser(t, "demo")

	ctx := context.Background()
	var last *LogMoodResult
	for day := 0; day < 10; day++ {
		var err error
		last, err = f.logMood.Handle(ctx, LogMoodCommand{UserID: "demo", MoodRating: 4, EnergyLevel: 3})
		require.NoError(t, err)
		f.clock.AdvanceDays(1)
	}

	assert.Contains(t, achievementIDs(last.NewAchievements), "mood_tracker")

	// Reward XP from the badge was persisted on the user.
	u, err := f.store.UserRepository().GetByID(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 50, int(u.TotalXP))
}

func TestLogMoodUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.logMood.Handle(context.Background(), LogMoodCommand{
		UserID:      "ghost",
		MoodRating:  3,
		EnergyLevel: 3,
	})
	assert.True(t, shared.IsNotFound(err))
}
