package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/application/command"
	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/memory"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// stubProvider returns canned coach output, or an error when broken.
type stubProvider struct {
	message     string
	suggestions []coaching.Suggestion
	broken      bool
}

func (p *stubProvider) GenerateCoachMessage(ctx context.Context, state coaching.Snapshot) (string, error) {
	if p.broken {
		return "", errors.New("provider down")
	}
	return p.message, nil
}

func (p *stubProvider) SuggestHabits(ctx context.Context, state coaching.Snapshot) ([]coaching.Suggestion, error) {
	if p.broken {
		return nil, errors.New("provider down")
	}
	return p.suggestions, nil
}

// queryFixture seeds state through the command handlers so reads observe
// exactly what the write path produces.
type queryFixture struct {
	store         *memory.Store
	clock         *timeutil.FixedClock
	createUser    *command.CreateUserHandler
	createHabit   *command.CreateHabitHandler
	completeHabit *command.CompleteHabitHandler
	logMood       *command.LogMoodHandler
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()

	store := memory.NewStore()
	clock := &timeutil.FixedClock{Instant: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	locks := command.NewUserLocks()

	evaluator := saga.NewAchievementEvaluator(
		store.HabitRepository(),
		store.CompletionRepository(),
		store.MoodRepository(),
		store.UnlockRepository(),
		nil,
		clock,
		nil,
	)

	return &queryFixture{
		store:      store,
		clock:      clock,
		createUser: command.NewCreateUserHandler(store.UserRepository(), nil, nil),
		createHabit: command.NewCreateHabitHandler(
			store.UserRepository(), store.HabitRepository(), store, evaluator, locks, nil, nil,
		),
		completeHabit: command.NewCompleteHabitHandler(
			store.UserRepository(), store.HabitRepository(), store.CompletionRepository(),
			store, evaluator, locks, nil, clock, nil,
		),
		logMood: command.NewLogMoodHandler(
			store.UserRepository(), store.MoodRepository(), store, evaluator, locks,
			command.PolicyReplace, nil, clock, nil,
		),
	}
}

func (f *queryFixture) seedUser(t *testing.T, id string) {
	t.Helper()
	_, err := f.createUser.Handle(context.Background(), command.CreateUserCommand{
		UserID:      id,
		DisplayName: "Demo User",
	})
	require.NoError(t, err)
}

func (f *queryFixture) seedHabit(t *testing.T, userID, name string, difficulty int) string {
	t.Helper()
	res, err := f.createHabit.Handle(context.Background(), command.CreateHabitCommand{
		UserID:     userID,
		Name:       name,
		Category:   "fitness",
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return res.HabitID
}

func (f *queryFixture) seedCompletion(t *testing.T, userID, habitID string) {
	t.Helper()
	_, err := f.completeHabit.Handle(context.Background(), command.CompleteHabitCommand{
		UserID:  userID,
		HabitID: habitID,
	})
	require.NoError(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestDashboardAggregatesState(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	run := f.seedHabit(t, "demo", "Morning Run", 3)
	read := f.seedHabit(t, "demo", "Read", 2)
	f.seedCompletion(t, "demo", run)

	_, err := f.logMood.Handle(context.Background(), command.LogMoodCommand{
		UserID: "demo", MoodRating: 4, EnergyLevel: 3,
	})
	require.NoError(t, err)

	handler := NewGetDashboardHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(),
		&stubProvider{message: "Nice pace!"}, f.clock, nil,
	)

	dto, err := handler.Handle(context.Background(), GetDashboardQuery{UserID: "demo"})
	require.NoError(t, err)

	assert.Equal(t, "demo", dto.User.UserID)
	assert.Equal(t, 2, dto.TotalHabits)
	assert.Equal(t, 1, dto.TodayCompletions)
	assert.InDelta(t, 0.5, dto.CompletionRate, 1e-9)
	assert.Equal(t, "Nice pace!", dto.AIMessage)

	// The quest points at the first habit not yet done today.
	require.NotNil(t, dto.DailyQuest)
	assert.Equal(t, read, dto.DailyQuest.HabitID)
	assert.Equal(t, "Complete Read", dto.DailyQuest.Title)
	assert.Equal(t, 20, dto.DailyQuest.XPReward)

	require.NotNil(t, dto.RecentMood)
	assert.Equal(t, 4, dto.RecentMood.MoodRating)

	// first_habit unlocked by the completion above.
	require.NotEmpty(t, dto.Achievements)
	assert.Equal(t, "first_habit", dto.Achievements[0].ID)
	assert.Equal(t, "Baby Steps", dto.Achievements[0].Name)
}

func TestDashboardQuestNilWhenAllDone(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	run := f.seedHabit(t, "demo", "Morning Run", 3)
	f.seedCompletion(t, "demo", run)

	handler := NewGetDashboardHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(), nil, f.clock, nil,
	)

	dto, err := handler.Handle(context.Background(), GetDashboardQuery{UserID: "demo"})
	require.NoError(t, err)
	assert.Nil(t, dto.DailyQuest)
	assert.InDelta(t, 1.0, dto.CompletionRate, 1e-9)
	assert.Nil(t, dto.RecentMood)
}

func TestDashboardCoachFallbacks(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")

	// No provider configured.
	handler := NewGetDashboardHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(), nil, f.clock, nil,
	)
	dto, err := handler.Handle(context.Background(), GetDashboardQuery{UserID: "demo"})
	require.NoError(t, err)
	assert.Equal(t, coachFallbackUnavailable, dto.AIMessage)

	// Provider configured but failing.
	handler = NewGetDashboardHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(),
		&stubProvider{broken: true}, f.clock, nil,
	)
	dto, err = handler.Handle(context.Background(), GetDashboardQuery{UserID: "demo"})
	require.NoError(t, err)
	assert.Equal(t, coachFallbackError, dto.AIMessage)
}

func TestDashboardUnknownUser(t *testing.T) {
	f := newQueryFixture(t)
	handler := NewGetDashboardHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(), nil, f.clock, nil,
	)

	_, err := handler.Handle(context.Background(), GetDashboardQuery{UserID: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

func TestAnalyticsWindowIsDenseAndAscending(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	habitID := f.seedHabit(t, "demo", "Stretch", 2)

	// Complete on three days, with a gap before today.
	f.seedCompletion(t, "demo", habitID)
	f.clock.AdvanceDays(1)
	f.seedCompletion(t, "demo", habitID)
	f.clock.AdvanceDays(2)
	f.seedCompletion(t, "demo", habitID)

	_, err := f.logMood.Handle(context.Background(), command.LogMoodCommand{
		UserID: "demo", MoodRating: 5, EnergyLevel: 4,
	})
	require.NoError(t, err)

	handler := NewGetAnalyticsHandler(
		f.store.UserRepository(), f.store.CompletionRepository(), f.store.MoodRepository(), f.clock,
	)
	dto, err := handler.Handle(context.Background(), GetAnalyticsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, dto.DailyData, AnalyticsWindowDays)

	// Dense ascending dates, ending today.
	today := timeutil.DateOf(f.clock.Now())
	for i, bucket := range dto.DailyData {
		expected := today.AddDate(0, 0, -(AnalyticsWindowDays - 1 - i))
		assert.Equal(t, timeutil.FormatDateStr(expected), bucket.Date)
	}

	last := dto.DailyData[AnalyticsWindowDays-1]
	assert.Equal(t, 1, last.Completions)
	assert.Equal(t, 20, last.XPEarned)
	require.NotNil(t, last.Mood)
	assert.Equal(t, 5, *last.Mood)

	// The empty day between completions stays zero with nil mood.
	gap := dto.DailyData[AnalyticsWindowDays-2]
	assert.Zero(t, gap.Completions)
	assert.Nil(t, gap.Mood)

	assert.Equal(t, 3, dto.TotalCompletions)
	assert.Equal(t, 60, dto.TotalXP)
	// Today's completion restarted the run after the gap.
	assert.Equal(t, 1, dto.CurrentStreak)
	assert.Equal(t, 2, dto.LongestStreak)
	assert.InDelta(t, 5.0, dto.AvgMood, 1e-9)
}

func TestAnalyticsAppendPolicyBucketShowsLatestEntry(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")

	// Under the append policy a day can hold several entries. The daily
	// bucket shows the latest one; the window scalars average all of them.
	evaluator := saga.NewAchievementEvaluator(
		f.store.HabitRepository(), f.store.CompletionRepository(),
		f.store.MoodRepository(), f.store.UnlockRepository(), nil, f.clock, nil,
	)
	logMood := command.NewLogMoodHandler(
		f.store.UserRepository(), f.store.MoodRepository(), f.store, evaluator,
		command.NewUserLocks(), command.PolicyAppend, nil, f.clock, nil,
	)

	ctx := context.Background()
	_, err := logMood.Handle(ctx, command.LogMoodCommand{UserID: "demo", MoodRating: 2, EnergyLevel: 1})
	require.NoError(t, err)
	f.clock.Advance(6 * time.Hour)
	_, err = logMood.Handle(ctx, command.LogMoodCommand{UserID: "demo", MoodRating: 4, EnergyLevel: 5})
	require.NoError(t, err)

	handler := NewGetAnalyticsHandler(
		f.store.UserRepository(), f.store.CompletionRepository(), f.store.MoodRepository(), f.clock,
	)
	dto, err := handler.Handle(ctx, GetAnalyticsQuery{UserID: "demo"})
	require.NoError(t, err)

	today := dto.DailyData[AnalyticsWindowDays-1]
	require.NotNil(t, today.Mood)
	assert.Equal(t, 4, *today.Mood)
	require.NotNil(t, today.Energy)
	assert.Equal(t, 5, *today.Energy)

	assert.InDelta(t, 3.0, dto.AvgMood, 1e-9)
	assert.InDelta(t, 3.0, dto.AvgEnergy, 1e-9)
}

func TestAnalyticsLapsedStreakReadsZero(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	habitID := f.seedHabit(t, "demo", "Stretch", 2)

	f.seedCompletion(t, "demo", habitID)
	f.clock.AdvanceDays(1)
	f.seedCompletion(t, "demo", habitID)

	// Three idle days. The stored counter still says 2, but the read
	// side must report a lapsed run as zero.
	f.clock.AdvanceDays(3)

	handler := NewGetAnalyticsHandler(
		f.store.UserRepository(), f.store.CompletionRepository(), f.store.MoodRepository(), f.clock,
	)
	dto, err := handler.Handle(context.Background(), GetAnalyticsQuery{UserID: "demo"})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.CurrentStreak)
	assert.Equal(t, 2, dto.LongestStreak)
}

// ══════════════════════════════════════════════════════════════════════════════
// HABITS & ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetHabitsMarksCompletedToday(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	run := f.seedHabit(t, "demo", "Morning Run", 3)
	f.seedHabit(t, "demo", "Read", 2)
	f.seedCompletion(t, "demo", run)

	handler := NewGetHabitsHandler(
		f.store.UserRepository(), f.store.HabitRepository(), f.store.CompletionRepository(), f.clock,
	)
	habits, err := handler.Handle(context.Background(), GetHabitsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, habits, 2)
	assert.Equal(t, "Morning Run", habits[0].Name)
	assert.True(t, habits[0].CompletedToday)
	assert.False(t, habits[1].CompletedToday)
	assert.Equal(t, 30, habits[0].XPReward)
}

func TestGetAchievementsAnnotatesUnlockState(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	habitID := f.seedHabit(t, "demo", "Morning Run", 3)
	f.seedCompletion(t, "demo", habitID)

	handler := NewGetAchievementsHandler(f.store.UserRepository(), f.store.UnlockRepository())
	defs, err := handler.Handle(context.Background(), GetAchievementsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, defs, 7)

	byID := make(map[string]AchievementDTO, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	assert.True(t, byID["first_habit"].Unlocked)
	assert.NotNil(t, byID["first_habit"].UnlockedAt)
	assert.False(t, byID["week_warrior"].Unlocked)
	assert.Nil(t, byID["week_warrior"].UnlockedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUGGESTIONS & STATS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetSuggestionsFiltersOwnedHabits(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	f.seedHabit(t, "demo", "Evening Walk", 2)

	provider := &stubProvider{suggestions: []coaching.Suggestion{
		{Name: "Evening Walk", Description: "dup", Category: "fitness", Difficulty: 2},
		{Name: "Cold Shower", Description: "brrr", Category: "wellness", Difficulty: 4},
	}}

	handler := NewGetSuggestionsHandler(
		f.store.UserRepository(), f.store.HabitRepository(), provider, nil,
	)
	suggestions, err := handler.Handle(context.Background(), GetSuggestionsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "Cold Shower", suggestions[0].Name)
}

func TestGetSuggestionsFallsBackWithoutProvider(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")

	handler := NewGetSuggestionsHandler(
		f.store.UserRepository(), f.store.HabitRepository(), nil, nil,
	)
	suggestions, err := handler.Handle(context.Background(), GetSuggestionsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, suggestions, 3)
	assert.Equal(t, "Morning Meditation", suggestions[0].Name)
}

func TestGetSuggestionsFallsBackOnProviderError(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")

	handler := NewGetSuggestionsHandler(
		f.store.UserRepository(), f.store.HabitRepository(), &stubProvider{broken: true}, nil,
	)
	suggestions, err := handler.Handle(context.Background(), GetSuggestionsQuery{UserID: "demo"})
	require.NoError(t, err)

	require.Len(t, suggestions, 3)
	assert.Equal(t, "Power Walk", suggestions[0].Name)
}

func TestGetStats(t *testing.T) {
	f := newQueryFixture(t)
	f.seedUser(t, "demo")
	habitID := f.seedHabit(t, "demo", "Stretch", 2)

	f.seedCompletion(t, "demo", habitID)
	f.clock.AdvanceDays(1)
	f.seedCompletion(t, "demo", habitID)

	_, err := f.logMood.Handle(context.Background(), command.LogMoodCommand{
		UserID: "demo", MoodRating: 4, EnergyLevel: 2,
	})
	require.NoError(t, err)

	handler := NewGetStatsHandler(
		f.store.UserRepository(), f.store.CompletionRepository(), f.store.MoodRepository(), f.clock,
	)
	dto, err := handler.Handle(context.Background(), GetStatsQuery{UserID: "demo"})
	require.NoError(t, err)

	assert.Equal(t, 2, dto.TotalHabitsCompleted)
	assert.Equal(t, 2, dto.WeekCompletions)
	assert.Equal(t, 1, dto.CurrentLevel)
	assert.Equal(t, "Seedling", dto.AvatarEvolution.Stage)
	assert.Equal(t, []int{4}, dto.MoodTrend)
	assert.Equal(t, []int{2}, dto.EnergyTrend)
}

// ══════════════════════════════════════════════════════════════════════════════
// AVATAR
// ══════════════════════════════════════════════════════════════════════════════

func TestAvatarForLevel(t *testing.T) {
	tests := []struct {
		level int
		stage string
	}{
		{1, "Seedling"},
		{4, "Seedling"},
		{5, "Sprout"},
		{9, "Sprout"},
		{10, "Young Tree"},
		{20, "Mature Tree"},
		{30, "Ancient Tree"},
		{40, "Magical Tree"},
		{50, "Legendary Tree"},
		{99, "Legendary Tree"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.stage, AvatarForLevel(tt.level).Stage, "level=%d", tt.level)
	}
}
