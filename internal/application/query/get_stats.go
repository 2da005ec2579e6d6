package query

import (
	"context"
	"strings"

	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// The compact stats card: lifetime and weekly completion counts plus the
// last week of mood and energy readings.
// ══════════════════════════════════════════════════════════════════════════════

// statsTrendDays is how many recent mood readings the trends carry.
const statsTrendDays = 7

// GetStatsQuery contains the parameters for the stats read.
type GetStatsQuery struct {
	// UserID is the user to read.
	UserID string
}

// Validate checks the query parameters.
func (q GetStatsQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// StatsDTO is the stats read model.
type StatsDTO struct {
	TotalHabitsCompleted int       `json:"total_habits_completed"`
	WeekCompletions      int       `json:"week_completions"`
	CurrentLevel         int       `json:"current_level"`
	AvatarEvolution      AvatarDTO `json:"avatar_evolution"`
	MoodTrend            []int     `json:"mood_trend"`
	EnergyTrend          []int     `json:"energy_trend"`
}

// GetStatsHandler handles stats reads.
type GetStatsHandler struct {
	userRepo       user.Repository
	completionRepo habit.CompletionRepository
	moodRepo       habit.MoodRepository
	clock          timeutil.Clock
}

// NewGetStatsHandler creates the handler.
func NewGetStatsHandler(
	userRepo user.Repository,
	completionRepo habit.CompletionRepository,
	moodRepo habit.MoodRepository,
	clock timeutil.Clock,
) *GetStatsHandler {
	return &GetStatsHandler{
		userRepo:       userRepo,
		completionRepo: completionRepo,
		moodRepo:       moodRepo,
		clock:          clock,
	}
}

// Handle executes the query.
func (h *GetStatsHandler) Handle(ctx context.Context, q GetStatsQuery) (*StatsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	total, err := h.completionRepo.CountByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(h.clock.Now())
	weekStart := today.AddDate(0, 0, -(statsTrendDays - 1))

	weekCompletions, err := h.completionRepo.ListByUserBetween(ctx, q.UserID, weekStart, today)
	if err != nil {
		return nil, err
	}

	moods, err := h.moodRepo.ListByUserBetween(ctx, q.UserID, weekStart, today)
	if err != nil {
		return nil, err
	}

	moodTrend := make([]int, 0, len(moods))
	energyTrend := make([]int, 0, len(moods))
	for _, m := range moods {
		moodTrend = append(moodTrend, m.MoodRating.Int())
		energyTrend = append(energyTrend, m.EnergyLevel.Int())
	}

	return &StatsDTO{
		TotalHabitsCompleted: total,
		WeekCompletions:      len(weekCompletions),
		CurrentLevel:         int(u.CurrentLevel),
		AvatarEvolution:      AvatarForLevel(int(u.CurrentLevel)),
		MoodTrend:            moodTrend,
		EnergyTrend:          energyTrend,
	}, nil
}
