package query

import (
	"context"
	"strings"

	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/progress"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ANALYTICS QUERY
// Builds the 30-day analytics window: one bucket per calendar day, dense
// and ascending, so charting clients never have to fill gaps themselves.
// ══════════════════════════════════════════════════════════════════════════════

// AnalyticsWindowDays is the size of the analytics window.
const AnalyticsWindowDays = 30

// GetAnalyticsQuery contains the parameters for the analytics read.
type GetAnalyticsQuery struct {
	// UserID is the user to analyze.
	UserID string
}

// Validate checks the query parameters.
func (q GetAnalyticsQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// DailyBucketDTO is one calendar day of the analytics window. Mood and
// energy are nil on days without a mood entry; zero would read as a rating.
type DailyBucketDTO struct {
	Date        string `json:"date"`
	Completions int    `json:"completions"`
	XPEarned    int    `json:"xp_earned"`
	Mood        *int   `json:"mood"`
	Energy      *int   `json:"energy"`
}

// AnalyticsDTO is the full analytics read model.
type AnalyticsDTO struct {
	DailyData        []DailyBucketDTO `json:"daily_data"`
	TotalCompletions int              `json:"total_completions"`
	TotalXP          int              `json:"total_xp"`
	CurrentStreak    int              `json:"current_streak"`
	LongestStreak    int              `json:"longest_streak"`
	AvgMood          float64          `json:"avg_mood"`
	AvgEnergy        float64          `json:"avg_energy"`
}

// GetAnalyticsHandler handles analytics reads.
type GetAnalyticsHandler struct {
	userRepo       user.Repository
	completionRepo habit.CompletionRepository
	moodRepo       habit.MoodRepository
	clock          timeutil.Clock
}

// NewGetAnalyticsHandler creates the handler.
func NewGetAnalyticsHandler(
	userRepo user.Repository,
	completionRepo habit.CompletionRepository,
	moodRepo habit.MoodRepository,
	clock timeutil.Clock,
) *GetAnalyticsHandler {
	return &GetAnalyticsHandler{
		userRepo:       userRepo,
		completionRepo: completionRepo,
		moodRepo:       moodRepo,
		clock:          clock,
	}
}

// Handle executes the query.
func (h *GetAnalyticsHandler) Handle(ctx context.Context, q GetAnalyticsQuery) (*AnalyticsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(h.clock.Now())
	from := today.AddDate(0, 0, -(AnalyticsWindowDays - 1))

	completions, err := h.completionRepo.ListByUserBetween(ctx, q.UserID, from, today)
	if err != nil {
		return nil, err
	}
	moods, err := h.moodRepo.ListByUserBetween(ctx, q.UserID, from, today)
	if err != nil {
		return nil, err
	}

	// Dense window: every day present, oldest first.
	buckets := make([]DailyBucketDTO, AnalyticsWindowDays)
	index := make(map[string]*DailyBucketDTO, AnalyticsWindowDays)
	for i := range buckets {
		day := from.AddDate(0, 0, i)
		buckets[i] = DailyBucketDTO{Date: timeutil.FormatDateStr(day)}
		index[buckets[i].Date] = &buckets[i]
	}

	windowXP := 0
	for _, c := range completions {
		if b, ok := index[timeutil.FormatDateStr(c.Date)]; ok {
			b.Completions++
			b.XPEarned += c.XPAwarded
			windowXP += c.XPAwarded
		}
	}

	var moodSum, energySum int
	for _, m := range moods {
		if b, ok := index[timeutil.FormatDateStr(m.Date)]; ok {
			mood := m.MoodRating.Int()
			energy := m.EnergyLevel.Int()
			b.Mood = &mood
			b.Energy = &energy
		}
		moodSum += m.MoodRating.Int()
		energySum += m.EnergyLevel.Int()
	}

	// The streak shown here is derived live from completion days, so a
	// lapsed run reads as zero even before the next write refreshes the
	// stored counter.
	days, err := h.completionRepo.ListCompletionDays(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dto := &AnalyticsDTO{
		DailyData:        buckets,
		TotalCompletions: len(completions),
		TotalXP:          windowXP,
		CurrentStreak:    progress.LiveStreak(days, today),
		LongestStreak:    u.LongestStreak,
	}
	if len(moods) > 0 {
		dto.AvgMood = float64(moodSum) / float64(len(moods))
		dto.AvgEnergy = float64(energySum) / float64(len(moods))
	}
	return dto, nil
}
