package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// The home-screen aggregate: profile, habits with today's state, the daily
// quest, the coach message, recent mood, and unlocked badges. One query,
// one round trip.
// ══════════════════════════════════════════════════════════════════════════════

// Coach fallback lines. The dashboard never fails because the coach did.
const (
	coachFallbackUnavailable = "Keep up the great work! Your consistency is building a stronger you every day! 🌟"
	coachFallbackError       = "You're doing amazing! Every small step counts toward your bigger goals! 🚀"
)

// GetDashboardQuery contains the parameters for the dashboard read.
type GetDashboardQuery struct {
	// UserID is the user to read.
	UserID string
}

// Validate checks the query parameters.
func (q GetDashboardQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// DailyQuestDTO is the suggested next action: the first habit not yet
// completed today.
type DailyQuestDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	XPReward    int    `json:"xp_reward"`
	HabitID     string `json:"habit_id"`
}

// RecentMoodDTO is the latest mood entry on the dashboard.
type RecentMoodDTO struct {
	Date        string `json:"date"`
	MoodRating  int    `json:"mood_rating"`
	EnergyLevel int    `json:"energy_level"`
}

// UnlockedAchievementDTO is one earned badge on the dashboard.
type UnlockedAchievementDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// DashboardDTO is the full dashboard read model.
type DashboardDTO struct {
	User             *UserDTO                 `json:"user"`
	Habits           []HabitDTO               `json:"habits"`
	TodayCompletions int                      `json:"today_completions"`
	TotalHabits      int                      `json:"total_habits"`
	CompletionRate   float64                  `json:"completion_rate"`
	AIMessage        string                   `json:"ai_message"`
	DailyQuest       *DailyQuestDTO           `json:"daily_quest"`
	RecentMood       *RecentMoodDTO           `json:"recent_mood"`
	Achievements     []UnlockedAchievementDTO `json:"achievements"`
}

// GetDashboardHandler handles dashboard reads.
type GetDashboardHandler struct {
	userRepo       user.Repository
	habitRepo      habit.Repository
	completionRepo habit.CompletionRepository
	moodRepo       habit.MoodRepository
	unlockRepo     achievement.UnlockRepository
	provider       coaching.Provider
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewGetDashboardHandler creates the handler. A nil provider degrades the
// coach message to a static line.
func NewGetDashboardHandler(
	userRepo user.Repository,
	habitRepo habit.Repository,
	completionRepo habit.CompletionRepository,
	moodRepo habit.MoodRepository,
	unlockRepo achievement.UnlockRepository,
	provider coaching.Provider,
	clock timeutil.Clock,
	log *logger.Logger,
) *GetDashboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetDashboardHandler{
		userRepo:       userRepo,
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		moodRepo:       moodRepo,
		unlockRepo:     unlockRepo,
		provider:       provider,
		clock:          clock,
		log:            log.With(logger.Component("get_dashboard")),
	}
}

// Handle executes the query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	habits, err := h.habitRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(h.clock.Now())
	completedIDs, err := h.completionRepo.ListCompletedHabitIDs(ctx, q.UserID, today)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	habitDTOs := make([]HabitDTO, 0, len(habits))
	for _, hb := range habits {
		habitDTOs = append(habitDTOs, HabitDTO{
			HabitID:        hb.ID,
			Name:           hb.Name,
			Description:    hb.Description,
			Category:       hb.Category.String(),
			Difficulty:     hb.Difficulty.Int(),
			XPReward:       hb.XPReward(),
			CompletedToday: completed[hb.ID],
			CreatedAt:      hb.CreatedAt,
		})
	}

	dto := &DashboardDTO{
		User:             toUserDTO(u),
		Habits:           habitDTOs,
		TodayCompletions: len(completedIDs),
		TotalHabits:      len(habits),
		CompletionRate:   completionRate(len(completedIDs), len(habits)),
		DailyQuest:       dailyQuest(habits, completed),
		Achievements:     []UnlockedAchievementDTO{},
	}

	if recent, err := h.moodRepo.GetMostRecent(ctx, q.UserID); err == nil {
		dto.RecentMood = &RecentMoodDTO{
			Date:        timeutil.FormatDateStr(recent.Date),
			MoodRating:  recent.MoodRating.Int(),
			EnergyLevel: recent.EnergyLevel.Int(),
		}
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	unlocks, err := h.unlockRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	for _, unlocked := range unlocks {
		def, ok := achievement.DefinitionByID(unlocked.AchievementID)
		if !ok {
			continue
		}
		dto.Achievements = append(dto.Achievements, UnlockedAchievementDTO{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
		})
	}

	dto.AIMessage = h.coachMessage(ctx, u, habitDTOs, len(completedIDs), dto.RecentMood)

	return dto, nil
}

// completionRate is the share of habits completed today, in [0, 1].
// A user with no habits reads as 0.
func completionRate(completedToday, totalHabits int) float64 {
	if totalHabits == 0 {
		return 0
	}
	return float64(completedToday) / float64(totalHabits)
}

// dailyQuest picks the first habit, in creation order, not yet completed
// today. Nil when everything is done or no habits exist.
func dailyQuest(habits []*habit.Habit, completed map[string]bool) *DailyQuestDTO {
	for _, hb := range habits {
		if completed[hb.ID] {
			continue
		}
		return &DailyQuestDTO{
			Title:       fmt.Sprintf("Complete %s", hb.Name),
			Description: fmt.Sprintf("Earn %d XP by completing this habit", hb.XPReward()),
			XPReward:    hb.XPReward(),
			HabitID:     hb.ID,
		}
	}
	return nil
}

// coachMessage asks the provider for an encouragement line, degrading to
// a static one on absence or failure.
func (h *GetDashboardHandler) coachMessage(
	ctx context.Context,
	u *user.User,
	habits []HabitDTO,
	todayCompletions int,
	recentMood *RecentMoodDTO,
) string {
	if h.provider == nil {
		return coachFallbackUnavailable
	}

	names := make([]string, 0, len(habits))
	for _, hb := range habits {
		names = append(names, hb.Name)
	}

	snapshot := coaching.Snapshot{
		UserID:           u.ID,
		DisplayName:      u.DisplayName,
		Level:            int(u.CurrentLevel),
		TotalXP:          int(u.TotalXP),
		CurrentStreak:    u.CurrentStreak,
		TodayCompletions: todayCompletions,
		HabitCount:       len(habits),
		HabitNames:       names,
	}
	if recentMood != nil {
		snapshot.RecentMood = recentMood.MoodRating
	}

	message, err := h.provider.GenerateCoachMessage(ctx, snapshot)
	if err != nil {
		h.log.Warn("coach provider failed", logger.UserID(u.ID), logger.Err(err))
		return coachFallbackError
	}
	return message
}
