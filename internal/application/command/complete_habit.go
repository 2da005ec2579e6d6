package command

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/progress"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE HABIT COMMAND
// The central progression operation. One call records a completion for
// today, credits XP, advances the streak, and evaluates achievements.
// Repeating the call for the same habit on the same day is a no-op that
// reports zero XP earned.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteHabitCommand contains the data needed to record a completion.
type CompleteHabitCommand struct {
	// UserID is the acting user.
	UserID string

	// HabitID is the habit being completed.
	HabitID string

	// MoodRating is the optional 1-5 mood captured with the completion.
	// Zero means not provided.
	MoodRating int

	// EnergyLevel is the optional 1-5 energy captured with the completion.
	// Zero means not provided.
	EnergyLevel int
}

// Validate checks the command for basic correctness.
func (c CompleteHabitCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	if strings.TrimSpace(c.HabitID) == "" {
		return habit.ErrInvalidHabitID
	}
	if c.MoodRating != 0 {
		if _, err := shared.NewRating(c.MoodRating); err != nil {
			return shared.ErrInvalidMoodRating
		}
	}
	if c.EnergyLevel != 0 {
		if _, err := shared.NewRating(c.EnergyLevel); err != nil {
			return shared.ErrInvalidEnergyLevel
		}
	}
	return nil
}

// CompleteHabitResult contains the outcome of a completion attempt.
type CompleteHabitResult struct {
	// XPEarned is the XP credited by this completion. Zero for the
	// idempotent repeat of an already-completed day.
	XPEarned int

	// TotalXP is the user's cumulative XP after the operation.
	TotalXP int

	// CurrentLevel is the user's level after the operation.
	CurrentLevel int

	// LevelUp reports whether the operation crossed a level threshold.
	LevelUp bool

	// CurrentStreak is the streak after the operation.
	CurrentStreak int

	// NewAchievements lists achievements unlocked by this completion.
	NewAchievements []achievement.Definition
}

// CompleteHabitHandler handles habit completion.
type CompleteHabitHandler struct {
	userRepo       user.Repository
	habitRepo      habit.Repository
	completionRepo habit.CompletionRepository
	uow            UnitOfWork
	evaluator      *saga.AchievementEvaluator
	locks          *UserLocks
	eventBus       shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewCompleteHabitHandler creates the handler. A nil unit of work runs the
// mutation sequence without atomicity.
func NewCompleteHabitHandler(
	userRepo user.Repository,
	habitRepo habit.Repository,
	completionRepo habit.CompletionRepository,
	uow UnitOfWork,
	evaluator *saga.AchievementEvaluator,
	locks *UserLocks,
	eventBus shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *CompleteHabitHandler {
	if uow == nil {
		uow = nopUnitOfWork{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &CompleteHabitHandler{
		userRepo:       userRepo,
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		uow:            uow,
		evaluator:      evaluator,
		locks:          locks,
		eventBus:       eventBus,
		clock:          clock,
		log:            log.With(logger.Component("complete_habit")),
	}
}

// Handle executes the command.
func (h *CompleteHabitHandler) Handle(ctx context.Context, cmd CompleteHabitCommand) (*CompleteHabitResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.locks.Lock(cmd.UserID)
	defer h.locks.Unlock(cmd.UserID)

	target, err := h.habitRepo.GetByID(ctx, cmd.HabitID)
	if err != nil {
		return nil, err
	}
	// A habit owned by someone else reads as absent; existence of other
	// users' habits must not leak.
	if !target.BelongsTo(cmd.UserID) {
		return nil, shared.ErrHabitNotOwned
	}

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(h.clock.Now())

	completion, err := habit.NewCompletion(uuid.NewString(), target, today, cmd.MoodRating, cmd.EnergyLevel)
	if err != nil {
		return nil, err
	}

	// The completion insert, XP credit, streak update, achievement unlocks
	// and user persist form one atomic unit: a failure anywhere rolls back
	// everything, including the completion row.
	var (
		duplicate  bool
		oldLevel   shared.Level
		flowResult *saga.AchievementFlowResult
	)
	err = h.uow.WithinTx(ctx, func(ctx context.Context) error {
		inserted, err := h.completionRepo.Create(ctx, completion)
		if err != nil {
			return err
		}
		if !inserted {
			duplicate = true
			return nil
		}

		oldLevel, _ = u.AddXP(target.XPReward())

		if err := h.advanceStreak(ctx, u, today); err != nil {
			return err
		}

		flowResult, err = h.evaluator.EvaluateAll(ctx, u)
		if err != nil {
			return err
		}

		return h.userRepo.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		// Already completed today. Report current state, change nothing.
		h.log.Debug("duplicate completion ignored",
			logger.UserID(u.ID),
			logger.HabitID(target.ID),
		)
		return &CompleteHabitResult{
			XPEarned:        0,
			TotalXP:         int(u.TotalXP),
			CurrentLevel:    int(u.CurrentLevel),
			LevelUp:         false,
			CurrentStreak:   u.CurrentStreak,
			NewAchievements: nil,
		}, nil
	}

	h.log.Info("habit completed",
		logger.UserID(u.ID),
		logger.HabitID(target.ID),
		logger.XPAmount(target.XPReward()),
		logger.LevelValue(int(u.CurrentLevel)),
		logger.StreakLength(u.CurrentStreak),
	)

	h.publishEvents(u, target, today, oldLevel)

	return &CompleteHabitResult{
		XPEarned:        target.XPReward(),
		TotalXP:         int(u.TotalXP),
		CurrentLevel:    int(u.CurrentLevel),
		LevelUp:         u.CurrentLevel > oldLevel,
		CurrentStreak:   u.CurrentStreak,
		NewAchievements: flowResult.NewAchievements,
	}, nil
}

// advanceStreak applies the streak rules for a completion on today. The
// streak increments at most once per calendar day, so only the first
// completion of the day moves it.
func (h *CompleteHabitHandler) advanceStreak(ctx context.Context, u *user.User, today time.Time) error {
	count, err := h.completionRepo.CountOnDay(ctx, u.ID, today)
	if err != nil {
		return err
	}
	if count != 1 {
		// Not the first completion of the day.
		return nil
	}

	yesterday := today.AddDate(0, 0, -1)
	active, err := h.completionRepo.HasOnDay(ctx, u.ID, yesterday)
	if err != nil {
		return err
	}

	tracker := progress.Restore(u.ID, u.CurrentStreak, u.LongestStreak, streakAnchor(today, active))
	tracker.RecordCompletion(today)

	return u.ApplyStreak(tracker.CurrentStreak, tracker.BestStreak)
}

// streakAnchor reconstructs the last active day for the tracker: yesterday
// when the run is alive, otherwise far enough back to force a reset.
func streakAnchor(today time.Time, activeYesterday bool) time.Time {
	if activeYesterday {
		return today.AddDate(0, 0, -1)
	}
	return today.AddDate(0, 0, -2)
}

// publishEvents emits the completion event and, when a threshold was
// crossed, the level-up event.
func (h *CompleteHabitHandler) publishEvents(u *user.User, target *habit.Habit, today time.Time, oldLevel shared.Level) {
	if h.eventBus == nil {
		return
	}

	_ = h.eventBus.Publish(shared.NewHabitCompletedEvent(u.ID, target.ID, today, target.XPReward(), int(u.TotalXP)))

	if u.CurrentLevel > oldLevel {
		_ = h.eventBus.Publish(shared.NewLevelUpEvent(u.ID, int(oldLevel), int(u.CurrentLevel), int(u.TotalXP)))
	}
}
