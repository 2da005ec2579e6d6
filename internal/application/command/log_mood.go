package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG MOOD COMMAND
// Records a mood entry for today. The same-day policy decides whether a
// second entry on one day replaces the first or is appended.
// ══════════════════════════════════════════════════════════════════════════════

// SameDayPolicy decides what a second mood entry on one calendar day does.
type SameDayPolicy string

const (
	// PolicyReplace makes the new entry overwrite the day's existing one.
	// This is the default.
	PolicyReplace SameDayPolicy = "replace"

	// PolicyAppend keeps every entry.
	PolicyAppend SameDayPolicy = "append"
)

// ParseSameDayPolicy normalizes a config string into a policy, defaulting
// to replace.
func ParseSameDayPolicy(s string) SameDayPolicy {
	if SameDayPolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyAppend {
		return PolicyAppend
	}
	return PolicyReplace
}

// LogMoodCommand contains the data needed to record a mood entry.
type LogMoodCommand struct {
	// UserID is the acting user.
	UserID string

	// MoodRating is the 1-5 mood value.
	MoodRating int

	// EnergyLevel is the 1-5 energy value.
	EnergyLevel int

	// Notes is optional free-form text.
	Notes string
}

// Validate checks the command for basic correctness.
func (c LogMoodCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	if _, err := shared.NewRating(c.MoodRating); err != nil {
		return shared.ErrInvalidMoodRating
	}
	if _, err := shared.NewRating(c.EnergyLevel); err != nil {
		return shared.ErrInvalidEnergyLevel
	}
	return nil
}

// LogMoodResult contains the outcome of mood logging.
type LogMoodResult struct {
	// EntryID is the stored entry's ID.
	EntryID string

	// Date is the calendar day of the entry.
	Date string

	// NewAchievements lists achievements unlocked by this entry.
	NewAchievements []achievement.Definition
}

// LogMoodHandler handles mood logging.
type LogMoodHandler struct {
	userRepo  user.Repository
	moodRepo  habit.MoodRepository
	uow       UnitOfWork
	evaluator *saga.AchievementEvaluator
	locks     *UserLocks
	policy    SameDayPolicy
	eventBus  shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewLogMoodHandler creates the handler. A nil unit of work runs the
// mutation sequence without atomicity.
func NewLogMoodHandler(
	userRepo user.Repository,
	moodRepo habit.MoodRepository,
	uow UnitOfWork,
	evaluator *saga.AchievementEvaluator,
	locks *UserLocks,
	policy SameDayPolicy,
	eventBus shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *LogMoodHandler {
	if uow == nil {
		uow = nopUnitOfWork{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &LogMoodHandler{
		userRepo:  userRepo,
		moodRepo:  moodRepo,
		uow:       uow,
		evaluator: evaluator,
		locks:     locks,
		policy:    policy,
		eventBus:  eventBus,
		clock:     clock,
		log:       log.With(logger.Component("log_mood")),
	}
}

// Handle executes the command.
func (h *LogMoodHandler) Handle(ctx context.Context, cmd LogMoodCommand) (*LogMoodResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.locks.Lock(cmd.UserID)
	defer h.locks.Unlock(cmd.UserID)

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(h.clock.Now())

	entry, err := habit.NewMoodEntry(uuid.NewString(), u.ID, today, cmd.MoodRating, cmd.EnergyLevel, cmd.Notes)
	if err != nil {
		return nil, err
	}

	// Mood write, achievement unlocks and the user persist apply as one
	// atomic unit.
	var flowResult *saga.AchievementFlowResult
	err = h.uow.WithinTx(ctx, func(ctx context.Context) error {
		switch h.policy {
		case PolicyAppend:
			err = h.moodRepo.Create(ctx, entry)
		default:
			err = h.moodRepo.Upsert(ctx, entry)
		}
		if err != nil {
			return err
		}

		flowResult, err = h.evaluator.EvaluateAll(ctx, u)
		if err != nil {
			return err
		}

		if flowResult.HasNewAchievements() {
			return h.userRepo.Update(ctx, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("mood logged",
		logger.UserID(u.ID),
		logger.Int("mood_rating", cmd.MoodRating),
		logger.Int("energy_level", cmd.EnergyLevel),
	)

	if h.eventBus != nil {
		_ = h.eventBus.Publish(shared.NewMoodLoggedEvent(u.ID, today, cmd.MoodRating, cmd.EnergyLevel))
	}

	return &LogMoodResult{
		EntryID:         entry.ID,
		Date:            timeutil.FormatDateStr(today),
		NewAchievements: flowResult.NewAchievements,
	}, nil
}
