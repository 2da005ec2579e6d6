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
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE HABIT COMMAND
// Creates a habit for a user, then runs achievement evaluation so
// habit-count achievements unlock immediately.
// ══════════════════════════════════════════════════════════════════════════════

// CreateHabitCommand contains the data needed to create a habit.
type CreateHabitCommand struct {
	// UserID is the owning user.
	UserID string

	// Name is the habit's display name.
	Name string

	// Description is an optional longer description.
	Description string

	// Category is the habit category; empty falls back to "other".
	Category string

	// Difficulty is the 1-5 difficulty rating.
	Difficulty int
}

// Validate checks the command for basic correctness.
func (c CreateHabitCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.ErrEmptyHabitName
	}
	if !habit.Difficulty(c.Difficulty).IsValid() {
		return shared.ErrInvalidDifficulty
	}
	return nil
}

// CreateHabitResult contains the outcome of habit creation.
type CreateHabitResult struct {
	// HabitID is the generated habit ID.
	HabitID string

	// Name is the stored habit name.
	Name string

	// Category is the stored category.
	Category string

	// Difficulty is the stored difficulty.
	Difficulty int

	// XPReward is the XP one completion of this habit grants.
	XPReward int

	// NewAchievements lists achievements unlocked by this creation.
	NewAchievements []achievement.Definition
}

// CreateHabitHandler handles habit creation.
type CreateHabitHandler struct {
	userRepo  user.Repository
	habitRepo habit.Repository
	uow       UnitOfWork
	evaluator *saga.AchievementEvaluator
	locks     *UserLocks
	eventBus  shared.EventPublisher
	log       *logger.Logger
}

// NewCreateHabitHandler creates the handler. A nil unit of work runs the
// mutation sequence without atomicity.
func NewCreateHabitHandler(
	userRepo user.Repository,
	habitRepo habit.Repository,
	uow UnitOfWork,
	evaluator *saga.AchievementEvaluator,
	locks *UserLocks,
	eventBus shared.EventPublisher,
	log *logger.Logger,
) *CreateHabitHandler {
	if uow == nil {
		uow = nopUnitOfWork{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &CreateHabitHandler{
		userRepo:  userRepo,
		habitRepo: habitRepo,
		uow:       uow,
		evaluator: evaluator,
		locks:     locks,
		eventBus:  eventBus,
		log:       log.With(logger.Component("create_habit")),
	}
}

// Handle executes the command.
func (h *CreateHabitHandler) Handle(ctx context.Context, cmd CreateHabitCommand) (*CreateHabitResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	category, err := habit.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	h.locks.Lock(cmd.UserID)
	defer h.locks.Unlock(cmd.UserID)

	u, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	created, err := habit.NewHabit(habit.NewHabitParams{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Category:    category,
		Difficulty:  habit.Difficulty(cmd.Difficulty),
	})
	if err != nil {
		return nil, err
	}

	// Habit insert, achievement unlocks and the user persist apply as one
	// atomic unit.
	var flowResult *saga.AchievementFlowResult
	err = h.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.habitRepo.Create(ctx, created); err != nil {
			return err
		}

		flowResult, err = h.evaluator.EvaluateAll(ctx, u)
		if err != nil {
			return err
		}

		// The user only changes when an unlock credited reward XP.
		if flowResult.HasNewAchievements() {
			return h.userRepo.Update(ctx, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("habit created",
		logger.UserID(u.ID),
		logger.HabitID(created.ID),
		logger.HabitName(created.Name),
	)

	if h.eventBus != nil {
		_ = h.eventBus.Publish(shared.NewHabitCreatedEvent(u.ID, created.ID, created.Name, created.Category.String()))
	}

	return &CreateHabitResult{
		HabitID:         created.ID,
		Name:            created.Name,
		Category:        created.Category.String(),
		Difficulty:      created.Difficulty.Int(),
		XPReward:        created.XPReward(),
		NewAchievements: flowResult.NewAchievements,
	}, nil
}
