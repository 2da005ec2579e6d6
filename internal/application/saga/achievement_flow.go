// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Business process: achievement evaluation and unlocking
// Flow: Load Unlocked Set → Load Counters → Walk Catalog → Conditional Unlock →
//
//	Credit Reward XP → Refresh Counters → Publish Events
//
// The flow runs after every progression mutation (completion, mood entry,
// habit creation). Reward XP is credited onto the in-memory user and the
// XP/level counters are refreshed mid-pass, so a reward that pushes the
// user over a total-XP or level threshold unlocks that achievement in the
// same pass. The caller persists the user once after the flow returns.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowStep represents a step in the achievement flow.
type AchievementFlowStep string

const (
	StepLoadUnlocked  AchievementFlowStep = "load_unlocked"
	StepLoadCounters  AchievementFlowStep = "load_counters"
	StepWalkCatalog   AchievementFlowStep = "walk_catalog"
	StepPublishEvents AchievementFlowStep = "publish_events"
	StepFlowComplete  AchievementFlowStep = "complete"
)

// AchievementFlowResult contains the outcome of one evaluation pass.
type AchievementFlowResult struct {
	// UserID is the evaluated user.
	UserID string

	// NewAchievements lists the definitions unlocked by this pass, in
	// catalog order.
	NewAchievements []achievement.Definition

	// TotalRewardXP is the sum of reward XP credited by this pass.
	TotalRewardXP int

	// ProcessedAt is when the pass completed.
	ProcessedAt time.Time
}

// HasNewAchievements reports whether any achievement was unlocked.
func (r *AchievementFlowResult) HasNewAchievements() bool {
	return len(r.NewAchievements) > 0
}

// achievementFlowState tracks one pass through the flow.
type achievementFlowState struct {
	currentStep AchievementFlowStep
	user        *user.User
	unlocked    map[string]bool
	counters    achievement.Counters
	newUnlocks  []achievement.Definition
	rewardXP    int
	startedAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementEvaluator orchestrates achievement evaluation. It mutates the
// passed-in user (reward XP, cached level) but never persists it; persisting
// the user is the caller's final step so the write happens exactly once.
type AchievementEvaluator struct {
	habitRepo      habit.Repository
	completionRepo habit.CompletionRepository
	moodRepo       habit.MoodRepository
	unlockRepo     achievement.UnlockRepository
	eventBus       shared.EventPublisher
	clock          timeutil.Clock
	log            *logger.Logger
}

// NewAchievementEvaluator creates an evaluator with all dependencies.
// The event bus may be nil; events are then skipped.
func NewAchievementEvaluator(
	habitRepo habit.Repository,
	completionRepo habit.CompletionRepository,
	moodRepo habit.MoodRepository,
	unlockRepo achievement.UnlockRepository,
	eventBus shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *AchievementEvaluator {
	if log == nil {
		log = logger.Default()
	}
	return &AchievementEvaluator{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		moodRepo:       moodRepo,
		unlockRepo:     unlockRepo,
		eventBus:       eventBus,
		clock:          clock,
		log:            log.With(logger.Component("achievement_flow")),
	}
}

// EvaluateAll runs one evaluation pass for the user. The user must already
// reflect the mutation that triggered the pass (XP credited, streak applied).
func (s *AchievementEvaluator) EvaluateAll(ctx context.Context, u *user.User) (*AchievementFlowResult, error) {
	state := &achievementFlowState{
		currentStep: StepLoadUnlocked,
		user:        u,
		startedAt:   s.clock.Now(),
	}

	if err := s.stepLoadUnlocked(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	state.currentStep = StepLoadCounters
	if err := s.stepLoadCounters(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	state.currentStep = StepWalkCatalog
	if err := s.stepWalkCatalog(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	state.currentStep = StepPublishEvents
	s.stepPublishEvents(state)

	state.currentStep = StepFlowComplete

	return &AchievementFlowResult{
		UserID:          u.ID,
		NewAchievements: state.newUnlocks,
		TotalRewardXP:   state.rewardXP,
		ProcessedAt:     s.clock.Now(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepLoadUnlocked loads the set of achievements the user already holds.
func (s *AchievementEvaluator) stepLoadUnlocked(ctx context.Context, state *achievementFlowState) error {
	unlocked, err := s.unlockRepo.UnlockedIDs(ctx, state.user.ID)
	if err != nil {
		return fmt.Errorf("load unlocked set: %w", err)
	}
	state.unlocked = unlocked
	return nil
}

// stepLoadCounters gathers the progress counters the requirements read.
// Counters are loaded once per pass; only the XP and level counters change
// mid-pass, and those are refreshed locally after each reward credit.
func (s *AchievementEvaluator) stepLoadCounters(ctx context.Context, state *achievementFlowState) error {
	completions, err := s.completionRepo.CountByUser(ctx, state.user.ID)
	if err != nil {
		return fmt.Errorf("count completions: %w", err)
	}

	habitCount, err := s.habitRepo.CountByUser(ctx, state.user.ID)
	if err != nil {
		return fmt.Errorf("count habits: %w", err)
	}

	moodEntries, err := s.moodRepo.CountByUser(ctx, state.user.ID)
	if err != nil {
		return fmt.Errorf("count mood entries: %w", err)
	}

	state.counters = achievement.Counters{
		Completions:   completions,
		CurrentStreak: state.user.CurrentStreak,
		HabitCount:    habitCount,
		TotalXP:       int(state.user.TotalXP),
		MoodEntries:   moodEntries,
		Level:         int(state.user.CurrentLevel),
	}
	return nil
}

// stepWalkCatalog evaluates every definition in catalog order and unlocks
// the satisfied ones. The conditional insert in the unlock repository is
// the exactly-once guarantee; a lost race is silently skipped.
func (s *AchievementEvaluator) stepWalkCatalog(ctx context.Context, state *achievementFlowState) error {
	for _, def := range achievement.Catalog() {
		if state.unlocked[def.ID] {
			continue
		}

		satisfied, err := def.Requirement.SatisfiedBy(state.counters)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", def.ID, err)
		}
		if !satisfied {
			continue
		}

		inserted, err := s.unlockRepo.Unlock(ctx, state.user.ID, def.ID, s.clock.Now())
		if err != nil {
			return fmt.Errorf("unlock %s: %w", def.ID, err)
		}
		if !inserted {
			// Another evaluation got there first.
			state.unlocked[def.ID] = true
			continue
		}

		state.user.AddXP(def.RewardXP)
		state.counters.TotalXP = int(state.user.TotalXP)
		state.counters.Level = int(state.user.CurrentLevel)

		state.unlocked[def.ID] = true
		state.newUnlocks = append(state.newUnlocks, def)
		state.rewardXP += def.RewardXP

		s.log.Info("achievement unlocked",
			logger.UserID(state.user.ID),
			logger.AchievementID(def.ID),
			logger.XPAmount(def.RewardXP),
		)
	}
	return nil
}

// stepPublishEvents emits one event per fresh unlock. Event failures do not
// fail the flow; the unlock records are already durable.
func (s *AchievementEvaluator) stepPublishEvents(state *achievementFlowState) {
	if s.eventBus == nil {
		return
	}

	for _, def := range state.newUnlocks {
		event := shared.NewAchievementUnlockedEvent(state.user.ID, def.ID, def.Name, def.RewardXP)
		if err := s.eventBus.Publish(event); err != nil {
			s.log.Warn("achievement event publish failed",
				logger.UserID(state.user.ID),
				logger.AchievementID(def.ID),
				logger.Err(err),
			)
		}
	}
}

// wrapError wraps a step failure with flow context.
func (s *AchievementEvaluator) wrapError(state *achievementFlowState, err error) error {
	return &AchievementFlowError{
		Step:    state.currentStep,
		UserID:  state.user.ID,
		Cause:   err,
		Message: fmt.Sprintf("achievement flow failed at step '%s': %v", state.currentStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowError represents an error during the achievement flow.
type AchievementFlowError struct {
	Step    AchievementFlowStep
	UserID  string
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *AchievementFlowError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AchievementFlowError) Unwrap() error {
	return e.Cause
}
