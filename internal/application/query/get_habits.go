package query

import (
	"context"
	"strings"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET HABITS QUERY
// Lists a user's habits with today's completion flag, so the client can
// render the daily checklist in one round trip.
// ══════════════════════════════════════════════════════════════════════════════

// GetHabitsQuery contains the parameters for listing habits.
type GetHabitsQuery struct {
	// UserID is the owning user.
	UserID string
}

// Validate checks the query parameters.
func (q GetHabitsQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// HabitDTO is the read model of one habit.
type HabitDTO struct {
	HabitID        string    `json:"habit_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category"`
	Difficulty     int       `json:"difficulty"`
	XPReward       int       `json:"xp_reward"`
	CompletedToday bool      `json:"completed_today"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetHabitsHandler handles habit list reads.
type GetHabitsHandler struct {
	userRepo       user.Repository
	habitRepo      habit.Repository
	completionRepo habit.CompletionRepository
	clock          timeutil.Clock
}

// NewGetHabitsHandler creates the handler.
func NewGetHabitsHandler(
	userRepo user.Repository,
	habitRepo habit.Repository,
	completionRepo habit.CompletionRepository,
	clock timeutil.Clock,
) *GetHabitsHandler {
	return &GetHabitsHandler{
		userRepo:       userRepo,
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		clock:          clock,
	}
}

// Handle executes the query.
func (h *GetHabitsHandler) Handle(ctx context.Context, q GetHabitsQuery) ([]HabitDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.userRepo.Exists(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrUserNotFound
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

	result := make([]HabitDTO, 0, len(habits))
	for _, hb := range habits {
		result = append(result, HabitDTO{
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
	return result, nil
}
