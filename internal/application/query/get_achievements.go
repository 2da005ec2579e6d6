package query

import (
	"context"
	"strings"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Returns the full catalog annotated with the user's unlock state, so the
// client can render both earned badges and remaining goals.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery contains the parameters for reading achievements.
type GetAchievementsQuery struct {
	// UserID is the user whose unlock state annotates the catalog.
	UserID string
}

// Validate checks the query parameters.
func (q GetAchievementsQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// AchievementDTO is one catalog entry with the user's unlock state.
type AchievementDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	RewardXP    int        `json:"reward_xp"`
	Requirement string     `json:"requirement"`
	Count       int        `json:"count"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// GetAchievementsHandler handles achievement reads.
type GetAchievementsHandler struct {
	userRepo   user.Repository
	unlockRepo achievement.UnlockRepository
}

// NewGetAchievementsHandler creates the handler.
func NewGetAchievementsHandler(
	userRepo user.Repository,
	unlockRepo achievement.UnlockRepository,
) *GetAchievementsHandler {
	return &GetAchievementsHandler{
		userRepo:   userRepo,
		unlockRepo: unlockRepo,
	}
}

// Handle executes the query. The result follows catalog order.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) ([]AchievementDTO, error) {
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

	unlocks, err := h.unlockRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	defs := achievement.Catalog()
	result := make([]AchievementDTO, 0, len(defs))
	for _, def := range defs {
		dto := AchievementDTO{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			RewardXP:    def.RewardXP,
			Requirement: string(def.Requirement.Kind),
			Count:       def.Requirement.Count,
		}
		if at, ok := unlockedAt[def.ID]; ok {
			dto.Unlocked = true
			dto.UnlockedAt = &at
		}
		result = append(result, dto)
	}
	return result, nil
}
