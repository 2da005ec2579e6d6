package query

import (
	"context"
	"strings"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetUserQuery contains the parameters for reading a user's profile.
type GetUserQuery struct {
	// UserID is the user to read.
	UserID string
}

// Validate checks the query parameters.
func (q GetUserQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// UserDTO is the read model of a user's profile and progression.
type UserDTO struct {
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	TotalXP         int       `json:"total_xp"`
	CurrentLevel    int       `json:"current_level"`
	XPToNextLevel   int       `json:"xp_to_next_level"`
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	Theme           string    `json:"theme"`
	AvatarEvolution AvatarDTO `json:"avatar_evolution"`
	CreatedAt       time.Time `json:"created_at"`
}

// GetUserHandler handles user profile reads.
type GetUserHandler struct {
	userRepo user.Repository
}

// NewGetUserHandler creates the handler.
func NewGetUserHandler(userRepo user.Repository) *GetUserHandler {
	return &GetUserHandler{userRepo: userRepo}
}

// Handle executes the query.
func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (*UserDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	return toUserDTO(u), nil
}

// toUserDTO maps the user entity onto its read model.
func toUserDTO(u *user.User) *UserDTO {
	return &UserDTO{
		UserID:          u.ID,
		DisplayName:     u.DisplayName,
		TotalXP:         int(u.TotalXP),
		CurrentLevel:    int(u.CurrentLevel),
		XPToNextLevel:   u.XPToNextLevel(),
		CurrentStreak:   u.CurrentStreak,
		LongestStreak:   u.LongestStreak,
		Theme:           string(u.Theme),
		AvatarEvolution: AvatarForLevel(int(u.CurrentLevel)),
		CreatedAt:       u.CreatedAt,
	}
}
