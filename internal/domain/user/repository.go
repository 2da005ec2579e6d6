package user

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for the user aggregate.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the persistence operations for users.
type Repository interface {
	// Create stores a new user.
	// Returns shared.ErrUserAlreadyExists when the ID is taken.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by ID.
	// Returns shared.ErrUserNotFound when absent.
	GetByID(ctx context.Context, id string) (*User, error)

	// Update persists changed progression state (XP, level, streaks, theme).
	// Returns shared.ErrUserNotFound when absent.
	Update(ctx context.Context, u *User) error

	// Exists reports whether a user with the given ID exists.
	Exists(ctx context.Context, id string) (bool, error)
}
