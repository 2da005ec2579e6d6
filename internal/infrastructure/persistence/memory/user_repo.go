package memory

import (
	"context"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
)

// UserRepository is the in-memory implementation of user.Repository.
type UserRepository struct {
	store *Store
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[u.ID]; ok {
		return shared.ErrUserAlreadyExists
	}
	r.store.users[u.ID] = u.Clone()
	return nil
}

// GetByID returns a copy of the stored user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Update replaces the stored user state.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[u.ID]; !ok {
		return shared.ErrUserNotFound
	}
	r.store.users[u.ID] = u.Clone()
	return nil
}

// Exists reports whether the user is stored.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.users[id]
	return ok, nil
}
