package command

import (
	"context"
	"strings"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE USER COMMAND
// Registers a new user with zero progression state.
// ══════════════════════════════════════════════════════════════════════════════

// CreateUserCommand contains the data needed to create a user.
type CreateUserCommand struct {
	// UserID is the client-chosen identifier.
	UserID string

	// DisplayName is the name shown in the UI.
	DisplayName string

	// Theme is the optional world theme; empty means the default.
	Theme string
}

// Validate checks the command for basic correctness. Full validation
// happens in the domain factory.
func (c CreateUserCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return shared.ErrEmptyDisplayName
	}
	return nil
}

// CreateUserResult contains the outcome of user creation.
type CreateUserResult struct {
	// UserID is the created user's ID.
	UserID string

	// DisplayName is the stored display name.
	DisplayName string

	// Level is the starting level.
	Level int

	// Theme is the stored world theme.
	Theme string
}

// CreateUserHandler handles user creation.
type CreateUserHandler struct {
	userRepo user.Repository
	eventBus shared.EventPublisher
	log      *logger.Logger
}

// NewCreateUserHandler creates the handler.
func NewCreateUserHandler(
	userRepo user.Repository,
	eventBus shared.EventPublisher,
	log *logger.Logger,
) *CreateUserHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CreateUserHandler{
		userRepo: userRepo,
		eventBus: eventBus,
		log:      log.With(logger.Component("create_user")),
	}
}

// Handle executes the command.
func (h *CreateUserHandler) Handle(ctx context.Context, cmd CreateUserCommand) (*CreateUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:          cmd.UserID,
		DisplayName: cmd.DisplayName,
		Theme:       user.WorldTheme(cmd.Theme),
	})
	if err != nil {
		return nil, err
	}

	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	h.log.Info("user created",
		logger.UserID(u.ID),
		logger.String("display_name", u.DisplayName),
	)

	if h.eventBus != nil {
		_ = h.eventBus.Publish(shared.NewUserCreatedEvent(u.ID, u.DisplayName))
	}

	return &CreateUserResult{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Level:       int(u.CurrentLevel),
		Theme:       string(u.Theme),
	}, nil
}
