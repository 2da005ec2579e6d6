package query

import (
	"context"
	"strings"

	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
	"github.com/habitverse/habitverse-engine/internal/domain/habit"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/internal/domain/user"
	"github.com/habitverse/habitverse-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUGGESTIONS QUERY
// Asks the coach provider for habit ideas and filters out ones the user
// already has. The provider is best-effort: any failure degrades to a
// static list, never to an error response.
// ══════════════════════════════════════════════════════════════════════════════

// fallbackSuggestions is served when no provider is configured.
var fallbackSuggestions = []coaching.Suggestion{
	{Name: "Morning Meditation", Description: "Start your day with 5 minutes of mindfulness", Category: "wellness", Difficulty: 1},
	{Name: "Evening Walk", Description: "Take a 15-minute walk to unwind", Category: "fitness", Difficulty: 2},
	{Name: "Gratitude Journal", Description: "Write down 3 things you're grateful for", Category: "wellness", Difficulty: 1},
}

// errorSuggestions is served when the provider fails mid-request.
var errorSuggestions = []coaching.Suggestion{
	{Name: "Power Walk", Description: "A brisk 20-minute walk", Category: "fitness", Difficulty: 2},
	{Name: "Digital Detox", Description: "One hour without screens", Category: "wellness", Difficulty: 3},
	{Name: "Learning Sprint", Description: "25 minutes of focused learning", Category: "productivity", Difficulty: 3},
}

// GetSuggestionsQuery contains the parameters for the suggestions read.
type GetSuggestionsQuery struct {
	// UserID is the user to suggest habits for.
	UserID string
}

// Validate checks the query parameters.
func (q GetSuggestionsQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetSuggestionsHandler handles suggestion reads.
type GetSuggestionsHandler struct {
	userRepo  user.Repository
	habitRepo habit.Repository
	provider  coaching.Provider
	log       *logger.Logger
}

// NewGetSuggestionsHandler creates the handler. A nil provider is allowed;
// the static fallback list is served instead.
func NewGetSuggestionsHandler(
	userRepo user.Repository,
	habitRepo habit.Repository,
	provider coaching.Provider,
	log *logger.Logger,
) *GetSuggestionsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetSuggestionsHandler{
		userRepo:  userRepo,
		habitRepo: habitRepo,
		provider:  provider,
		log:       log.With(logger.Component("get_suggestions")),
	}
}

// Handle executes the query.
func (h *GetSuggestionsHandler) Handle(ctx context.Context, q GetSuggestionsQuery) ([]coaching.Suggestion, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	habits, err := h.habitRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(habits))
	names := make([]string, 0, len(habits))
	for _, hb := range habits {
		owned[strings.ToLower(hb.Name)] = true
		names = append(names, hb.Name)
	}

	suggestions := fallbackSuggestions
	if h.provider != nil {
		generated, err := h.provider.SuggestHabits(ctx, coaching.Snapshot{
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			Level:       int(u.CurrentLevel),
			TotalXP:     int(u.TotalXP),
			HabitCount:  len(habits),
			HabitNames:  names,
		})
		if err != nil {
			h.log.Warn("suggestion provider failed", logger.UserID(u.ID), logger.Err(err))
			suggestions = errorSuggestions
		} else {
			suggestions = generated
		}
	}

	// Drop suggestions the user already has, case-insensitively.
	result := make([]coaching.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if owned[strings.ToLower(s.Name)] {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}
