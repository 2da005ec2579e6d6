package coach

import (
	"context"

	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
)

// StaticProvider is a deterministic coaching.Provider for keyless
// deployments and tests. It serves fixed text so the rest of the system
// behaves exactly as it would with a live API.
type StaticProvider struct{}

// NewStaticProvider creates a StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// GenerateCoachMessage returns a fixed encouragement line.
func (p *StaticProvider) GenerateCoachMessage(ctx context.Context, state coaching.Snapshot) (string, error) {
	return "Keep up the great work! Your consistency is building a stronger you every day! 🌟", nil
}

// SuggestHabits returns a fixed trio of starter habits.
func (p *StaticProvider) SuggestHabits(ctx context.Context, state coaching.Snapshot) ([]coaching.Suggestion, error) {
	return []coaching.Suggestion{
		{Name: "Morning Meditation", Description: "Start your day with 5 minutes of mindfulness", Category: "wellness", Difficulty: 1},
		{Name: "Evening Walk", Description: "Take a 15-minute walk to unwind", Category: "fitness", Difficulty: 2},
		{Name: "Gratitude Journal", Description: "Write down 3 things you're grateful for", Category: "wellness", Difficulty: 1},
	}, nil
}
