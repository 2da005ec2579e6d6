package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig(server.URL, "test-key")
	return NewClient(cfg)
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerateCoachMessageBuildsPromptFromSnapshot(t *testing.T) {
	var gotBody chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		chatReply(t, w, "  You're on a 7-day quest streak, keep earning that XP!  ")
	})

	msg, err := client.GenerateCoachMessage(context.Background(), coaching.Snapshot{
		UserID:        "u1",
		DisplayName:   "Aruzhan",
		Level:         3,
		TotalXP:       450,
		CurrentStreak: 7,
		HabitCount:    2,
		HabitNames:    []string{"Morning Run", "Read"},
		RecentMood:    4,
	})

	require.NoError(t, err)
	assert.Equal(t, "You're on a 7-day quest streak, keep earning that XP!", msg)

	require.Len(t, gotBody.Messages, 1)
	assert.Contains(t, gotBody.Messages[0].Content, "Current Streak: 7")
	assert.Contains(t, gotBody.Messages[0].Content, "Morning Run, Read")
	assert.Equal(t, 100, gotBody.MaxTokens)
}

func TestSuggestHabitsParsesWrappedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "Here are your habits:\n"+
			`[{"name": "Cold Shower", "description": "Finish with 30s cold", "category": "wellness", "difficulty": 3}]`+
			"\nEnjoy!")
	})

	suggestions, err := client.SuggestHabits(context.Background(), coaching.Snapshot{UserID: "u1"})

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Cold Shower", suggestions[0].Name)
	assert.Equal(t, 3, suggestions[0].Difficulty)
}

func TestSuggestHabitsClampsMissingDifficulty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `[{"name": "Stretch", "description": "5 minutes", "category": "fitness"}]`)
	})

	suggestions, err := client.SuggestHabits(context.Background(), coaching.Snapshot{UserID: "u1"})

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 2, suggestions[0].Difficulty)
}

func TestSuggestHabitsRejectsMalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "I cannot produce JSON right now, sorry.")
	})

	_, err := client.SuggestHabits(context.Background(), coaching.Snapshot{UserID: "u1"})

	assert.ErrorIs(t, err, ErrMalformedSuggestions)
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	})

	_, err := client.GenerateCoachMessage(context.Background(), coaching.Snapshot{UserID: "u1"})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		chatReply(t, w, "Back on track!")
	})

	msg, err := client.GenerateCoachMessage(context.Background(), coaching.Snapshot{UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, "Back on track!", msg)
	assert.Equal(t, 3, calls)
}

func TestStaticProviderIsDeterministic(t *testing.T) {
	provider := NewStaticProvider()

	msg, err := provider.GenerateCoachMessage(context.Background(), coaching.Snapshot{})
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	suggestions, err := provider.SuggestHabits(context.Background(), coaching.Snapshot{})
	require.NoError(t, err)
	assert.Len(t, suggestions, 3)
}
