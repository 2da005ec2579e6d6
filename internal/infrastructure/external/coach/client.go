// Package coach implements the external coach provider on top of an
// OpenAI-compatible chat completions API. It produces the dashboard
// encouragement line and habit suggestions; every failure mode degrades to
// the static fallbacks owned by the callers.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/habitverse/habitverse-engine/internal/domain/coaching"
	"github.com/habitverse/habitverse-engine/pkg/circuitbreaker"
	"github.com/habitverse/habitverse-engine/pkg/logger"
	"github.com/habitverse/habitverse-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the coach API client.
type ClientConfig struct {
	// BaseURL is the chat completions API base URL.
	BaseURL string

	// APIKey is the bearer token for authentication.
	APIKey string

	// Model is the model identifier sent with each request.
	Model string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   "gpt-3.5-turbo",
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyResponse is returned when the API answers with no choices.
	ErrEmptyResponse = errors.New("coach: empty response")

	// ErrMalformedSuggestions is returned when the suggestion payload
	// cannot be parsed as the expected JSON array.
	ErrMalformedSuggestions = errors.New("coach: malformed suggestions payload")
)

// apiError carries the HTTP status of a failed call.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("coach api returned %d: %s", e.Status, e.Body)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client calls the chat completions endpoint. It implements
// coaching.Provider with a retrier for transient failures and a circuit
// breaker that sheds calls while the API is down.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new coach API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	log := cfg.Logger.With(logger.Component("coach_client"))

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log:     log,
		retrier: retry.CoachAPIRetrier(),
		breaker: circuitbreaker.CoachAPIBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state change",
				logger.F("breaker", name),
				logger.F("from", from.String()),
				logger.F("to", to.String()),
			)
		}),
	}
}

// GenerateCoachMessage produces a short personalized encouragement line.
func (c *Client) GenerateCoachMessage(ctx context.Context, state coaching.Snapshot) (string, error) {
	prompt := coachMessagePrompt(state)

	content, err := c.complete(ctx, prompt, 100, 0.7)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

// SuggestHabits produces habit candidates as structured suggestions.
func (c *Client) SuggestHabits(ctx context.Context, state coaching.Snapshot) ([]coaching.Suggestion, error) {
	prompt := suggestionPrompt(state)

	content, err := c.complete(ctx, prompt, 300, 0.8)
	if err != nil {
		return nil, err
	}

	var suggestions []coaching.Suggestion
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestions, err)
	}
	if len(suggestions) == 0 {
		return nil, ErrMalformedSuggestions
	}

	for i := range suggestions {
		if suggestions[i].Difficulty < 1 || suggestions[i].Difficulty > 5 {
			suggestions[i].Difficulty = 2
		}
	}

	return suggestions, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// ══════════════════════════════════════════════════════════════════════════════

func coachMessagePrompt(state coaching.Snapshot) string {
	var b strings.Builder

	b.WriteString("You are a supportive AI coach for HabitVerse, a gamified habit-building app.\n\n")
	b.WriteString("User Context:\n")
	fmt.Fprintf(&b, "- Name: %s\n", state.DisplayName)
	fmt.Fprintf(&b, "- Level: %d\n", state.Level)
	fmt.Fprintf(&b, "- Total XP: %d\n", state.TotalXP)
	fmt.Fprintf(&b, "- Current Streak: %d\n", state.CurrentStreak)
	fmt.Fprintf(&b, "- Habits: %d active habits\n", state.HabitCount)
	fmt.Fprintf(&b, "- Completed today: %d\n", state.TodayCompletions)
	if len(state.HabitNames) > 0 {
		n := len(state.HabitNames)
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "- Recent Habits: %s\n", strings.Join(state.HabitNames[:n], ", "))
	}
	if state.RecentMood > 0 {
		fmt.Fprintf(&b, "- Recent Mood: %d/5\n", state.RecentMood)
	}

	b.WriteString("\nProvide a personalized, encouraging message (max 2 sentences) that:\n")
	b.WriteString("1. Acknowledges their progress\n")
	b.WriteString("2. Offers gentle motivation or a specific tip\n")
	b.WriteString("3. Uses gamification language (XP, level up, quest, etc.)\n")
	b.WriteString("4. Keeps it positive and engaging\n\n")
	b.WriteString("Make it feel like a friendly companion, not a formal coach.")

	return b.String()
}

func suggestionPrompt(state coaching.Snapshot) string {
	var b strings.Builder

	b.WriteString("Generate 3 personalized habit suggestions for a habit-building app user.\n\n")
	if len(state.HabitNames) > 0 {
		fmt.Fprintf(&b, "They already have these habits: %s\n\n", strings.Join(state.HabitNames, ", "))
	}
	b.WriteString("Return ONLY a JSON array with this format:\n")
	b.WriteString(`[{"name": "Habit Name", "description": "Brief description", "category": "fitness|focus|sleep|wellness|productivity", "difficulty": 1}]`)
	b.WriteString("\n\nDifficulty is an integer from 1 to 5. ")
	b.WriteString("Make habits specific, achievable, and different from existing ones.")

	return b.String()
}

// extractJSONArray trims any prose the model wrapped around the array.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}

// ══════════════════════════════════════════════════════════════════════════════
// CHAT COMPLETIONS TRANSPORT
// ══════════════════════════════════════════════════════════════════════════════

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one chat completion request through the breaker and
// retrier and returns the first choice's content.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	var content string

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			out, err := c.doRequest(ctx, prompt, maxTokens, temperature)
			if err != nil {
				return err
			}
			content = out
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return content, nil
}

func (c *Client) doRequest(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	payload := chatRequest{
		Model:       c.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are worth retrying.
		return "", retry.Retryable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{Status: resp.StatusCode, Body: truncate(string(data), 200)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", retry.Retryable(apiErr)
		}
		return "", retry.Permanent(apiErr)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", retry.Permanent(ErrEmptyResponse)
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
