package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitverse/habitverse-engine/internal/application/command"
	"github.com/habitverse/habitverse-engine/internal/application/query"
	"github.com/habitverse/habitverse-engine/internal/application/saga"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/messaging"
	"github.com/habitverse/habitverse-engine/internal/infrastructure/persistence/memory"
	"github.com/habitverse/habitverse-engine/pkg/timeutil"
)

// memCache is a map-backed ViewCache used to verify cache interplay
// without a Redis instance.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) get(key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) set(key string, view interface{}) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) GetDashboard(_ context.Context, userID string, dest interface{}) error {
	return c.get("dashboard:"+userID, dest)
}

func (c *memCache) SetDashboard(_ context.Context, userID string, view interface{}) error {
	return c.set("dashboard:"+userID, view)
}

func (c *memCache) GetAnalytics(_ context.Context, userID string, dest interface{}) error {
	return c.get("analytics:"+userID, dest)
}

func (c *memCache) SetAnalytics(_ context.Context, userID string, view interface{}) error {
	return c.set("analytics:"+userID, view)
}

func (c *memCache) GetStats(_ context.Context, userID string, dest interface{}) error {
	return c.get("stats:"+userID, dest)
}

func (c *memCache) SetStats(_ context.Context, userID string, view interface{}) error {
	return c.set("stats:"+userID, view)
}

type serverFixture struct {
	server *Server
	clock  *timeutil.FixedClock
	cache  *memCache
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	store := memory.NewStore()
	clock := &timeutil.FixedClock{Instant: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	locks := command.NewUserLocks()
	cache := newMemCache()

	bus := messaging.NewInMemoryEventBus(messaging.Config{AsyncMode: false})
	t.Cleanup(func() { _ = bus.Close() })

	evaluator := saga.NewAchievementEvaluator(
		store.HabitRepository(),
		store.CompletionRepository(),
		store.MoodRepository(),
		store.UnlockRepository(),
		bus,
		clock,
		nil,
	)

	deps := Dependencies{
		CreateUser: command.NewCreateUserHandler(store.UserRepository(), bus, nil),
		CreateHabit: command.NewCreateHabitHandler(
			store.UserRepository(), store.HabitRepository(), store, evaluator, locks, bus, nil,
		),
		CompleteHabit: command.NewCompleteHabitHandler(
			store.UserRepository(), store.HabitRepository(), store.CompletionRepository(),
			store, evaluator, locks, bus, clock, nil,
		),
		LogMood: command.NewLogMoodHandler(
			store.UserRepository(), store.MoodRepository(), store, evaluator, locks,
			command.PolicyReplace, bus, clock, nil,
		),
		GetUser: query.NewGetUserHandler(store.UserRepository()),
		GetDashboard: query.NewGetDashboardHandler(
			store.UserRepository(), store.HabitRepository(), store.CompletionRepository(),
			store.MoodRepository(), store.UnlockRepository(), nil, clock, nil,
		),
		GetHabits: query.NewGetHabitsHandler(
			store.UserRepository(), store.HabitRepository(), store.CompletionRepository(), clock,
		),
		GetAchievements: query.NewGetAchievementsHandler(store.UserRepository(), store.UnlockRepository()),
		GetAnalytics: query.NewGetAnalyticsHandler(
			store.UserRepository(), store.CompletionRepository(), store.MoodRepository(), clock,
		),
		GetSuggestions: query.NewGetSuggestionsHandler(store.UserRepository(), store.HabitRepository(), nil, nil),
		GetStats: query.NewGetStatsHandler(
			store.UserRepository(), store.CompletionRepository(), store.MoodRepository(), clock,
		),
		Cache: cache,
	}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	return &serverFixture{
		server: NewServer(cfg, deps),
		clock:  clock,
		cache:  cache,
	}
}

// do runs one request through the full middleware chain.
func (f *serverFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// decode unpacks the response envelope's data into dest.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, got error: %+v", envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Success bool      `json:"success"`
		Error   *APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func (f *serverFixture) mustUser(t *testing.T, id string) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/users", map[string]any{
		"user_id":      id,
		"display_name": "Demo User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *serverFixture) mustHabit(t *testing.T, userID, name string, difficulty int) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/habits", map[string]any{
		"user_id":    userID,
		"name":       name,
		"category":   "fitness",
		"difficulty": difficulty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createHabitResponse
	decode(t, rec, &resp)
	return resp.HabitID
}

func TestCreateUserRoute(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users", map[string]any{
		"user_id":      "demo",
		"display_name": "Demo User",
		"theme":        "ocean",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createUserResponse
	decode(t, rec, &resp)
	assert.Equal(t, "demo", resp.UserID)
	assert.Equal(t, 1, resp.Level)
	assert.Equal(t, "ocean", resp.Theme)

	// Duplicate ID conflicts.
	rec = f.do(t, http.MethodPost, "/api/users", map[string]any{
		"user_id":      "demo",
		"display_name": "Someone Else",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", errorCode(t, rec))
}

func TestCreateUserRejectsBadBody(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", errorCode(t, rec))
}

func TestGetUserRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodGet, "/api/users/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp query.UserDTO
	decode(t, rec, &resp)
	assert.Equal(t, "demo", resp.UserID)
	assert.Equal(t, 1, resp.CurrentLevel)

	rec = f.do(t, http.MethodGet, "/api/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))
}

func TestCreateHabitValidationMapsTo400(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodPost, "/api/habits", map[string]any{
		"user_id":    "demo",
		"name":       "Overreach",
		"category":   "fitness",
		"difficulty": 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestCompleteHabitRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Morning Run", 3)

	rec := f.do(t, http.MethodPost, "/api/habits/"+habitID+"/complete", map[string]any{
		"user_id": "demo",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp completeHabitResponse
	decode(t, rec, &resp)
	assert.Equal(t, 30, resp.XPEarned)
	assert.Equal(t, 1, resp.CurrentStreak)

	// Completing again the same day is a no-op, not an error.
	rec = f.do(t, http.MethodPost, "/api/habits/"+habitID+"/complete", map[string]any{
		"user_id": "demo",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.XPEarned)

	// Unknown habit is a 404.
	rec = f.do(t, http.MethodPost, "/api/habits/no-such-habit/complete", map[string]any{
		"user_id": "demo",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogMoodRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodPost, "/api/mood", map[string]any{
		"user_id":      "demo",
		"mood_rating":  4,
		"energy_level": 3,
		"notes":        "steady",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp logMoodResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.EntryID)
	assert.Equal(t, "2026-03-10", resp.Date)

	rec = f.do(t, http.MethodPost, "/api/mood", map[string]any{
		"user_id":      "demo",
		"mood_rating":  7,
		"energy_level": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardRouteUsesCache(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")
	f.mustHabit(t, "demo", "Morning Run", 3)

	rec := f.do(t, http.MethodGet, "/api/dashboard/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view query.DashboardDTO
	decode(t, rec, &view)
	assert.Equal(t, 1, view.TotalHabits)

	// The first read populated the cache; a poisoned entry proves the
	// second read is served from it.
	view.TotalHabits = 99
	require.NoError(t, f.cache.SetDashboard(context.Background(), "demo", &view))

	rec = f.do(t, http.MethodGet, "/api/dashboard/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 99, view.TotalHabits)
}

func TestDashboardUnknownUser(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAchievementsRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodGet, "/api/achievements/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []query.AchievementDTO
	decode(t, rec, &resp)
	assert.Len(t, resp, 7)
}

func TestAnalyticsRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")
	habitID := f.mustHabit(t, "demo", "Morning Run", 3)

	rec := f.do(t, http.MethodPost, "/api/habits/"+habitID+"/complete", map[string]any{
		"user_id": "demo",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/analytics/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp query.AnalyticsDTO
	decode(t, rec, &resp)
	assert.Len(t, resp.DailyData, 30)
	assert.Equal(t, 1, resp.TotalCompletions)
}

func TestSuggestionsRouteFallsBackWithoutProvider(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodGet, "/api/suggestions/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	decode(t, rec, &resp)
	assert.Len(t, resp, 3)
}

func TestStatsRoute(t *testing.T) {
	f := newServerFixture(t)
	f.mustUser(t, "demo")

	rec := f.do(t, http.MethodGet, "/api/stats/demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp query.StatsDTO
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.CurrentLevel)
}

func TestHealthRoute(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	assert.Equal(t, "healthy", resp["status"])
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimitReturns429(t *testing.T) {
	f := newServerFixture(t)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 2
	limited := NewServer(cfg, f.server.deps)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		limited.Handler().ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "rate_limit_exceeded", errorCode(t, last))
}
