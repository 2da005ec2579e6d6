package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/habitverse/habitverse-engine/internal/application/command"
	"github.com/habitverse/habitverse-engine/internal/application/query"
	"github.com/habitverse/habitverse-engine/internal/domain/achievement"
	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// mapError translates a domain error into an HTTP error response.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", err.Error())
	default:
		s.log.Error("unhandled error", logger.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dest.
func decodeBody(r *http.Request, dest interface{}) error {
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dest); err != nil {
		return err
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.deps.Store.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]string{"status": status})
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

type createUserRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Theme       string `json:"theme"`
}

type createUserResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"current_level"`
	Theme       string `json:"theme"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	result, err := s.deps.CreateUser.Handle(r.Context(), command.CreateUserCommand{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Theme:       req.Theme,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createUserResponse{
		UserID:      result.UserID,
		DisplayName: result.DisplayName,
		Level:       result.Level,
		Theme:       result.Theme,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetUser.Handle(r.Context(), query.GetUserQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HABITS
// ══════════════════════════════════════════════════════════════════════════════

type createHabitRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  int    `json:"difficulty"`
}

type createHabitResponse struct {
	HabitID         string          `json:"habit_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Difficulty      int             `json:"difficulty"`
	XPReward        int             `json:"xp_reward"`
	NewAchievements []unlockedBadge `json:"new_achievements"`
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	result, err := s.deps.CreateHabit.Handle(r.Context(), command.CreateHabitCommand{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createHabitResponse{
		HabitID:         result.HabitID,
		Name:            result.Name,
		Category:        result.Category,
		Difficulty:      result.Difficulty,
		XPReward:        result.XPReward,
		NewAchievements: toBadges(result.NewAchievements),
	})
}

func (s *Server) handleGetHabits(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetHabits.Handle(r.Context(), query.GetHabitsQuery{
		UserID: r.PathValue("userId"),
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	if result == nil {
		result = []query.HabitDTO{}
	}
	writeJSON(w, http.StatusOK, result)
}

type completeHabitRequest struct {
	UserID      string `json:"user_id"`
	MoodRating  int    `json:"mood_rating"`
	EnergyLevel int    `json:"energy_level"`
}

type completeHabitResponse struct {
	XPEarned        int             `json:"xp_earned"`
	TotalXP         int             `json:"total_xp"`
	CurrentLevel    int             `json:"current_level"`
	LevelUp         bool            `json:"level_up"`
	CurrentStreak   int             `json:"current_streak"`
	NewAchievements []unlockedBadge `json:"new_achievements"`
}

func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	var req completeHabitRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	result, err := s.deps.CompleteHabit.Handle(r.Context(), command.CompleteHabitCommand{
		UserID:      req.UserID,
		HabitID:     r.PathValue("habitId"),
		MoodRating:  req.MoodRating,
		EnergyLevel: req.EnergyLevel,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completeHabitResponse{
		XPEarned:        result.XPEarned,
		TotalXP:         result.TotalXP,
		CurrentLevel:    result.CurrentLevel,
		LevelUp:         result.LevelUp,
		CurrentStreak:   result.CurrentStreak,
		NewAchievements: toBadges(result.NewAchievements),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MOOD
// ══════════════════════════════════════════════════════════════════════════════

type logMoodRequest struct {
	UserID      string `json:"user_id"`
	MoodRating  int    `json:"mood_rating"`
	EnergyLevel int    `json:"energy_level"`
	Notes       string `json:"notes"`
}

type logMoodResponse struct {
	EntryID         string          `json:"entry_id"`
	Date            string          `json:"date"`
	NewAchievements []unlockedBadge `json:"new_achievements"`
}

func (s *Server) handleLogMood(w http.ResponseWriter, r *http.Request) {
	var req logMoodRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	result, err := s.deps.LogMood.Handle(r.Context(), command.LogMoodCommand{
		UserID:      req.UserID,
		MoodRating:  req.MoodRating,
		EnergyLevel: req.EnergyLevel,
		Notes:       req.Notes,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, logMoodResponse{
		EntryID:         result.EntryID,
		Date:            result.Date,
		NewAchievements: toBadges(result.NewAchievements),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ VIEWS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if s.deps.Cache != nil {
		var cached query.DashboardDTO
		if err := s.deps.Cache.GetDashboard(r.Context(), userID, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	result, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{UserID: userID})
	if err != nil {
		s.mapError(w, err)
		return
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetDashboard(r.Context(), userID, result); err != nil {
			s.log.Warn("failed to cache dashboard", logger.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetAchievements.Handle(r.Context(), query.GetAchievementsQuery{
		UserID: r.PathValue("userId"),
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if s.deps.Cache != nil {
		var cached query.AnalyticsDTO
		if err := s.deps.Cache.GetAnalytics(r.Context(), userID, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	result, err := s.deps.GetAnalytics.Handle(r.Context(), query.GetAnalyticsQuery{UserID: userID})
	if err != nil {
		s.mapError(w, err)
		return
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetAnalytics(r.Context(), userID, result); err != nil {
			s.log.Warn("failed to cache analytics", logger.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSuggestions(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetSuggestions.Handle(r.Context(), query.GetSuggestionsQuery{
		UserID: r.PathValue("userId"),
	})
	if err != nil {
		s.mapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if s.deps.Cache != nil {
		var cached query.StatsDTO
		if err := s.deps.Cache.GetStats(r.Context(), userID, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	result, err := s.deps.GetStats.Handle(r.Context(), query.GetStatsQuery{UserID: userID})
	if err != nil {
		s.mapError(w, err)
		return
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetStats(r.Context(), userID, result); err != nil {
			s.log.Warn("failed to cache stats", logger.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// unlockedBadge is the wire form of a freshly unlocked achievement.
type unlockedBadge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	RewardXP    int    `json:"reward_xp"`
}

func toBadges(defs []achievement.Definition) []unlockedBadge {
	badges := make([]unlockedBadge, 0, len(defs))
	for _, def := range defs {
		badges = append(badges, unlockedBadge{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			RewardXP:    def.RewardXP,
		})
	}
	return badges
}
