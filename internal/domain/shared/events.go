package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents a mutation that read-side
// consumers (cache invalidation, audit logging) may care about.
const (
	// User events
	EventUserCreated EventType = "user.created"

	// Progression events
	EventHabitCreated        EventType = "progression.habit_created"
	EventHabitCompleted      EventType = "progression.habit_completed"
	EventMoodLogged          EventType = "progression.mood_logged"
	EventXPGained            EventType = "progression.xp_gained"
	EventLevelUp             EventType = "progression.level_up"
	EventStreakUpdated       EventType = "progression.streak_updated"
	EventAchievementUnlocked EventType = "progression.achievement_unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	// For this engine that is always the user ID.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserCreatedEvent is emitted when a new user is created.
type UserCreatedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e UserCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"display_name": e.DisplayName,
	}
}

// NewUserCreatedEvent creates a new UserCreatedEvent.
func NewUserCreatedEvent(userID, displayName string) UserCreatedEvent {
	return UserCreatedEvent{
		BaseEvent:   NewBaseEvent(EventUserCreated, userID),
		UserID:      userID,
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// HabitCreatedEvent is emitted when a user creates a habit.
type HabitCreatedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	HabitID  string `json:"habit_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Payload implements Event interface.
func (e HabitCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"habit_id": e.HabitID,
		"name":     e.Name,
		"category": e.Category,
	}
}

// NewHabitCreatedEvent creates a new HabitCreatedEvent.
func NewHabitCreatedEvent(userID, habitID, name, category string) HabitCreatedEvent {
	return HabitCreatedEvent{
		BaseEvent: NewBaseEvent(EventHabitCreated, userID),
		UserID:    userID,
		HabitID:   habitID,
		Name:      name,
		Category:  category,
	}
}

// HabitCompletedEvent is emitted when a habit completion is recorded.
// Idempotent no-op completions do not emit this event.
type HabitCompletedEvent struct {
	BaseEvent
	UserID   string    `json:"user_id"`
	HabitID  string    `json:"habit_id"`
	Date     time.Time `json:"date"`
	XPEarned int       `json:"xp_earned"`
	NewTotal int       `json:"new_total"`
}

// Payload implements Event interface.
func (e HabitCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"habit_id":  e.HabitID,
		"date":      e.Date.Format("2006-01-02"),
		"xp_earned": e.XPEarned,
		"new_total": e.NewTotal,
	}
}

// NewHabitCompletedEvent creates a new HabitCompletedEvent.
func NewHabitCompletedEvent(userID, habitID string, date time.Time, xpEarned, newTotal int) HabitCompletedEvent {
	return HabitCompletedEvent{
		BaseEvent: NewBaseEvent(EventHabitCompleted, userID),
		UserID:    userID,
		HabitID:   habitID,
		Date:      date,
		XPEarned:  xpEarned,
		NewTotal:  newTotal,
	}
}

// MoodLoggedEvent is emitted when a mood entry is recorded or replaced.
type MoodLoggedEvent struct {
	BaseEvent
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	MoodRating  int       `json:"mood_rating"`
	EnergyLevel int       `json:"energy_level"`
}

// Payload implements Event interface.
func (e MoodLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"date":         e.Date.Format("2006-01-02"),
		"mood_rating":  e.MoodRating,
		"energy_level": e.EnergyLevel,
	}
}

// NewMoodLoggedEvent creates a new MoodLoggedEvent.
func NewMoodLoggedEvent(userID string, date time.Time, mood, energy int) MoodLoggedEvent {
	return MoodLoggedEvent{
		BaseEvent:   NewBaseEvent(EventMoodLogged, userID),
		UserID:      userID,
		Date:        date,
		MoodRating:  mood,
		EnergyLevel: energy,
	}
}

// LevelUpEvent is emitted when a user's level increases. One event is
// emitted per XP-changing operation, reporting the final level.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	TotalXP  int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// AchievementUnlockedEvent is emitted exactly once per (user, achievement).
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	RewardXP      int    `json:"reward_xp"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"reward_xp":      e.RewardXP,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, name string, rewardXP int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Name:          name,
		RewardXP:      rewardXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
