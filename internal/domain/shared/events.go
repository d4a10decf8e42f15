// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import "time"

// EventType identifies a kind of domain event.
type EventType string

// Event types driving the event-driven parts of the engine.
const (
	EventAchievementAwarded EventType = "achievement.awarded"
	EventAchievementSkipped EventType = "achievement.skipped"

	EventScoreIncreased EventType = "scoring.score_increased"

	EventLeaderboardInvalidated EventType = "leaderboard.cache_invalidated"
	EventLeaderboardRebuilt     EventType = "leaderboard.cache_rebuilt"
)

// Event is the contract every domain event satisfies.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent carries the fields shared by every event. Concrete events
// embed it and add their payload.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateId }

// NewBaseEvent stamps a fresh event of the given type.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID ties the event to the request that caused it.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// AchievementAwardedEvent is emitted when a user earns a new achievement.
type AchievementAwardedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Points        int64  `json:"points"`
}

// NewAchievementAwardedEvent creates an AchievementAwardedEvent.
func NewAchievementAwardedEvent(userID, achievementID string, points int64) AchievementAwardedEvent {
	return AchievementAwardedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementAwarded, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Points:        points,
	}
}

// AchievementSkippedEvent is emitted when a qualifying achievement turns out
// to be already recorded in the ledger (a concurrent check won the race).
type AchievementSkippedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
}

// NewAchievementSkippedEvent creates an AchievementSkippedEvent.
func NewAchievementSkippedEvent(userID, achievementID string) AchievementSkippedEvent {
	return AchievementSkippedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementSkipped, userID),
		UserID:        userID,
		AchievementID: achievementID,
	}
}

// ScoreIncreasedEvent is emitted when a user's total score grows.
type ScoreIncreasedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Delta    int64  `json:"delta"`
	NewTotal int64  `json:"new_total"`
	Source   string `json:"source"`
}

// NewScoreIncreasedEvent creates a ScoreIncreasedEvent.
func NewScoreIncreasedEvent(userID string, delta, newTotal int64, source string) ScoreIncreasedEvent {
	return ScoreIncreasedEvent{
		BaseEvent: NewBaseEvent(EventScoreIncreased, userID),
		UserID:    userID,
		Delta:     delta,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LeaderboardInvalidatedEvent is emitted when the cached leaderboard is
// marked stale after a score change.
type LeaderboardInvalidatedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewLeaderboardInvalidatedEvent creates a LeaderboardInvalidatedEvent.
func NewLeaderboardInvalidatedEvent(userID, reason string) LeaderboardInvalidatedEvent {
	return LeaderboardInvalidatedEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardInvalidated, userID),
		Reason:    reason,
	}
}

// LeaderboardRebuiltEvent is emitted when a fresh snapshot is written to cache.
type LeaderboardRebuiltEvent struct {
	BaseEvent
	Entries  int           `json:"entries"`
	Duration time.Duration `json:"duration"`
}

// NewLeaderboardRebuiltEvent creates a LeaderboardRebuiltEvent.
func NewLeaderboardRebuiltEvent(entries int, duration time.Duration) LeaderboardRebuiltEvent {
	return LeaderboardRebuiltEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardRebuilt, "leaderboard"),
		Entries:   entries,
		Duration:  duration,
	}
}

// EventHandler consumes one event.
type EventHandler func(event Event) error

// EventPublisher publishes events to subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber registers handlers for events.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
