package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the accrual engine.
const (
	// XP events
	EventXPGranted    EventType = "xp.granted"
	EventRecordReset  EventType = "xp.record_reset"
	EventRecordsReset EventType = "xp.records_reset"

	// Voice presence events
	EventVoiceSessionOpened   EventType = "voice.session_opened"
	EventVoiceSessionSwitched EventType = "voice.session_switched"
	EventVoiceSessionClosed   EventType = "voice.session_closed"

	// System events
	EventRecordsFlushed EventType = "system.records_flushed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventID returns the unique identifier of this event instance.
	EventID() string

	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventID implements Event interface.
func (e BaseEvent) EventID() string {
	return e.ID
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

// NewBaseEvent creates a new base event with a generated ID.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGrantedEvent is emitted whenever the engine adds XP to a record.
type XPGrantedEvent struct {
	BaseEvent
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
	RoomID string  `json:"room_id,omitempty"`
	Total  float64 `json:"total"`
}

// NewXPGrantedEvent creates an XPGrantedEvent.
func NewXPGrantedEvent(userID string, amount float64, reason, roomID string, total float64, at time.Time) XPGrantedEvent {
	return XPGrantedEvent{
		BaseEvent: NewBaseEvent(EventXPGranted, userID, at),
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		RoomID:    roomID,
		Total:     total,
	}
}

// RecordResetEvent is emitted when a single record is reset.
type RecordResetEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewRecordResetEvent creates a RecordResetEvent.
func NewRecordResetEvent(userID string, at time.Time) RecordResetEvent {
	return RecordResetEvent{
		BaseEvent: NewBaseEvent(EventRecordReset, userID, at),
		UserID:    userID,
	}
}

// RecordsResetEvent is emitted when all records are cleared.
type RecordsResetEvent struct {
	BaseEvent
	Count int `json:"count"`
}

// NewRecordsResetEvent creates a RecordsResetEvent.
func NewRecordsResetEvent(count int, at time.Time) RecordsResetEvent {
	return RecordsResetEvent{
		BaseEvent: NewBaseEvent(EventRecordsReset, "all", at),
		Count:     count,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Voice Events
// ═══════════════════════════════════════════════════════════════════════════

// VoiceSessionClosedEvent is emitted when a voice session ends (leave) or is
// rolled over (switch). DurationMs is the un-credited time that was added to
// the record's voice total by this transition.
type VoiceSessionClosedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	RoomID     string `json:"room_id"`
	DurationMs int64  `json:"duration_ms"`
	Switched   bool   `json:"switched"`
}

// NewVoiceSessionClosedEvent creates a VoiceSessionClosedEvent.
func NewVoiceSessionClosedEvent(userID, roomID string, durationMs int64, switched bool, at time.Time) VoiceSessionClosedEvent {
	typ := EventVoiceSessionClosed
	if switched {
		typ = EventVoiceSessionSwitched
	}
	return VoiceSessionClosedEvent{
		BaseEvent:  NewBaseEvent(typ, userID, at),
		UserID:     userID,
		RoomID:     roomID,
		DurationMs: durationMs,
		Switched:   switched,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publishing
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a single domain event.
type EventHandler interface {
	Handle(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventPublisher publishes domain events to interested subscribers.
// Publishing is best-effort: the engine never fails a grant because a
// subscriber failed.
type EventPublisher interface {
	Publish(event Event) error
}

// NopPublisher discards all events. Used when no bus is wired.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
