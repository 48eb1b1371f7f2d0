package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents something that happened during a sync run
type DomainEvent interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	// RunID groups every event emitted by one invocation
	RunID() string
}

// BaseEvent provides common event properties
type BaseEvent struct {
	eventID    string
	eventType  string
	occurredAt time.Time
	runID      string
}

// NewBaseEvent creates a new base event
func NewBaseEvent(eventType, runID string) BaseEvent {
	return BaseEvent{
		eventID:    uuid.New().String(),
		eventType:  eventType,
		occurredAt: time.Now(),
		runID:      runID,
	}
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.New().String()
}

func (e BaseEvent) EventID() string {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) RunID() string {
	return e.runID
}
