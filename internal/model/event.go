package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the outbox state of an Event.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusProcessed EventStatus = "processed"
	EventStatusFailed    EventStatus = "failed"
)

// Event types written next to product changes.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// Event is one outbox row. EventData holds the message to publish once the
// surrounding product write has committed.
type Event struct {
	ID          uuid.UUID
	EventType   string
	EventData   json.RawMessage
	Status      EventStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta assigns the identity and creation time. A blank status becomes pending.
func (e *Event) InitMeta() {
	e.ID, e.CreatedAt = uuid.New(), time.Now()
	if e.Status == "" {
		e.Status = EventStatusPending
	}
}

// Final reports whether the outbox worker is done with the event.
func (s EventStatus) Final() bool {
	return s == EventStatusProcessed || s == EventStatusFailed
}

func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{EventType: eventType, EventData: data, Status: EventStatusPending}, nil
}
