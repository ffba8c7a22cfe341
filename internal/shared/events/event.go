package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event dispatched through the Bus.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// AggregateID identifies the entity the event is about (for example a subscription).
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseEvent carries the common event fields. Embed it in concrete events.
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }
func (e BaseEvent) AggregateType() string  { return e.AggregateName }

// NewBaseEvent creates a BaseEvent stamped with at.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     at,
		AggregateUUID: aggregateID,
		AggregateName: aggregateType,
	}
}
