package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry is the durable record of an Event, written in the same
// transaction as the state change that produced it. Entries are never
// updated apart from DispatchedAt.
type OutboxEntry struct {
	ID            string
	CorrelationID string
	EventType     EventType
	Payload       []byte
	InsertedAt    time.Time
	DispatchedAt  *time.Time
}

func NewOutboxEntry(id, correlationID string, e Event, now time.Time) (OutboxEntry, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("encode %s payload: %w", e.Type(), err)
	}

	return OutboxEntry{
		ID:            id,
		CorrelationID: correlationID,
		EventType:     e.Type(),
		Payload:       payload,
		InsertedAt:    now,
	}, nil
}

// Event decodes the stored payload.
func (o OutboxEntry) Event() (Event, error) {
	return DecodeEvent(o.EventType, o.Payload)
}
