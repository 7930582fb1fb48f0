package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the discriminant of an Event and the routing key used by the
// event router and the outbox.
type EventType string

const (
	EventUserCreated            EventType = "user_created"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
)

// Event is a domain event. The set of implementations is closed to this
// package.
type Event interface {
	Type() EventType
	event()
}

type UserCreated struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type PasswordResetRequested struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Requester string    `json:"requester"`
	Datetime  time.Time `json:"datetime"`
}

type PasswordChanged struct {
	UserID   string    `json:"user_id"`
	Datetime time.Time `json:"datetime"`
}

func (UserCreated) Type() EventType            { return EventUserCreated }
func (PasswordResetRequested) Type() EventType { return EventPasswordResetRequested }
func (PasswordChanged) Type() EventType        { return EventPasswordChanged }

func (UserCreated) event()            {}
func (PasswordResetRequested) event() {}
func (PasswordChanged) event()        {}

func AsUserCreated(e Event) (UserCreated, bool) {
	v, ok := e.(UserCreated)
	return v, ok
}

func AsPasswordResetRequested(e Event) (PasswordResetRequested, bool) {
	v, ok := e.(PasswordResetRequested)
	return v, ok
}

func AsPasswordChanged(e Event) (PasswordChanged, bool) {
	v, ok := e.(PasswordChanged)
	return v, ok
}

// DecodeEvent restores an event from its outbox payload.
func DecodeEvent(t EventType, payload []byte) (Event, error) {
	var (
		e   Event
		err error
	)

	switch t {
	case EventUserCreated:
		var v UserCreated
		err = json.Unmarshal(payload, &v)
		e = v
	case EventPasswordResetRequested:
		var v PasswordResetRequested
		err = json.Unmarshal(payload, &v)
		e = v
	case EventPasswordChanged:
		var v PasswordChanged
		err = json.Unmarshal(payload, &v)
		e = v
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}

	return e, nil
}
