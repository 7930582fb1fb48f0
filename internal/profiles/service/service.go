// Package service holds the use cases. Every state change is written together
// with its domain events in one transaction; the events are dispatched to
// in-process handlers only after that transaction commits.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
	"github.com/google/uuid"
)

var (
	ErrEmailAlreadyInUse    = fmt.Errorf("email already in use: %w", store.ErrAlreadyExists)
	ErrUsernameAlreadyTaken = fmt.Errorf("username already taken: %w", store.ErrAlreadyExists)
	ErrUserNotFound         = fmt.Errorf("user not found: %w", store.ErrNotFound)
	ErrProfileNotFound      = fmt.Errorf("profile not found: %w", store.ErrNotFound)

	// ErrUnexpected wraps failures of collaborators (hasher, session service,
	// token generation) that callers cannot act on.
	ErrUnexpected = errors.New("unexpected error")
)

// EventDispatcher delivers a committed event to its handlers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, e domain.Event) error
}

type SessionIssuer interface {
	CreateSession(ctx context.Context, userID, profileID string) (string, error)
}

// PasswordHasher hashes and checks passwords. Verify returns
// cryptox.ErrPasswordMismatch for a wrong password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) error
}

func unexpected(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnexpected, op, err)
}

// correlationID ties every outbox row written for one request together.
func correlationID(ctx context.Context) string {
	if id, ok := slogx.RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}
