package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConnectionExhausted means no pooled connection became free in time.
	ErrConnectionExhausted = errors.New("store: connection pool exhausted")

	// ErrUnexpected wraps any driver failure that has no better mapping.
	ErrUnexpected = errors.New("store: unexpected error")

	// ErrTx wraps failures to begin, commit or roll back a transaction.
	ErrTx = errors.New("store: transaction error")
)

// Unexpected wraps a driver error that occurred during op. A nil err stays
// nil.
func Unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnexpected, op, err)
}

// TxFailure wraps a transaction lifecycle error that occurred during op.
func TxFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrTx, op, err)
}

// Conflict reports a unique constraint violation on constraint.
func Conflict(constraint string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAlreadyExists, constraint, err)
}
