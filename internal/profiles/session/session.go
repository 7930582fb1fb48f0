// Package session issues and verifies the tokens handed out after sign-up and
// sign-in. Tokens are either minted locally (JWTIssuer) or obtained from a
// separate session service (RemoteIssuer).
package session

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSession means the token is malformed, forged or expired.
	ErrInvalidSession = errors.New("session: invalid session token")

	// ErrUnavailable means the session backend could not be reached or
	// answered unexpectedly.
	ErrUnavailable = errors.New("session: backend unavailable")
)

// Claims identify the caller a session was issued for.
type Claims struct {
	SessionID string
	UserID    string
	ProfileID string
}

// Issuer creates session tokens.
type Issuer interface {
	CreateSession(ctx context.Context, userID, profileID string) (string, error)
}

// Verifier resolves session tokens back to their claims.
type Verifier interface {
	VerifySession(ctx context.Context, token string) (Claims, error)
}
