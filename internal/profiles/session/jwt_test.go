package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/session"
	"github.com/stretchr/testify/require"
)

var secret = []byte(strings.Repeat("s", 32))

func newIssuer(t *testing.T, now time.Time) *session.JWTIssuer {
	t.Helper()
	iss, err := session.NewJWTIssuer(secret, "profiles", time.Hour)
	require.NoError(t, err)
	iss.Now = func() time.Time { return now }
	return iss
}

func TestJWTIssuerRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	iss := newIssuer(t, now)

	token, err := iss.CreateSession(ctx, "user-1", "profile-1")
	require.NoError(t, err)

	claims, err := iss.VerifySession(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "profile-1", claims.ProfileID)
	require.NotEmpty(t, claims.SessionID)

	other, err := iss.CreateSession(ctx, "user-1", "profile-1")
	require.NoError(t, err)
	require.NotEqual(t, token, other, "each session gets its own id")
}

func TestJWTIssuerRejects(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	iss := newIssuer(t, now)

	token, err := iss.CreateSession(ctx, "user-1", "profile-1")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newIssuer(t, now.Add(2*time.Hour))
		_, err := later.VerifySession(ctx, token)
		require.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := session.NewJWTIssuer([]byte(strings.Repeat("x", 32)), "profiles", time.Hour)
		require.NoError(t, err)
		_, err = other.VerifySession(ctx, token)
		require.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := session.NewJWTIssuer(secret, "someone-else", time.Hour)
		require.NoError(t, err)
		_, err = other.VerifySession(ctx, token)
		require.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.VerifySession(ctx, "not.a.jwt")
		require.ErrorIs(t, err, session.ErrInvalidSession)
	})
}

func TestNewJWTIssuerShortSecret(t *testing.T) {
	_, err := session.NewJWTIssuer([]byte("short"), "profiles", time.Hour)
	require.Error(t, err)
}
