package cryptox

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, token, 43)

		// Safe in a query string as is.
		require.Equal(t, token, url.QueryEscape(token))

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, TokenSize256)

		require.NotContains(t, seen, token, "duplicate token")
		seen[token] = struct{}{}
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(TokenSize256)
	require.NoError(t, err)
	require.Len(t, a, TokenSize256)

	b, err := GenerateSecret(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGenerateInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)

		secret, err := GenerateSecret(size)
		require.Error(t, err)
		require.Nil(t, secret)
	}
}
