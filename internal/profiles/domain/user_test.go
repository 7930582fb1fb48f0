package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEmail(t *testing.T) {
	t.Parallel()

	t.Run("lower-cases valid addresses", func(t *testing.T) {
		email, err := domain.NormaliseEmail("Alice.Smith@Example.COM")
		require.NoError(t, err)
		require.Equal(t, "alice.smith@example.com", email)
	})

	t.Run("accepts plus addressing", func(t *testing.T) {
		_, err := domain.NormaliseEmail("bob+news@mail.example.org")
		require.NoError(t, err)
	})

	invalid := map[string]string{
		"missing at":      "alice.example.com",
		"missing tld":     "alice@example",
		"single char tld": "alice@example.c",
		"leading dot":     ".alice@example.com",
		"double dot":      "alice..smith@example.com",
		"empty":           "",
		"space":           "alice smith@example.com",
		"too long":        strings.Repeat("a", 50) + "@example.com",
		"unicode local":   "élodie@example.com",
	}
	for name, email := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := domain.NormaliseEmail(email)
			require.ErrorIs(t, err, domain.ErrInvalidEmail)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, domain.ValidatePassword("1234567"), domain.ErrPasswordTooShort)
	require.NoError(t, domain.ValidatePassword("12345678"))
	require.NoError(t, domain.ValidatePassword(strings.Repeat("x", 128)))
	require.ErrorIs(t, domain.ValidatePassword(strings.Repeat("x", 129)), domain.ErrPasswordTooLong)

	// Counted in grapheme clusters, not bytes: eight flags are 64 bytes.
	require.NoError(t, domain.ValidatePassword(strings.Repeat("🇦🇺", 8)))
	require.ErrorIs(t, domain.ValidatePassword(strings.Repeat("🇦🇺", 7)), domain.ErrPasswordTooShort)
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	u, err := domain.NewUser("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "Carol@Example.com", "hash")
	require.NoError(t, err)
	require.Equal(t, "carol@example.com", u.Email)
	require.Equal(t, domain.RoleUser, u.Role)
	require.Empty(t, u.PasswordResets)

	_, err = domain.NewUser("id", "not-an-email", "hash")
	require.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "abc-def", "User123", "a1-b2", "fifteenchars123"}
	for _, name := range valid {
		require.NoError(t, domain.ValidateUsername(name), name)
	}

	invalid := []string{"ab", "-abc", "abc-", "a--b", "abc-def-ghi", "sixteencharacter", "abc def", "ab_c", ""}
	for _, name := range invalid {
		require.ErrorIs(t, domain.ValidateUsername(name), domain.ErrInvalidUsername, name)
	}
}

func TestNewProfile(t *testing.T) {
	t.Parallel()

	p, err := domain.NewProfile("p1", "u1", "abc-def")
	require.NoError(t, err)
	require.Equal(t, "u1", p.UserID)
	require.Nil(t, p.DisplayName)

	_, err = domain.NewProfile("p1", "u1", "ab")
	require.ErrorIs(t, err, domain.ErrInvalidUsername)
}

func TestIsDomainError(t *testing.T) {
	t.Parallel()

	code, ok := domain.IsDomainError(domain.ErrPasswordWrong)
	require.True(t, ok)
	require.Equal(t, domain.ErrPasswordWrong, code)

	_, ok = domain.IsDomainError(errors.New("boom"))
	require.False(t, ok)
}
