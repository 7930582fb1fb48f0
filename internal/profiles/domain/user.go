package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

const (
	RoleUser = "user"

	emailMinLength    = 3
	emailMaxLength    = 60
	passwordMinLength = 8
	passwordMaxLength = 128
)

// OWASP validation pattern.
var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`,
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string

	// PasswordResets holds outstanding reset requests ordered by time of
	// request, oldest first.
	PasswordResets []ResetPasswordRequest

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser builds a user with a normalised email. The email must already be
// valid; the password hash is stored as given.
func NewUser(id, email, passwordHash string) (User, error) {
	normalised, err := NormaliseEmail(email)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:           id,
		Email:        normalised,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}, nil
}

// NormaliseEmail validates email and returns its lower-cased form.
func NormaliseEmail(email string) (string, error) {
	n := uniseg.GraphemeClusterCount(email)
	if n < emailMinLength || n > emailMaxLength {
		return "", ErrInvalidEmail
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// ValidatePassword checks the length bounds of a plaintext password, counted
// in grapheme clusters.
func ValidatePassword(password string) error {
	n := uniseg.GraphemeClusterCount(password)
	switch {
	case n < passwordMinLength:
		return ErrPasswordTooShort
	case n > passwordMaxLength:
		return ErrPasswordTooLong
	}
	return nil
}
