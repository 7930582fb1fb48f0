package domain

import (
	"regexp"
	"time"

	"github.com/rivo/uniseg"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 15
)

// Letters and digits, optionally joined by a single inner hyphen.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)?$`)

type Profile struct {
	ID             string
	UserID         string
	Username       string
	DisplayName    *string
	Bio            *string
	Banner         *string
	ProfilePicture *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProfile builds the initial profile for a freshly registered user.
func NewProfile(id, userID, username string) (Profile, error) {
	if err := ValidateUsername(username); err != nil {
		return Profile{}, err
	}

	return Profile{
		ID:       id,
		UserID:   userID,
		Username: username,
	}, nil
}

func ValidateUsername(username string) error {
	n := uniseg.GraphemeClusterCount(username)
	if n < usernameMinLength || n > usernameMaxLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
