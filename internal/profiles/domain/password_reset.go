package domain

import (
	"slices"
	"time"
)

const (
	// PasswordResetWindow is both the sliding rate-limit window and the
	// lifetime of a single reset token.
	PasswordResetWindow = time.Hour

	// MaxPasswordResetsPerWindow is the number of requests a user may hold
	// within one window.
	MaxPasswordResetsPerWindow = 3
)

type ResetPasswordRequest struct {
	Token string
	At    time.Time
}

func (r ResetPasswordRequest) expired(now time.Time) bool {
	return now.Sub(r.At) > PasswordResetWindow
}

// RecentPasswordResets counts requests made within the trailing window.
func (u *User) RecentPasswordResets(now time.Time) int {
	n := 0
	for _, r := range u.PasswordResets {
		if !r.expired(now) {
			n++
		}
	}
	return n
}

// RequestPasswordReset records a new reset request for token and returns the
// event announcing it. Requests that have aged out of the window are dropped
// since they can no longer be redeemed.
func (u *User) RequestPasswordReset(token, requester string, now time.Time) (PasswordResetRequested, error) {
	if u.RecentPasswordResets(now) >= MaxPasswordResetsPerWindow {
		return PasswordResetRequested{}, ErrTooManyPasswordResetsRequested
	}

	u.PasswordResets = slices.DeleteFunc(u.PasswordResets, func(r ResetPasswordRequest) bool {
		return r.expired(now)
	})
	u.PasswordResets = append(u.PasswordResets, ResetPasswordRequest{Token: token, At: now})
	u.UpdatedAt = now

	return PasswordResetRequested{
		Token:     token,
		Email:     u.Email,
		Requester: requester,
		Datetime:  now,
	}, nil
}

// ResetPassword redeems token and replaces the password hash. newPassword is
// validated before hash is called. Every pending request is consumed on
// success.
func (u *User) ResetPassword(
	token, newPassword string,
	now time.Time,
	hash func(string) (string, error),
) (PasswordChanged, error) {
	idx := slices.IndexFunc(u.PasswordResets, func(r ResetPasswordRequest) bool {
		return r.Token == token
	})
	if idx < 0 {
		return PasswordChanged{}, ErrInvalidPasswordResetToken
	}
	if u.PasswordResets[idx].expired(now) {
		return PasswordChanged{}, ErrPasswordResetTokenExpired
	}

	return u.ChangePassword(newPassword, now, hash)
}

// ChangePassword validates and hashes newPassword, stores it and clears any
// outstanding reset requests.
func (u *User) ChangePassword(
	newPassword string,
	now time.Time,
	hash func(string) (string, error),
) (PasswordChanged, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return PasswordChanged{}, err
	}

	hashed, err := hash(newPassword)
	if err != nil {
		return PasswordChanged{}, err
	}

	u.PasswordHash = hashed
	u.PasswordResets = nil
	u.UpdatedAt = now

	return PasswordChanged{UserID: u.ID, Datetime: now}, nil
}
