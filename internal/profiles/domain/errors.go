package domain

import "errors"

// Error is a business-rule violation. The string value is a stable code that
// is safe to hand back to API callers.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidEmail                   Error = "invalid-email"
	ErrPasswordTooShort               Error = "password-too-short"
	ErrPasswordTooLong                Error = "password-too-long"
	ErrInvalidUsername                Error = "invalid-username"
	ErrTooManyPasswordResetsRequested Error = "too-many-password-resets-requested"
	ErrInvalidPasswordResetToken      Error = "invalid-password-reset-token"
	ErrPasswordResetTokenExpired      Error = "password-reset-token-expired"
	ErrPasswordWrong                  Error = "password-wrong"
)

// IsDomainError reports whether err wraps a domain.Error and returns it.
func IsDomainError(err error) (Error, bool) {
	var de Error
	if errors.As(err, &de) {
		return de, true
	}
	return "", false
}
