package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/internal/profiles/store"
	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

var domainDescriptions = map[domain.Error]string{
	domain.ErrInvalidEmail:                   "Email address is invalid",
	domain.ErrPasswordTooShort:               "Password must be at least 8 characters",
	domain.ErrPasswordTooLong:                "Password must be at most 128 characters",
	domain.ErrInvalidUsername:                "Username must be 3-15 letters or digits, optionally joined by one hyphen",
	domain.ErrTooManyPasswordResetsRequested: "Too many password resets requested, try again later",
	domain.ErrInvalidPasswordResetToken:      "Password reset token is invalid",
	domain.ErrPasswordResetTokenExpired:      "Password reset token has expired",
}

// writeServiceError maps a use-case error to a response. Anything without a
// mapping is logged with its cause and rendered as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if de, ok := domain.IsDomainError(err); ok {
		switch de {
		case domain.ErrPasswordWrong:
			writeInvalidCredentials(w)
		case domain.ErrTooManyPasswordResetsRequested:
			httpx.WriteError(w, http.StatusTooManyRequests, string(de), domainDescriptions[de])
		default:
			httpx.WriteError(w, http.StatusBadRequest, string(de), domainDescriptions[de])
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailAlreadyInUse):
		httpx.WriteError(w, http.StatusConflict, profilesdk.ErrorCodeEmailAlreadyInUse, "Email address is already registered")
	case errors.Is(err, service.ErrUsernameAlreadyTaken):
		httpx.WriteError(w, http.StatusConflict, profilesdk.ErrorCodeUsernameAlreadyTaken, "Username is already taken")
	case errors.Is(err, service.ErrUserNotFound):
		// Unknown accounts look the same as wrong passwords.
		writeInvalidCredentials(w)
	case errors.Is(err, service.ErrProfileNotFound):
		httpx.WriteError(w, http.StatusNotFound, profilesdk.ErrorCodeProfileNotFound, "Profile not found")
	case errors.Is(err, store.ErrConnectionExhausted):
		slogx.FromContext(r.Context()).Warn("database pool exhausted", "action", action, "err", err)
		w.Header().Set("Retry-After", "1")
		httpx.WriteError(w, http.StatusServiceUnavailable, profilesdk.ErrorCodeUnavailable, "Service is busy, retry shortly")
	default:
		slogx.FromContext(r.Context()).Error("failed to "+action, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, profilesdk.ErrorCodeServerError, "Failed to "+action)
	}
}

func writeInvalidCredentials(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials, "Email or password is incorrect")
}
