package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

type UsersHandler struct {
	UserProfileService *service.UserProfileService
}

// HandleSignUp godoc
//
//	@Summary		Sign Up
//	@Description	Register a user with a profile and open a session for it
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		profilesdk.SignUpRequest	true	"email, password, username"
//	@Success		201		{object}	profilesdk.SessionResponse	"profile_id, session_token"
//	@Failure		400		{object}	httpx.ErrorResponse			"validation or domain error"
//	@Failure		409		{object}	httpx.ErrorResponse			"email or username taken"
//	@Failure		500		{object}	httpx.ErrorResponse			"error, error_description"
//	@Router			/v1/users/sign-up [post].
func (h *UsersHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.SignUpRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.UserProfileService.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeServiceError(w, r, err, "sign up")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, profilesdk.SessionResponse{
		ProfileID:    res.ProfileID,
		SessionToken: res.SessionToken,
	})
}

// HandleSignIn godoc
//
//	@Summary		Sign In
//	@Description	Check credentials and open a session
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		profilesdk.SignInRequest	true	"email, password"
//	@Success		200		{object}	profilesdk.SessionResponse	"profile_id, session_token"
//	@Failure		400		{object}	httpx.ErrorResponse			"validation or domain error"
//	@Failure		401		{object}	httpx.ErrorResponse			"invalid credentials"
//	@Router			/v1/users/sign-in [post].
func (h *UsersHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.SignInRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.UserProfileService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "sign in")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profilesdk.SessionResponse{
		ProfileID:    res.ProfileID,
		SessionToken: res.SessionToken,
	})
}

// HandleRequestPasswordReset godoc
//
//	@Summary		Request Password Reset
//	@Description	Mail a reset link to the account. Answers 202 for unknown emails as well.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	profilesdk.RequestPasswordResetRequest	true	"email"
//	@Success		202		"accepted"
//	@Failure		400		{object}	httpx.ErrorResponse	"validation or domain error"
//	@Failure		429		{object}	httpx.ErrorResponse	"too many resets requested"
//	@Router			/v1/users/reset-password/request [post].
func (h *UsersHandler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.RequestPasswordResetRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	err := h.UserProfileService.RequestPasswordReset(r.Context(), req.Email, httpx.IPKeyExtractor(r))
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		writeServiceError(w, r, err, "request password reset")
		return
	}
	if err != nil {
		slogx.FromContext(r.Context()).Info("password reset requested for unknown email")
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusAccepted)
}

// HandleResetPassword godoc
//
//	@Summary		Reset Password
//	@Description	Redeem a reset token and set a new password
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	profilesdk.ResetPasswordRequest	true	"token, password"
//	@Success		204		"password changed"
//	@Failure		400		{object}	httpx.ErrorResponse	"invalid or expired token, bad password"
//	@Router			/v1/users/reset-password [post].
func (h *UsersHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.UserProfileService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, err, "reset password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleChangePassword godoc
//
//	@Summary		Change Password
//	@Description	Replace the password after checking the current one
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	profilesdk.ChangePasswordRequest	true	"email, old_password, new_password"
//	@Success		204		"password changed"
//	@Failure		400		{object}	httpx.ErrorResponse	"validation or domain error"
//	@Failure		401		{object}	httpx.ErrorResponse	"invalid credentials"
//	@Router			/v1/users/change-password [post].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req profilesdk.ChangePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	err := h.UserProfileService.ChangePassword(r.Context(), req.Email, req.OldPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err, "change password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
