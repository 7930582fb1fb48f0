package http

import (
	"net/http"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
)

type ProfilesHandler struct {
	ProfileService *service.ProfileService
}

func toProfileResponse(p domain.Profile) profilesdk.ProfileResponse {
	return profilesdk.ProfileResponse{
		ID:             p.ID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		Banner:         p.Banner,
		ProfilePicture: p.ProfilePicture,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// HandleGet godoc
//
//	@Summary		Get Profile
//	@Tags			Profiles
//	@Produce		json
//	@Param			id	path		string						true	"Profile ID"
//	@Success		200	{object}	profilesdk.ProfileResponse	"profile"
//	@Failure		404	{object}	httpx.ErrorResponse			"profile not found"
//	@Router			/v1/profiles/{id} [get].
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.ProfileService.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get profile")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

// HandleUpdateMe godoc
//
//	@Summary		Update Own Profile
//	@Description	Replace display name and bio of the caller's profile. Omitted fields are cleared.
//	@Tags			Profiles
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		profilesdk.UpdateProfileRequest	true	"display_name, bio"
//	@Success		200		{object}	profilesdk.ProfileResponse		"updated profile"
//	@Failure		400		{object}	httpx.ErrorResponse				"validation error"
//	@Failure		401		{object}	httpx.ErrorResponse				"missing or invalid session"
//	@Router			/v1/profiles/me [put].
func (h *ProfilesHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidToken, "missing session")
		return
	}

	var req profilesdk.UpdateProfileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	p, err := h.ProfileService.UpdateProfile(r.Context(), principal.ProfileID, req.DisplayName, req.Bio)
	if err != nil {
		writeServiceError(w, r, err, "update profile")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

// HandleCount godoc
//
//	@Summary		Count Profiles
//	@Tags			Profiles
//	@Produce		json
//	@Success		200	{object}	profilesdk.ProfileCountResponse	"count"
//	@Router			/v1/profiles/count [get].
func (h *ProfilesHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.ProfileService.CountProfiles(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "count profiles")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profilesdk.ProfileCountResponse{Count: n})
}
