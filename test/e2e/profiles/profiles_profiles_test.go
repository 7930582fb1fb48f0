package profiles_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/stretchr/testify/require"
)

func TestProfileReadAndUpdate(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	session := signUp(t, client, "ann@example.com", "ann")

	profile, err := client.GetProfile(ctx, session.ProfileID)
	require.NoError(t, err)
	require.Equal(t, session.ProfileID, profile.ID)
	require.Equal(t, "ann", profile.Username)
	require.Nil(t, profile.DisplayName)

	name, bio := "Ann", "hello there"
	updated, err := client.UpdateMyProfile(ctx, session.SessionToken, profilesdk.UpdateProfileRequest{
		DisplayName: &name,
		Bio:         &bio,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DisplayName)
	require.Equal(t, "Ann", *updated.DisplayName)
	require.Equal(t, "hello there", *updated.Bio)

	profile, err = client.GetProfile(ctx, session.ProfileID)
	require.NoError(t, err)
	require.Equal(t, "Ann", *profile.DisplayName)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	name := "Ann"

	_, err := client.UpdateMyProfile(t.Context(), "not-a-session", profilesdk.UpdateProfileRequest{DisplayName: &name})
	assertAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidToken)
}

func TestGetUnknownProfile(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)

	_, err := client.GetProfile(t.Context(), "01JZZZZZZZZZZZZZZZZZZZZZZZ")
	assertAPIError(t, err, http.StatusNotFound, profilesdk.ErrorCodeProfileNotFound)
}

func TestCountProfiles(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	n, err := client.CountProfiles(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	signUp(t, client, "ann@example.com", "ann")
	signUp(t, client, "bob@example.com", "bob")

	n, err = client.CountProfiles(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}
