package profiles_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/stretchr/testify/require"
)

// TestSignUpAndSignIn verifies a new account can sign in and lands on the
// same profile.
func TestSignUpAndSignIn(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	created := signUp(t, client, "ann@example.com", "ann")

	session, err := client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "ann@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assertSession(t, session)
	require.Equal(t, created.ProfileID, session.ProfileID)

	// Emails are normalised before lookup.
	session, err = client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "  ANN@Example.com ",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, created.ProfileID, session.ProfileID)
}

func TestSignUpConflicts(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	signUp(t, client, "ann@example.com", "ann")

	_, err := client.SignUp(ctx, profilesdk.SignUpRequest{
		Email:    "ann@example.com",
		Password: testPassword,
		Username: "other",
	})
	assertAPIError(t, err, http.StatusConflict, profilesdk.ErrorCodeEmailAlreadyInUse)

	_, err = client.SignUp(ctx, profilesdk.SignUpRequest{
		Email:    "bob@example.com",
		Password: testPassword,
		Username: "ann",
	})
	assertAPIError(t, err, http.StatusConflict, profilesdk.ErrorCodeUsernameAlreadyTaken)
}

func TestSignUpRejectsInvalidInput(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)

	_, err := client.SignUp(t.Context(), profilesdk.SignUpRequest{
		Email:    "ann@example.com",
		Password: "short",
		Username: "ann",
	})
	assertAPIError(t, err, http.StatusBadRequest, "password-too-short")

	_, err = client.SignUp(t.Context(), profilesdk.SignUpRequest{
		Email:    "not-an-email",
		Password: testPassword,
		Username: "ann",
	})
	assertAPIError(t, err, http.StatusBadRequest, "invalid-email")
}

// TestSignInHidesUnknownAccounts verifies a wrong password and an unknown
// email produce the same error.
func TestSignInHidesUnknownAccounts(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	signUp(t, client, "ann@example.com", "ann")

	_, err := client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "ann@example.com",
		Password: "wrong-password",
	})
	assertAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)

	_, err = client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "nobody@example.com",
		Password: testPassword,
	})
	assertAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	signUp(t, client, "ann@example.com", "ann")

	err := client.ChangePassword(ctx, profilesdk.ChangePasswordRequest{
		Email:       "ann@example.com",
		OldPassword: testPassword,
		NewPassword: "a-brand-new-password",
	})
	require.NoError(t, err)

	_, err = client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "ann@example.com",
		Password: testPassword,
	})
	assertAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)

	_, err = client.SignIn(ctx, profilesdk.SignInRequest{
		Email:    "ann@example.com",
		Password: "a-brand-new-password",
	})
	require.NoError(t, err)
}

// TestPasswordResetRequestAccepted verifies reset requests are accepted for
// known and unknown emails alike, and that made-up tokens are rejected.
func TestPasswordResetRequestAccepted(t *testing.T) {
	baseURL, cleanup := setupProfilesContainer(t)
	defer cleanup()

	client := profilesdk.NewClient(baseURL)
	ctx := t.Context()

	signUp(t, client, "ann@example.com", "ann")

	err := client.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "ann@example.com"})
	require.NoError(t, err)

	err = client.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "nobody@example.com"})
	require.NoError(t, err)

	err = client.ResetPassword(ctx, profilesdk.ResetPasswordRequest{
		Token:    "not-a-real-token",
		Password: "a-brand-new-password",
	})
	assertAPIError(t, err, http.StatusBadRequest, "invalid-password-reset-token")
}
