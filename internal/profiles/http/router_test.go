package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/profiles/internal/profiles/domain"
	profileshttp "github.com/aussiebroadwan/profiles/internal/profiles/http"
	"github.com/aussiebroadwan/profiles/internal/profiles/service"
	"github.com/aussiebroadwan/profiles/internal/profiles/session"
	"github.com/aussiebroadwan/profiles/internal/profiles/store/drivers/sqlite"
	"github.com/aussiebroadwan/profiles/pkg/cryptox"
	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/aussiebroadwan/profiles/pkg/profilesdk"
	"github.com/stretchr/testify/require"
)

type tokenRecorder struct {
	mu     sync.Mutex
	tokens []string
}

func (d *tokenRecorder) Dispatch(_ context.Context, e domain.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := domain.AsPasswordResetRequested(e); ok {
		d.tokens = append(d.tokens, v.Token)
	}
	return nil
}

func (d *tokenRecorder) last(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.tokens)
	return d.tokens[len(d.tokens)-1]
}

func generousLimits() httpx.RateLimits {
	l := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	return httpx.RateLimits{Credentials: l, Authenticated: l, Public: l}
}

func newTestServer(t *testing.T, limits httpx.RateLimits) (*profilesdk.Client, *tokenRecorder, *httptest.Server) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sessions, err := session.NewJWTIssuer([]byte(strings.Repeat("k", 32)), "profiles-test", time.Hour)
	require.NoError(t, err)

	hasher := cryptox.NewArgon2id("pepper", cryptox.Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 16, SaltLength: 8})
	recorder := &tokenRecorder{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := profileshttp.NewRouter(sessions, limits, "test", st, logger)
	router.UserProfileService = service.NewUserProfileService(st, recorder, sessions, hasher)
	router.ProfileService = service.NewProfileService(st)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return profilesdk.NewClient(srv.URL), recorder, srv
}

func requireAPIError(t *testing.T, err error, status int, code string) *profilesdk.APIError {
	t.Helper()
	var apiErr *profilesdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func signUp(t *testing.T, c *profilesdk.Client, email, username string) *profilesdk.SessionResponse {
	t.Helper()
	sess, err := c.SignUp(context.Background(), profilesdk.SignUpRequest{
		Email:    email,
		Password: "correct horse",
		Username: username,
	})
	require.NoError(t, err)
	return sess
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestServer(t, generousLimits())

	up := signUp(t, c, "ann@example.com", "ann")
	require.NotEmpty(t, up.ProfileID)
	require.NotEmpty(t, up.SessionToken)

	in, err := c.SignIn(ctx, profilesdk.SignInRequest{Email: "ANN@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, up.ProfileID, in.ProfileID)

	_, err = c.SignIn(ctx, profilesdk.SignInRequest{Email: "ann@example.com", Password: "wrong horse"})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)

	// Unknown accounts are indistinguishable from bad passwords.
	_, err = c.SignIn(ctx, profilesdk.SignInRequest{Email: "bob@example.com", Password: "correct horse"})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)
}

func TestSignUpErrors(t *testing.T) {
	ctx := context.Background()
	c, _, srv := newTestServer(t, generousLimits())
	signUp(t, c, "ann@example.com", "ann")

	tests := []struct {
		name   string
		req    profilesdk.SignUpRequest
		status int
		code   string
	}{
		{
			name:   "duplicate email",
			req:    profilesdk.SignUpRequest{Email: "ann@example.com", Password: "correct horse", Username: "ann2"},
			status: http.StatusConflict,
			code:   profilesdk.ErrorCodeEmailAlreadyInUse,
		},
		{
			name:   "duplicate username",
			req:    profilesdk.SignUpRequest{Email: "bob@example.com", Password: "correct horse", Username: "Ann"},
			status: http.StatusConflict,
			code:   profilesdk.ErrorCodeUsernameAlreadyTaken,
		},
		{
			name:   "short password",
			req:    profilesdk.SignUpRequest{Email: "bob@example.com", Password: "short", Username: "bob"},
			status: http.StatusBadRequest,
			code:   string(domain.ErrPasswordTooShort),
		},
		{
			name:   "invalid email",
			req:    profilesdk.SignUpRequest{Email: "bob", Password: "correct horse", Username: "bob"},
			status: http.StatusBadRequest,
			code:   string(domain.ErrInvalidEmail),
		},
		{
			name:   "invalid username",
			req:    profilesdk.SignUpRequest{Email: "bob@example.com", Password: "correct horse", Username: "bob--x"},
			status: http.StatusBadRequest,
			code:   string(domain.ErrInvalidUsername),
		},
		{
			name:   "username too long",
			req:    profilesdk.SignUpRequest{Email: "bob@example.com", Password: "correct horse", Username: strings.Repeat("b", 16)},
			status: http.StatusBadRequest,
			code:   string(domain.ErrInvalidUsername),
		},
		{
			name:   "email too long",
			req:    profilesdk.SignUpRequest{Email: strings.Repeat("b", 49) + "@example.com", Password: "correct horse", Username: "bob"},
			status: http.StatusBadRequest,
			code:   string(domain.ErrInvalidEmail),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SignUp(ctx, tt.req)
			requireAPIError(t, err, tt.status, tt.code)
		})
	}

	t.Run("missing field", func(t *testing.T) {
		_, err := c.SignUp(ctx, profilesdk.SignUpRequest{Email: "bob@example.com", Password: "correct horse"})
		apiErr := requireAPIError(t, err, http.StatusBadRequest, profilesdk.ErrorCodeValidation)
		require.Equal(t, "is required", apiErr.Details["username"])
	})

	t.Run("unknown field", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/users/sign-up", "application/json",
			strings.NewReader(`{"email":"bob@example.com","password":"correct horse","username":"bob","admin":true}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body httpx.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, profilesdk.ErrorCodeInvalidRequest, body.Error)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	c, tokens, _ := newTestServer(t, generousLimits())
	signUp(t, c, "ann@example.com", "ann")

	// Unknown emails are accepted without revealing anything.
	require.NoError(t, c.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "nobody@example.com"}))

	require.NoError(t, c.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "ann@example.com"}))
	token := tokens.last(t)

	err := c.ResetPassword(ctx, profilesdk.ResetPasswordRequest{Token: token, Password: "short"})
	requireAPIError(t, err, http.StatusBadRequest, string(domain.ErrPasswordTooShort))

	require.NoError(t, c.ResetPassword(ctx, profilesdk.ResetPasswordRequest{Token: token, Password: "new password"}))

	err = c.ResetPassword(ctx, profilesdk.ResetPasswordRequest{Token: token, Password: "other password"})
	requireAPIError(t, err, http.StatusBadRequest, string(domain.ErrInvalidPasswordResetToken))

	_, err = c.SignIn(ctx, profilesdk.SignInRequest{Email: "ann@example.com", Password: "new password"})
	require.NoError(t, err)

	for range domain.MaxPasswordResetsPerWindow {
		require.NoError(t, c.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "ann@example.com"}))
	}
	err = c.RequestPasswordReset(ctx, profilesdk.RequestPasswordResetRequest{Email: "ann@example.com"})
	requireAPIError(t, err, http.StatusTooManyRequests, string(domain.ErrTooManyPasswordResetsRequested))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestServer(t, generousLimits())
	signUp(t, c, "ann@example.com", "ann")

	err := c.ChangePassword(ctx, profilesdk.ChangePasswordRequest{
		Email: "ann@example.com", OldPassword: "wrong horse", NewPassword: "new password",
	})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)

	require.NoError(t, c.ChangePassword(ctx, profilesdk.ChangePasswordRequest{
		Email: "ann@example.com", OldPassword: "correct horse", NewPassword: "new password",
	}))

	_, err = c.SignIn(ctx, profilesdk.SignInRequest{Email: "ann@example.com", Password: "new password"})
	require.NoError(t, err)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestServer(t, generousLimits())
	ann := signUp(t, c, "ann@example.com", "ann")
	signUp(t, c, "bob@example.com", "bob")

	p, err := c.GetProfile(ctx, ann.ProfileID)
	require.NoError(t, err)
	require.Equal(t, "ann", p.Username)
	require.Nil(t, p.DisplayName)

	_, err = c.GetProfile(ctx, "missing")
	requireAPIError(t, err, http.StatusNotFound, profilesdk.ErrorCodeProfileNotFound)

	name := "Ann"
	_, err = c.UpdateMyProfile(ctx, "", profilesdk.UpdateProfileRequest{DisplayName: &name})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidToken)

	_, err = c.UpdateMyProfile(ctx, "not-a-token", profilesdk.UpdateProfileRequest{DisplayName: &name})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidToken)

	updated, err := c.UpdateMyProfile(ctx, ann.SessionToken, profilesdk.UpdateProfileRequest{DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, ann.ProfileID, updated.ID)
	require.Equal(t, "Ann", *updated.DisplayName)

	p, err = c.GetProfile(ctx, ann.ProfileID)
	require.NoError(t, err)
	require.Equal(t, "Ann", *p.DisplayName)

	long := strings.Repeat("x", 65)
	_, err = c.UpdateMyProfile(ctx, ann.SessionToken, profilesdk.UpdateProfileRequest{DisplayName: &long})
	requireAPIError(t, err, http.StatusBadRequest, profilesdk.ErrorCodeValidation)

	n, err := c.CountProfiles(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestHealth(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestServer(t, generousLimits())

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestCredentialEndpointsRateLimited(t *testing.T) {
	ctx := context.Background()
	limits := generousLimits()
	limits.Credentials = httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	c, _, _ := newTestServer(t, limits)

	_, err := c.SignIn(ctx, profilesdk.SignInRequest{Email: "ann@example.com", Password: "correct horse"})
	requireAPIError(t, err, http.StatusUnauthorized, profilesdk.ErrorCodeInvalidCredentials)

	_, err = c.SignIn(ctx, profilesdk.SignInRequest{Email: "ann@example.com", Password: "correct horse"})
	requireAPIError(t, err, http.StatusTooManyRequests, profilesdk.ErrorCodeRateLimited)

	// Public reads have their own budget.
	_, err = c.CountProfiles(ctx)
	require.NoError(t, err)
}

func TestRequestIDEchoed(t *testing.T) {
	_, _, srv := newTestServer(t, generousLimits())

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/livez", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}
