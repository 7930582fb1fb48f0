package httpx_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/profiles/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// hit sends one request from addr, optionally as userID, and returns the
// recorder.
func hit(h http.Handler, addr, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/users/sign-in", nil)
	req.RemoteAddr = addr
	if userID != "" {
		req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserID: userID}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", want: "192.168.1.1"},
		{
			name:    "first forwarded hop",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"},
			want:    "203.0.113.1",
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": " 203.0.113.2 "},
			want:    "203.0.113.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "no-port"
	require.Equal(t, "no-port", httpx.IPKeyExtractor(req))
}

func TestCompositeKeyExtractor(t *testing.T) {
	extractor := httpx.CompositeKeyExtractor(":", httpx.PrincipalKeyExtractor, httpx.IPKeyExtractor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1", extractor(req))

	req = req.WithContext(httpx.WithPrincipal(context.Background(), httpx.Principal{UserID: "user-1"}))
	require.Equal(t, "user-1:192.168.1.1", extractor(req))
}

func TestRateLimitByIP(t *testing.T) {
	h := httpx.RateLimitByIP(perMinute(3))(okHandler)

	for i := range 3 {
		require.Equal(t, http.StatusOK, hit(h, "192.168.1.1:1000", "").Code, "request %d", i+1)
	}

	// A new source port is the same client.
	rec := hit(h, "192.168.1.1:2000", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, hit(h, "192.168.1.2:1000", "").Code)
}

func TestRateLimitByPrincipal(t *testing.T) {
	h := httpx.RateLimitByPrincipal(perMinute(2))(okHandler)

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "192.168.1.1:1000", "alice").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(h, "192.168.1.1:1000", "alice").Code)

	// Another user behind the same address has its own bucket.
	require.Equal(t, http.StatusOK, hit(h, "192.168.1.1:1000", "bob").Code)
}

func TestRateLimitSeparateInstances(t *testing.T) {
	limits := perMinute(1)
	signIn := httpx.RateLimitByIP(limits)(okHandler)
	signUp := httpx.RateLimitByIP(limits)(okHandler)

	require.Equal(t, http.StatusOK, hit(signIn, "10.0.0.1:1", "").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(signIn, "10.0.0.1:1", "").Code)
	require.Equal(t, http.StatusOK, hit(signUp, "10.0.0.1:1", "").Code)
}

func TestRateLimitEmptyKeyPassesThrough(t *testing.T) {
	h := httpx.RateLimitMiddleware(perMinute(1), func(*http.Request) string { return "" })(okHandler)

	for range 3 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", "").Code)
	}
}

func TestRateLimitResponse(t *testing.T) {
	h := httpx.RateLimitByIP(perMinute(1))(okHandler)

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", "").Code)
	rec := hit(h, "10.0.0.1:1", "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t,
		`{"error":"rate_limit_exceeded","error_description":"Too many requests. Please try again later."}`,
		rec.Body.String())
}

func TestDefaultRateLimits(t *testing.T) {
	limits := httpx.DefaultRateLimits()

	require.Equal(t, perMinute(5), limits.Credentials)
	require.Equal(t, perMinute(20), limits.Authenticated)
	require.Equal(t, perMinute(1000), limits.Public)
}

func TestRateLimitFromEnv(t *testing.T) {
	def := perMinute(10)

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{name: "unset keeps defaults", want: def},
		{
			name: "all overridden",
			env: map[string]string{
				"RATELIMIT_CREDENTIALS_REQUESTS":   "200",
				"RATELIMIT_CREDENTIALS_WINDOW_SEC": "30",
				"RATELIMIT_CREDENTIALS_BURST":      "250",
			},
			want: httpx.RateLimitConfig{RequestsPerWindow: 200, Window: 30 * time.Second, Burst: 250},
		},
		{
			name: "burst only",
			env:  map[string]string{"RATELIMIT_CREDENTIALS_BURST": "100"},
			want: httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 100},
		},
		{
			name: "invalid values ignored",
			env: map[string]string{
				"RATELIMIT_CREDENTIALS_REQUESTS":   "lots",
				"RATELIMIT_CREDENTIALS_WINDOW_SEC": "-10",
				"RATELIMIT_CREDENTIALS_BURST":      "0",
			},
			want: def,
		},
		{
			name: "other profile ignored",
			env:  map[string]string{"RATELIMIT_PUBLIC_REQUESTS": "1"},
			want: def,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string { return tt.env[key] }
			require.Equal(t, tt.want, httpx.RateLimitFromEnv(getenv, "CREDENTIALS", def))
		})
	}
}

func BenchmarkRateLimitManyClients(b *testing.B) {
	h := httpx.RateLimitByIP(perMinute(1_000_000))(okHandler)

	for i := 0; b.Loop(); i++ {
		hit(h, fmt.Sprintf("10.%d.%d.1:1", i%255, (i/255)%255), "")
	}
}
