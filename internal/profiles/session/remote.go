package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/profiles/pkg/slogx"
)

type createSessionRequest struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
}

type createSessionResponse struct {
	SessionToken string `json:"session_token"`
}

type verifySessionRequest struct {
	SessionToken string `json:"session_token"`
}

type verifySessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
}

// RemoteIssuer delegates sessions to an external session service over JSON
// HTTP.
type RemoteIssuer struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewRemoteIssuer(baseURL string) *RemoteIssuer {
	return &RemoteIssuer{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateSession calls POST /v1/sessions and expects 201.
func (c *RemoteIssuer) CreateSession(ctx context.Context, userID, profileID string) (string, error) {
	var out createSessionResponse
	err := c.post(ctx, "/v1/sessions", createSessionRequest{
		UserID:    userID,
		ProfileID: profileID,
	}, http.StatusCreated, &out)
	if err != nil {
		return "", err
	}
	if out.SessionToken == "" {
		return "", fmt.Errorf("%w: empty session token", ErrUnavailable)
	}
	return out.SessionToken, nil
}

// VerifySession calls POST /v1/sessions/verify. A 401 from the service means
// the token is not valid.
func (c *RemoteIssuer) VerifySession(ctx context.Context, token string) (Claims, error) {
	var out verifySessionResponse
	if err := c.post(ctx, "/v1/sessions/verify", verifySessionRequest{SessionToken: token}, http.StatusOK, &out); err != nil {
		return Claims{}, err
	}
	return Claims{
		SessionID: out.SessionID,
		UserID:    out.UserID,
		ProfileID: out.ProfileID,
	}, nil
}

func (c *RemoteIssuer) post(ctx context.Context, path string, in any, expectedStatus int, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("session: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("session: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if reqID, ok := slogx.RequestIDFromContext(ctx); ok {
		req.Header.Set(slogx.RequestIDHeader, reqID)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == expectedStatus:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidSession
	default:
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	return nil
}
