package profilesdk

import (
	"context"
	"net/http"
)

// SignUp registers a user and returns a session for the new profile.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/users/sign-up", "", req)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/users/sign-in", "", req)
	if err != nil {
		return nil, err
	}

	var out SessionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset link to be mailed. It succeeds for
// unknown emails too.
func (c *Client) RequestPasswordReset(ctx context.Context, req RequestPasswordResetRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/users/reset-password/request", "", req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusAccepted)
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/users/reset-password", "", req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusNoContent)
}

func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/users/change-password", "", req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusNoContent)
}
