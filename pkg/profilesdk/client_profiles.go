package profilesdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) GetProfile(ctx context.Context, id string) (*ProfileResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(id), "", nil)
	if err != nil {
		return nil, err
	}

	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMyProfile updates the profile the session token was issued for.
func (c *Client) UpdateMyProfile(ctx context.Context, sessionToken string, req UpdateProfileRequest) (*ProfileResponse, error) {
	resp, err := c.do(ctx, http.MethodPut, "/v1/profiles/me", sessionToken, req)
	if err != nil {
		return nil, err
	}

	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CountProfiles(ctx context.Context) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/profiles/count", "", nil)
	if err != nil {
		return 0, err
	}

	var out ProfileCountResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Count, nil
}
