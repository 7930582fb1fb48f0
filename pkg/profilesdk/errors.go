package profilesdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes returned by the service besides the domain codes
// ("invalid-email", "password-too-short", ...).
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeValidation           = "validation_error"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInvalidCredentials   = "invalid-credentials"
	ErrorCodeEmailAlreadyInUse    = "email-already-in-use"
	ErrorCodeUsernameAlreadyTaken = "username-already-taken"
	ErrorCodeProfileNotFound      = "profile-not-found"
	ErrorCodeUnavailable          = "temporarily_unavailable"
	ErrorCodeRateLimited          = "rate_limit_exceeded"
	ErrorCodeServerError          = "server_error"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode  int               `json:"-"`
	Code        string            `json:"error"`
	Description string            `json:"error_description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// parseErrorResponse turns an error body into an *APIError. Bodies that are
// not JSON still yield an error keyed on the status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err == nil && apiErr.Code != "" {
		return apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
