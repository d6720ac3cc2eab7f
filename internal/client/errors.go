package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes raised locally, before any HTTP status is known.
const (
	CodeNetworkError       = "network_error"
	CodeCircuitOpen        = "circuit_open"
	CodeUnexpectedResponse = "unexpected_response"
)

// APIError is the typed error for every failed backend interaction:
// non-2xx responses carry the backend's code/message/details envelope
// plus the HTTP status; transport failures carry a local code and status
// zero.
type APIError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
	Status  int             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error %s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// AsAPIError unwraps err to an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
