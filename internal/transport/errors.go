package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthExpired is returned for every request after a 401 cleared the
// session. The caller is expected to shut down and re-authenticate.
var ErrAuthExpired = errors.New("authentication expired")

// APIError is a non-2xx response decoded from the backend's error body.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// IsValidation reports a 400 carrying per-field messages; the caller blocks
// submission and shows them inline.
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusBadRequest && len(ae.Fields) > 0
}

// IsConflict reports a business conflict (offer already taken, insufficient
// balance). A normal outcome for races, not a retryable failure.
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusConflict
}
