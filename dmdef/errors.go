package dmdef

import (
	"fmt"
	"net/http"
)

// NetworkError is returned when a request fails before an HTTP response is
// received: DNS, dial, TLS or transport timeout.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("dmtree: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is returned when the API rejects the credential (401/403), or
// when a request is attempted without one.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("dmtree: unauthorized: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("dmtree: unauthorized: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("dmtree: unauthorized: %d %s", e.StatusCode, e.Message)
}

// StatusError is returned for any other non-2xx API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dmtree: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("dmtree: unexpected status %d: %s", e.StatusCode, e.Body)
}

// SecretMissingError is returned when the credential store has no secret for
// a connection id.
type SecretMissingError struct {
	ID string
}

func (e *SecretMissingError) Error() string {
	return fmt.Sprintf("dmtree: no access key stored for connection %s", e.ID)
}

// IsAuthStatus reports whether an HTTP status code means the credential was
// rejected.
func IsAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
