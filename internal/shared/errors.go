package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionToken     = errors.New("no session token returned")
	ErrSuperseded       = errors.New("superseded by a newer request")

	// API and transport errors
	ErrTransport          = errors.New("network error")
	ErrAPIRequest         = errors.New("API request failed")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")

	// Storage errors
	ErrStorage = errors.New("storage failure")
)

// TransportError reports a request that never reached or returned from the server.
//
// The message names the resolved URL and the configuration source so that
// DNS, connection-refused and similar failures are actionable.
type TransportError struct {
	URL  string
	Base BaseURL
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Network error calling backend (%s). %s. Original error: %v", e.URL, e.Base.Hint(), e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// APIError reports a completed exchange with a non-success status.
type APIError struct {
	Message    string
	StatusCode int
	Payload    any // decoded JSON body, nil when the body was not JSON
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// ValidationError reports form input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// SessionError reports a successful login call that yielded no usable token.
type SessionError struct {
	Message string
	Payload any
}

func (e *SessionError) Error() string { return e.Message }

func (e *SessionError) Unwrap() error { return ErrSessionToken }

// StatusCode extracts the HTTP status from an [APIError] in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
