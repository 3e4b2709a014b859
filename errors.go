package morphogen

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("morphogen: invalid API key")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("morphogen: invalid request")

	// ErrInvalidModel indicates the requested model is unknown to the backend.
	ErrInvalidModel = errors.New("morphogen: invalid or unknown model")

	// ErrConnectTimeout indicates no response bytes arrived within the
	// handshake bound after dispatching a stream request.
	ErrConnectTimeout = errors.New("morphogen: connection timed out")

	// ErrInactivityTimeout indicates an open stream stalled past the
	// inactivity bound between chunks.
	ErrInactivityTimeout = errors.New("morphogen: stream inactivity timeout")
)

// Timeout phases for TimeoutError.
const (
	// TimeoutPhaseConnect covers request dispatch up to the first response byte.
	TimeoutPhaseConnect = "connect"

	// TimeoutPhaseInactivity covers the gap between successive chunks of an
	// open stream. The bound restarts on every chunk.
	TimeoutPhaseInactivity = "inactivity"
)

// TimeoutError represents a stream watchdog firing. Exactly one of the two
// phases applies to any given session: the handshake timer is disarmed the
// moment the inactivity timer is armed.
type TimeoutError struct {
	Phase string        // TimeoutPhaseConnect or TimeoutPhaseInactivity
	Limit time.Duration // The bound that was exceeded
	Err   error         // Wrapped sentinel (ErrConnectTimeout or ErrInactivityTimeout)
}

func (e *TimeoutError) Error() string {
	if e.Phase == TimeoutPhaseInactivity {
		return fmt.Sprintf("stream timed out after %s of inactivity", e.Limit)
	}
	return fmt.Sprintf("connection timed out after %s awaiting a response", e.Limit)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// RequestError represents a non-2xx response to the initial request,
// before any streaming began. Detail is the backend's message when one
// could be extracted from the response body.
type RequestError struct {
	StatusCode int    // HTTP status of the initial response
	Detail     string // Best-effort message extracted from the body
	Err        error  // Wrapped sentinel (ErrInvalidAPIKey for 401/403), may be nil
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed (status %d)", e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StreamError represents an explicit error payload the backend sent
// mid-stream. It terminates the event sequence; events already delivered
// are not retracted.
type StreamError struct {
	Detail string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %s", e.Detail)
}

// ModelError represents an error related to model lookup or availability.
type ModelError struct {
	Model  string // The model that was requested
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s': %s (%v)", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s': %s", e.Model, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error in request parameter validation.
type ValidationError struct {
	Field  string // The parameter field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("validation failed for '%s': %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsTimeout checks if an error is either stream timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrConnectTimeout) || errors.Is(err, ErrInactivityTimeout)
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) {
		return true
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		// HTTP 401/403 indicate auth issues
		return reqErr.StatusCode == 401 || reqErr.StatusCode == 403
	}

	return false
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors are not retryable and require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidModel) {
		return true
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
