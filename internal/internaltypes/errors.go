package internaltypes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	ErrUnauthorized = errors.New("unauthorized")

	// ErrExtractionExhausted is returned once every structured-data extraction
	// attempt has failed. Callers recover by asking the user again.
	ErrExtractionExhausted = errors.New("structured data extraction exhausted")

	// ErrParse marks a response whose shape could not be understood.
	ErrParse = errors.New("unrecognized response shape")
)

// TransportError is a connection or DNS level failure talking to a service.
type TransportError struct {
	Service string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Service, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means the per-call deadline elapsed before a response arrived.
type TimeoutError struct {
	Service string
	Op      string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out: %v", e.Service, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx response.
type UpstreamError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Service, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

// AuthError is an UpstreamError caused by a rejected credential.
type AuthError struct {
	Upstream *UpstreamError
}

func (e *AuthError) Error() string {
	return "credential rejected: " + e.Upstream.Error()
}

func (e *AuthError) Unwrap() []error { return []error{e.Upstream, ErrUnauthorized} }

// NewStatusError builds the error for a non-2xx status, promoting 401/403 to AuthError.
func NewStatusError(service, op string, status int, body string) error {
	up := &UpstreamError{Service: service, Op: op, StatusCode: status, Body: body}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Upstream: up}
	}
	return up
}

// ClassifyTransport turns an error returned before any response was read
// into a TimeoutError or TransportError.
func ClassifyTransport(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &TimeoutError{Service: service, Op: op, Err: err}
	}
	return &TransportError{Service: service, Op: op, Err: err}
}

// PollTimeoutError is returned when a run does not reach a terminal status in time.
type PollTimeoutError struct {
	RunID  string
	Polls  int
	Waited time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("run %s still pending after %d polls (%s)", e.RunID, e.Polls, e.Waited.Round(time.Millisecond))
}

// RunFailedError reports a run that ended in a terminal non-success status.
type RunFailedError struct {
	RunID     string
	Status    string
	LastError string
}

func (e *RunFailedError) Error() string {
	if e.LastError != "" {
		return fmt.Sprintf("run %s ended with status %q: %s", e.RunID, e.Status, e.LastError)
	}
	return fmt.Sprintf("run %s ended with status %q", e.RunID, e.Status)
}

// IsFatal reports whether err must end the conversation. Everything else is
// recovered locally and the user gets another turn.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	var ue *UpstreamError
	var ae *AuthError
	return errors.As(err, &te) || errors.As(err, &ue) || errors.As(err, &ae)
}

// IsTimeout reports whether err is a per-call timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
