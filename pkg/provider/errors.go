package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest is returned before sending when a request fails validation.
	ErrInvalidRequest = errors.New("invalid algorithm request")
	// ErrInvalidResponse is returned when a 2xx body does not match its schema.
	ErrInvalidResponse = errors.New("invalid algorithm response schema")
	// ErrServiceUnavailable is returned while the circuit breaker is open.
	ErrServiceUnavailable = errors.New("algorithm service unavailable")
)

// APIError is a non-2xx answer from the algorithm service.
type APIError struct {
	Status  int
	Message string
	Detail  any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("algorithm service: %s (status %d)", e.Message, e.Status)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// transportError marks failures to reach the service at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("failed to reach algorithm service: %v", e.err)
}

func (e *transportError) Unwrap() error { return e.err }

// IsUnavailable reports whether err means the service could not answer:
// unreachable, breaker open, or a 5xx.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return true
	}
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

// countsAsFailure decides what the circuit breaker treats as a service fault.
// Client mistakes (4xx other than 429) do not trip it.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
