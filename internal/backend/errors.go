package backend

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by every client method when no base URL is
// configured. Callers decide whether that is fatal for their operation.
var ErrNotConfigured = errors.New("backend API base URL is not configured")

// ErrNotFound is returned by lookups that hit a 404.
var ErrNotFound = errors.New("resource not found")

// ErrTransport marks network-level failures, as opposed to responses the
// backend actually produced. It is the only error class eligible for the
// fallback-invoice substitution in invoice generation.
var ErrTransport = errors.New("backend API unreachable")

// StatusError is a non-2xx response. Message is extracted best-effort from
// the JSON error body ("message" or "error" field), else the status text.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// ParseError is a 2xx response whose body was not valid JSON. Raw carries
// the response text for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("backend response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
