package searchcore

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a search failure.
type ErrorKind string

// Error kinds. Retryability is fixed per kind: timeouts and I/O failures
// are retryable, invalid input and unexpected failures are not.
const (
	KindInvalidQuery ErrorKind = "INVALID_QUERY"
	KindTimeout      ErrorKind = "TIMEOUT"
	KindNetworkError ErrorKind = "NETWORK_ERROR"
	KindCacheError   ErrorKind = "CACHE_ERROR"
	KindUnknown      ErrorKind = "UNKNOWN"
)

// ErrAnalyticsDisabled is returned when analytics are turned off by options.
var ErrAnalyticsDisabled = errors.New("analytics disabled")

// ErrSavedSearchNotFound signals a missing saved search.
var ErrSavedSearchNotFound = errors.New("saved search not found")

// Error is the uniform failure envelope of the engine. Callers render a
// retry action when Retryable is true.
type Error struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
	// Violations lists the individual validation failures for
	// KindInvalidQuery; empty for other kinds.
	Violations []string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// AsError extracts the engine's typed error from err, if any.
func AsError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}

// KindOf returns the error kind, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	if se, ok := AsError(err); ok {
		return se.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the failure is worth retrying.
func IsRetryable(err error) bool {
	if se, ok := AsError(err); ok {
		return se.Retryable
	}
	return false
}

func newInvalidQuery(violations []string) *Error {
	return &Error{
		Kind:       KindInvalidQuery,
		Message:    "invalid query: " + strings.Join(violations, "; "),
		Violations: violations,
	}
}

func newTimeout(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "search timed out", Retryable: true, cause: cause}
}

func newNetworkError(cause error) *Error {
	return &Error{Kind: KindNetworkError, Message: "store query failed", Retryable: true, cause: cause}
}

func newCacheError(cause error) *Error {
	return &Error{Kind: KindCacheError, Message: "cache operation failed", Retryable: true, cause: cause}
}

func newUnknown(cause error) *Error {
	return &Error{Kind: KindUnknown, Message: "unexpected failure", cause: cause}
}
