package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error is the API error shape. Code is stable for clients, Message is
// shown to users and Err stays server side.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapAs wraps err with the code and status of kind.
func WrapAs(err error, kind *Error, message string) *Error {
	if message == "" {
		message = kind.Message
	}
	return Wrap(err, kind.Code, kind.Status, message)
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrSelfAction         = New("SELF_ACTION", http.StatusBadRequest, "action not allowed on own account")
	ErrStorage            = New("STORAGE_ERROR", http.StatusBadGateway, "storage operation failed")

	// ErrCacheMiss signals an absent cache entry; it never reaches clients.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == target.Code
	}
	return false
}

// FromError normalises any error into an *Error. Context cancellation maps
// to a timeout so aborted requests are not reported as server faults.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(err, "TIMEOUT", http.StatusGatewayTimeout, "request timed out")
	}
	return WrapAs(err, ErrInternal, "")
}

// StatusOf returns the HTTP status err maps to.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return FromError(err).Status
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
