package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// ProcessingErrorMessage prefixes errors surfaced from a failed chat turn.
	ProcessingErrorMessage = "Error processing request"
	// GraphUnavailableMessage is returned while the chat graph is not compiled.
	GraphUnavailableMessage = "Graph not initialized. Server may still be starting up."
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Unavailable reports that a dependency the request needs is not ready.
func Unavailable(message string) *AppError {
	return New(nil, http.StatusServiceUnavailable, message)
}

// Invalid marks a request the caller must fix before retrying.
func Invalid(err error) *AppError {
	return New(err, http.StatusUnprocessableEntity, "invalid request")
}

// Internal wraps an unexpected failure of a chat turn. Its Error() string is the
// detail returned to clients.
func Internal(err error) *AppError {
	return New(err, http.StatusInternalServerError, ProcessingErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}
