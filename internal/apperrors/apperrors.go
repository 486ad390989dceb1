// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ValidationError  ErrorType = "VALIDATION_ERROR"
	PersistenceError ErrorType = "PERSISTENCE_ERROR"
	RateLimitError   ErrorType = "RATE_LIMITED"
)

// Client-facing messages. Raw error detail is never sent back.
const (
	MsgMissingFields = "Missing required fields"
	MsgSaveFailed    = "Failed to save entry"
)

// AppError carries the HTTP status a handler should answer with.
type AppError struct {
	Type       ErrorType
	Message    string
	HTTPStatus int
	Raw        error
}

func (e *AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Raw)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Raw }

// Validation reports a client-caused failure (400).
func Validation(message string, raw error) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Raw:        raw,
	}
}

// Persistence reports a store write failure (500).
func Persistence(raw error) *AppError {
	return &AppError{
		Type:       PersistenceError,
		Message:    MsgSaveFailed,
		HTTPStatus: http.StatusInternalServerError,
		Raw:        raw,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Status maps any error to an HTTP status; unknown errors are 500.
func Status(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// PublicMessage is what the client sees for err.
func PublicMessage(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return MsgSaveFailed
}
