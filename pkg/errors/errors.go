package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the structured error carried across layer boundaries. Code and
// Message are safe to show to callers; Internal holds the underlying cause
// for logs only.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Well-known errors shared across the application.
var (
	ErrNotFound       = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrConflict       = New("CONFLICT", "Resource already exists", http.StatusConflict)
	ErrBadRequest     = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrInternalServer = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// New builds an application error from its public metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// NewBadRequest builds a validation error with a caller-facing message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest.Code,
		Message:    message,
		StatusCode: ErrBadRequest.StatusCode,
	}
}

// Wrap attaches a caller-facing message to an arbitrary error, keeping the
// original cause available for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError normalises any error to an AppError. Unknown errors map to
// ErrInternalServer with the cause attached.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// WithInternal returns a copy carrying err as the cause. The receiver is not
// mutated, so the shared sentinels stay clean.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}
