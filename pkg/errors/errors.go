package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
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

// Predefined errors for common scenarios.
var (
	ErrNotFound         = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden        = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized     = New("NOT_AUTHENTICATED", http.StatusUnauthorized, "not authenticated")
	ErrValidation       = New("INVALID_INPUT", http.StatusBadRequest, "invalid input")
	ErrInvalidTemplate  = New("INVALID_TEMPLATE", http.StatusUnprocessableEntity, "invalid day template")
	ErrMissingSubjects  = New("MISSING_SUBJECTS", http.StatusUnprocessableEntity, "required subjects are missing")
	ErrNoClasses        = New("NO_CLASSES", http.StatusUnprocessableEntity, "no active senior classes")
	ErrTeacherConflict  = New("TEACHER_CONFLICT", http.StatusConflict, "teacher already scheduled for this time")
	ErrClassConflict    = New("CLASS_CONFLICT", http.StatusConflict, "class already scheduled for this time")
	ErrInternal         = New("UNKNOWN_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss        = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrUnsupportedMedia = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
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

// WithDetails returns a copy of the error carrying structured details for the client.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}

// Sanitize hides internal failure messages from public responses.
func Sanitize(err *Error) *Error {
	if err == nil || err.Status < http.StatusInternalServerError {
		return err
	}
	return &Error{Code: ErrInternal.Code, Status: err.Status, Message: ErrInternal.Message}
}

