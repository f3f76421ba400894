package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorKind is the machine readable class of a failed request.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindInternal     ErrorKind = "internal"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type returned across service boundaries.
// Err holds the underlying cause and is never shown to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status maps the error kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError rejects a request because of malformed input.
func ValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFoundError reports a referenced id that does not exist.
func NotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// UnauthorizedError reports a missing or invalid credential.
func UnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// ForbiddenError reports a caller without the required role.
func ForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// InternalError wraps a store or dependency failure.
func InternalError(op string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

type errorBody struct {
	Kind    ErrorKind    `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// WriteError renders err as a JSON error body. Anything that is not an
// AppError is treated as internal and its detail only goes to the log.
func WriteError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{Kind: KindInternal, Message: "Server error", Err: err}
	}
	if appErr.Kind == KindInternal && log != nil {
		log.WithError(appErr.Err).Error(appErr.Message)
	}
	WriteJSON(w, appErr.Status(), errorBody{
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
