// Package apierror provides standardized error response structures for the API
// and the typed errors the service layer returns. All errors returned to clients
// go through this package to ensure consistency and to prevent leaking internal
// details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	MensajeError string `json:"mensajeError"`
}

func New(msg string) *APIError {
	return &APIError{MensajeError: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	MensajeError string            `json:"mensajeError"`
	Campos       map[string]string `json:"campos"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{MensajeError: "Error de validacion", Campos: fields}
}

// ── Service errors ───────────────────────────────────────────────────────────

// Kind classifies a service failure; each kind maps to one HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindTxFailure
)

// Error is returned by services for every failure a caller can act on.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindTxFailure {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func NewConflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NewTxFailure wraps a database failure that aborted a multi-step write.
// Typed errors pass through unchanged so the first business failure wins.
func NewTxFailure(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindTxFailure, Msg: msg, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusOf maps any error to an HTTP status and a client-safe message.
func StatusOf(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Status(), e.Error()
	}
	return http.StatusInternalServerError, "Error interno del servidor"
}
