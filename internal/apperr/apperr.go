// Package apperr defines the typed error kinds shared across searchctl's
// core components, and the mapping from a kind to an HTTP status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the category of a core error. Handlers at the HTTP
// boundary switch on Kind to choose a status code; everything else only
// ever wraps and propagates.
type Kind string

const (
	BadRequest       Kind = "bad_request"
	NotFound         Kind = "not_found"
	Conflict         Kind = "conflict"
	ValidationFailed Kind = "validation_failed"
	EngineError      Kind = "engine_error"
	Internal         Kind = "internal"
)

// Error is a typed error carrying a Kind alongside the usual message/cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates cause with a kind and contextual message, matching the
// "caught, annotated, re-raised" propagation policy.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to Internal when err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps an error Kind to the status code the admin/search surface
// should return for it.
func HTTPStatus(kind Kind) int {
	switch kind {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case ValidationFailed, EngineError, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
