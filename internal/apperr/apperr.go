// Package apperr defines the error kinds shared by every layer of the
// service. Repositories and services return *Error values (or wrap driver
// errors with Store); the HTTP error handler is the only place a Kind is
// turned into a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the boundary layer.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	Validation
	BadRequest
	Misconfiguration
	StoreUnavailable
	TooManyRequests
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Validation:
		return "validation"
	case BadRequest:
		return "bad_request"
	case Misconfiguration:
		return "misconfiguration"
	case StoreUnavailable:
		return "store_unavailable"
	case TooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a typed application error. Message is safe to show to clients.
// Fields carries per-field messages for Validation errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap attaches a kind and client-facing message to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Invalid builds a Validation error from field messages.
func Invalid(fields map[string][]string) *Error {
	return &Error{Kind: Validation, Message: "Validation failed", Fields: fields}
}

// Store wraps a raw driver error as StoreUnavailable. Errors that already
// carry a kind are returned unchanged.
func Store(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Wrap(StoreUnavailable, "Storage temporarily unavailable", err)
}

// KindOf reports the kind of err, or Internal when err is untyped.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
