// Package apperr defines the structured error kinds the lifecycle service
// surfaces to callers. Every failure crossing the service boundary is an
// *Error carrying a kind plus a human message; handlers map kinds to HTTP
// status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalid              Kind = "invalid"
	KindInsufficientStock    Kind = "insufficient_stock"
	KindInvalidOwner         Kind = "invalid_owner"
	KindInvalidTransition    Kind = "invalid_transition"
	KindAlreadyProcessed     Kind = "already_processed"
	KindAlreadyOpen          Kind = "already_open"
	KindDuplicateTransaction Kind = "duplicate_transaction"
	KindUnauthorized         Kind = "unauthorized"
	KindInternal             Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by kind alone, so callers can
// compare against a bare New(kind, "") sentinel if they want to.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the human message from err, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
