// Package serrors provides semantic error kinds so callers can tell fatal
// run conditions apart from ordinary wrapped errors with errors.Is.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a sentinel for a semantic error category.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a new semantic error kind.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrInvalidInput indicates the operator supplied nothing usable.
	ErrInvalidInput = NewKind("INVALID_INPUT")
	// ErrInsufficientStorage indicates the backup set does not fit on the storage target.
	ErrInsufficientStorage = NewKind("INSUFFICIENT_STORAGE")
	// ErrNotFound indicates an expected file or value does not exist.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrUnauthorized indicates the provider rejected the supplied credentials.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrUnavailable indicates an external tool or service could not be used.
	ErrUnavailable = NewKind("UNAVAILABLE")
)

// Error carries a kind, an optional cause and an optional message.
//
// errors.Is matches either the kind or anything in the cause chain.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs an error of kind k wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the kind or matches the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// KindOf returns the kind carried by err, or nil.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.kind
	}

	return nil
}
