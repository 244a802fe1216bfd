// Package ledger holds the settlement primitives shared by every workflow: the
// status state machine, the balance ledger, the transaction recorder and the
// error taxonomy they report through.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a ledger error.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindInvalidState Kind = "invalid_state"
	KindConflict     Kind = "conflict"
	KindPersistence  Kind = "persistence"
	KindForbidden    Kind = "forbidden"
)

// Sentinels for errors.Is. An invalid-state error matches both ErrInvalidState and
// ErrValidation.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrPersistence  = &Error{Kind: KindPersistence}
	ErrForbidden    = &Error{Kind: KindForbidden}
)

// Error is a structured domain error.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

// Error returns the formatted error string.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindInvalidState && t.Kind == KindValidation
}

// NotFound reports a referenced entity that does not exist.
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Field: entity, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// Validation reports a malformed or disallowed input.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// InvalidState reports an operation attempted on an entity in the wrong status.
func InvalidState(message string) error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Conflict reports a lost compare-and-swap.
func Conflict(message string, err error) error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Invalid wraps a sentinel cause as a validation error on field.
func Invalid(field string, cause error) error {
	return &Error{Kind: KindValidation, Field: field, Err: cause}
}

// Persistence wraps a storage failure that left no durable effect.
func Persistence(message string, err error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// Forbidden reports an actor acting on something they do not own.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of the first ledger error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
