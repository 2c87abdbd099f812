// Package apperr defines the error taxonomy shared by the lifecycle managers,
// the ledger client and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. A Kind is itself an error so callers can test
// with errors.Is(err, apperr.NotFound).
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	NotFound             Kind = "not_found"
	AlreadyExists        Kind = "already_exists"
	Conflict             Kind = "conflict"
	InvalidState         Kind = "invalid_state"
	NotActivated         Kind = "not_activated"
	Forbidden            Kind = "forbidden"
	ValidationFailed     Kind = "validation_failed"
	InsufficientFunds    Kind = "insufficient_funds"
	RemoteServiceFailure Kind = "remote_service_failure"
	Internal             Kind = "internal"
)

// RemoteDetail carries the code and message decoded from a ledger status.
// It is built once per failed call and never mutated.
type RemoteDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is the structured failure returned by every manager operation.
type Error struct {
	Kind    Kind
	Code    Code
	Op      string
	Message string
	Remote  *RemoteDetail
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Message)
	if e.Remote != nil {
		msg += fmt.Sprintf(" (remote %s: %s)", e.Remote.Code, e.Remote.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, so a wrapped *Error satisfies errors.Is(err, kind).
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// New creates an error of the given kind and code.
func New(kind Kind, code Code, op, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches kind and code to an underlying cause. A nil cause yields nil.
func Wrap(kind Kind, code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Op:      op,
		Message: err.Error(),
		Err:     err,
	}
}

// Remote builds a RemoteServiceFailure carrying the decoded ledger status.
func Remote(op string, detail RemoteDetail, err error) *Error {
	d := detail
	return &Error{
		Kind:    RemoteServiceFailure,
		Code:    CodeLedger,
		Op:      op,
		Message: "ledger call failed",
		Remote:  &d,
		Err:     err,
	}
}

// KindOf reports the Kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// CodeOf reports the Code of err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// RemoteOf returns the decoded ledger status attached to err, if any.
func RemoteOf(err error) (RemoteDetail, bool) {
	var e *Error
	if errors.As(err, &e) && e.Remote != nil {
		return *e.Remote, true
	}
	return RemoteDetail{}, false
}
