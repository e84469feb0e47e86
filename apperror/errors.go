// Package apperror carries the error taxonomy shared by the reservation core
// and the request layer that maps it to HTTP responses.
package apperror

import (
	"errors"
	"fmt"
)

// Kind groups errors by who has to act on them.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindRule         Kind = "rule"
	KindTransition   Kind = "transition"
	KindNotOccupied  Kind = "not_occupied"
	KindCoordination Kind = "coordination"
)

// Codes refine a Kind.
const (
	CodeUnknownField   = "unknown_field"
	CodeMissingField   = "missing_field"
	CodeMalformedValue = "malformed_value"

	CodePastDate       = "past_date"
	CodeClosedDay      = "closed_day"
	CodeOutsideHours   = "outside_hours"
	CodeStatusGuard    = "status_guard"
	CodeCapacity       = "capacity"
	CodeOccupied       = "occupied"
	CodeAlreadySeated  = "already_seated"
	CodeAlreadyDone    = "already_finished"
	CodeCancelled      = "reservation_cancelled"
	CodeOccupancyGuard = "occupancy_guard"

	CodeTerminalState     = "terminal_state"
	CodeInvalidStatus     = "invalid_status"
	CodeIllegalTransition = "illegal_transition"
	CodeStaleStatus       = "stale_status"

	CodeNotOccupied = "not_occupied"

	CodePartialAssignment = "partial_assignment"
	CodePartialClear      = "partial_clear"
	CodeDataIntegrity     = "data_integrity"
)

// Error is the single error type produced by the core.
type Error struct {
	Kind   Kind
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Reason: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...any) *Error {
	return newf(KindValidation, code, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, "not_found", format, args...)
}

func Rule(code, format string, args ...any) *Error {
	return newf(KindRule, code, format, args...)
}

func Transition(code, format string, args ...any) *Error {
	return newf(KindTransition, code, format, args...)
}

func NotOccupied(format string, args ...any) *Error {
	return newf(KindNotOccupied, CodeNotOccupied, format, args...)
}

// Coordination reports a multi-record write that left, or nearly left, the
// store inconsistent. cause is the failure that triggered it.
func Coordination(code string, cause error, format string, args ...any) *Error {
	e := newf(KindCoordination, code, format, args...)
	e.Err = cause
	return e
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

// CodeOf returns the Code of err, or "" for errors outside the taxonomy.
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
