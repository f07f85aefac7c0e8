// Package derrors provides coded domain errors shared across the security
// core. Codes map failure classes onto a uniform policy: invalid input is
// rejected immediately, denials carry a user-facing reason, and external or
// persistence failures degrade to a deny-safe outcome instead of escaping
// into the command layer.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed identifiers and out-of-range values.
	CodeInvalidInput Code = "invalid_input"
	// CodeDenied marks policy denials: rate limited, missing permission,
	// hierarchy violation.
	CodeDenied Code = "denied"
	// CodeNotFound marks missing records.
	CodeNotFound Code = "not_found"
	// CodeExternal marks host platform API failures; callers log and continue.
	CodeExternal Code = "external_failure"
	// CodeInternal marks persistence and other infrastructure failures.
	CodeInternal Code = "internal"
	// CodeInvariantViolation marks broken domain invariants in constructors.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Code returns the error's classification code.
func (e *Error) Code() Code { return e.code }

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, err: err}
}

// CodeOf extracts the code from an error chain. Unclassified errors report
// CodeInternal, which keeps unknown failures on the deny-safe path.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}
