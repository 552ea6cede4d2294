// Package domainerrors carries coded errors across layer boundaries. Stores
// return sentinel errors; services translate them into coded errors; the
// HTTP layer maps codes to statuses. The code is the contract, the message
// is for operators.
package domainerrors

import "errors"

// Code classifies an error for transport mapping and branching.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidation         Code = "VALIDATION"
	CodeFailure            Code = "FAILURE"
	CodeConflict           Code = "CONFLICT"
	CodeForbidden          Code = "FORBIDDEN"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeInternal           Code = "INTERNAL"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	for errors.As(err, &coded) {
		if coded.Code == code {
			return true
		}
		err = coded.cause
	}
	return false
}

// Is reports whether err wraps target, mirroring errors.Is for callers that
// already import this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// CodeOf extracts the outermost code, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost coded message, falling back to the plain
// error text.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
