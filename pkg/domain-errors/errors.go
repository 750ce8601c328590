// Package domainerrors defines the error taxonomy raised around the lifecycle
// core. The core policy itself never fails; these errors come from
// collaborators (stores, providers, services) and from input validation at
// trust boundaries.
//
// Services construct errors with New/Newf/Wrap, handlers translate codes to
// HTTP statuses, and callers branch with HasCode or errors.As. The taxonomy is
// flat: codes compose, nothing inherits.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The string value is the wire form written
// into error envelopes.
type Code string

const (
	// CodeNotFound reports that a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict reports a state conflict: duplicate identity, illegal
	// lifecycle transition, concurrent modification.
	CodeConflict Code = "conflict"
	// CodeValidation reports rejected input. Errors with this code may carry
	// a field-to-messages map.
	CodeValidation Code = "validation_failed"
	// CodeUnauthorized reports a missing or unusable identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden reports an authenticated actor without access.
	CodeForbidden Code = "forbidden"
	// CodeBusiness is the catch-all for domain rule violations that fit no
	// sharper code.
	CodeBusiness Code = "business_error"
	// CodeInternal reports an unexpected infrastructure failure. Handlers
	// never echo its message to clients.
	CodeInternal Code = "internal_error"
)

// Error is the single error type of the taxonomy.
type Error struct {
	Code    Code
	Message string
	// Fields maps a field name to its validation messages. Populated only
	// for CodeValidation.
	Fields map[string][]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is makes two domain errors equivalent under errors.Is when code and message
// match, so tests can compare against a freshly constructed error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New builds a domain error from a code and a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewValidation builds a CodeValidation error carrying the full
// field-to-messages map.
func NewValidation(fields map[string][]string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewFieldValidation is the single-pair convenience for the common case of
// one offending field.
func NewFieldValidation(field, message string) *Error {
	return NewValidation(map[string][]string{field: {message}})
}

// HasCode reports whether err or anything it wraps is a domain error with the
// given code.
func HasCode(err error, code Code) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not a domain
// error. Callers that need to distinguish "no code" should use errors.As.
func CodeOf(err error) Code {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return CodeInternal
}

// FieldsOf extracts the validation field map from err, or nil when err is not
// a domain error or carries no fields.
func FieldsOf(err error) map[string][]string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Fields
	}
	return nil
}

// IsDomain reports whether err is (or wraps) a domain error of any code.
func IsDomain(err error) bool {
	var dErr *Error
	return errors.As(err, &dErr)
}
