package errors

import (
	stderrors "errors"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeHashMismatch ErrorType = "HASH_MISMATCH"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// Error is the failure record every core operation reports. An operation
// either completes in full or returns exactly one of these kinds with no
// partial mutation behind it.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(message string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

func Validation(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: details,
	}
}

// Conflict reports an optimistic-concurrency failure: the branch head moved
// between read and append. Retrying with the new head is caller policy.
func Conflict(message string) *Error {
	return &Error{
		Type:    ErrorTypeConflict,
		Message: message,
		Code:    http.StatusConflict,
	}
}

// HashMismatch reports a checkout-time integrity failure: stored content no
// longer hashes to the digest recorded at commit time.
func HashMismatch(message string, details any) *Error {
	return &Error{
		Type:    ErrorTypeHashMismatch,
		Message: message,
		Code:    http.StatusInternalServerError,
		Details: details,
	}
}

func Internal(message string) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Message: message,
		Code:    http.StatusInternalServerError,
	}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

func IsNotFound(err error) bool     { return isType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool   { return isType(err, ErrorTypeValidation) }
func IsConflict(err error) bool     { return isType(err, ErrorTypeConflict) }
func IsHashMismatch(err error) bool { return isType(err, ErrorTypeHashMismatch) }
