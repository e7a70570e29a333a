package billing

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	CodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Code.
var (
	ErrValidation         = errors.New("billing: validation error")
	ErrInvalidTransition  = errors.New("billing: invalid transition")
	ErrInvariantViolation = errors.New("billing: invariant violation")
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrInvalidTransition:
		return e.Code == CodeInvalidTransition
	case ErrInvariantViolation:
		return e.Code == CodeInvariantViolation
	}
	return false
}

func newError(code ErrorCode, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func ValidationError(message string, details map[string]any) *Error {
	return newError(CodeValidation, message, http.StatusBadRequest, details)
}

func InvalidTransitionError(from, to Status) *Error {
	return newError(CodeInvalidTransition, "Cannot transition order from "+string(from)+" to "+string(to), http.StatusConflict, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
}

func InvariantViolationError(message string, details map[string]any) *Error {
	return newError(CodeInvariantViolation, message, http.StatusInternalServerError, details)
}

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
