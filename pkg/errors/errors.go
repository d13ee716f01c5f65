package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrDependencyFailure  = errors.New("dependency failure")
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeBadRequest         = "BAD_REQUEST"
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDependencyFailure  = "DEPENDENCY_FAILURE"

	MetaCurrentStatus = "current_status"
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
	Err     error
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg, Err: ErrNotFound}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Err: ErrUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Err: ErrForbidden}
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: msg, Err: ErrBadRequest}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Err: ErrConflict}
}

func Validation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Err: ErrValidation}
}

func InvalidCredentials() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "invalid email or password", Err: ErrInvalidCredentials}
}

// InvalidTransition reports an action requested against a project (or request)
// that is not in the required source state. current is echoed back to callers.
func InvalidTransition(msg, current string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: msg,
		Err:     ErrInvalidTransition,
		Meta:    map[string]string{MetaCurrentStatus: current},
	}
}

// Dependency wraps a failed call to the store, blob store or identity lookup.
func Dependency(msg string, err error) *AppError {
	return &AppError{Code: CodeDependencyFailure, Message: msg, Err: fmt.Errorf("%w: %w", ErrDependencyFailure, err)}
}

// AsDependency returns err unchanged when it is already an AppError,
// otherwise wraps it as a dependency failure.
func AsDependency(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Dependency(msg, err)
}
