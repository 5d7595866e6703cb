// Package apperror defines the application's error taxonomy.
//
// Every layer below the HTTP handlers returns one of these typed errors;
// the handlers translate them to status codes in exactly one place
// (handler.writeError). Sentinel errors are matched with errors.Is, which
// walks the wrap chain via AppError.Unwrap.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrDependency   = errors.New("dependency unavailable")
	ErrParse        = errors.New("parse error")
)

type AppError struct {
	Err     error  // sentinel identifying the error class
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

// NotFoundMessage is NotFound with a caller-supplied message, for cases
// where "resource not found: key" reads poorly (e.g. the on-this-day
// selector, where absence is a defined outcome rather than a bad key).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized covers the password gate's "wrong password" outcome.
// The message must stay generic — it must not reveal whether the record
// or its hash exists.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden covers store policy rejections (e.g. a row-level-security
// denial on a public submission). HTTP handlers map this to 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, key),
	}
}

// Dependency covers an unreachable or unconfigured backing store. Missing
// credentials degrade to this error rather than crashing the process.
func Dependency(message string) *AppError {
	return &AppError{
		Err:     ErrDependency,
		Message: message,
	}
}

// ParseFailed covers malformed stored content. It is contained by the
// rendering surface and must never propagate as a page crash.
func ParseFailed(message string) *AppError {
	return &AppError{
		Err:     ErrParse,
		Message: message,
	}
}
