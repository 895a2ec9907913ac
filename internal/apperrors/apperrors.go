// Package apperrors provides coded domain errors shared by services and handlers.
//
// Services return typed errors; handlers map them to HTTP statuses:
//
//	if errors.Is(err, apperrors.ErrAccessDenied) { ... }
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeNotFound               Code = "NOT_FOUND"
	CodeAccessDenied           Code = "ACCESS_DENIED"
	CodeValidation             Code = "VALIDATION_FAILED"
	CodeConflict               Code = "CONFLICT"
	CodeEnrichmentSubmitFailed Code = "ENRICHMENT_SUBMIT_FAILED"
	CodeEnrichmentTimeout      Code = "ENRICHMENT_TIMEOUT"
	CodeInternal               Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeEnrichmentSubmitFailed:
		return http.StatusBadGateway
	case CodeEnrichmentTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code and message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAccessDenied           = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrValidation             = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrConflict               = &Error{Code: CodeConflict, Message: "conflict"}
	ErrEnrichmentSubmitFailed = &Error{Code: CodeEnrichmentSubmitFailed, Message: "enrichment submit failed"}
	ErrEnrichmentTimeout      = &Error{Code: CodeEnrichmentTimeout, Message: "enrichment timed out"}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func AccessDenied(format string, args ...any) *Error {
	return &Error{Code: CodeAccessDenied, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the HTTP status for err, 500 when err is not a domain error.
func StatusOf(err error) int {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
