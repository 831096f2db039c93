// Package common defines shared constants, sentinel errors and the API error
// type used across the vidtube server layers. Callers should use errors.Is to
// match the sentinels and errors.As to extract an *APIError.
package common

import (
	"errors"
	"net/http"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// APIError is the error signal returned by services and rendered by the HTTP
// layer as {statusCode, data, message, success:false, errors}.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string

	// kind is the sentinel matched by errors.Is; cause is the optional
	// underlying failure.
	kind  error
	cause error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel kind and the cause.
func (e *APIError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// WithCause returns a copy of e carrying err as its cause.
func (e *APIError) WithCause(err error) *APIError {
	c := *e
	c.cause = err
	return &c
}

func newAPIError(status int, kind error, msg string) *APIError {
	return &APIError{StatusCode: status, Message: msg, Errors: []string{}, kind: kind}
}

func NewValidationError(msg string) *APIError {
	return newAPIError(http.StatusBadRequest, ErrorValidation, msg)
}

func NewConflictError(msg string) *APIError {
	return newAPIError(http.StatusConflict, ErrorAlreadyExists, msg)
}

func NewNotFoundError(msg string) *APIError {
	return newAPIError(http.StatusNotFound, ErrorNotFound, msg)
}

func NewUnauthorizedError(msg string) *APIError {
	return newAPIError(http.StatusUnauthorized, ErrorUnauthorized, msg)
}

func NewInternalError(msg string) *APIError {
	return newAPIError(http.StatusInternalServerError, ErrorInternal, msg)
}
