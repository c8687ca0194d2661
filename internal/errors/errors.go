// Package errors defines the service error taxonomy shared by all HTTP
// handlers and middleware.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error class. Codes are stable and safe to expose to
// API clients.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInvalidToken      Code = "INVALID_TOKEN"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeRemoteUnavailable Code = "REMOTE_UNAVAILABLE"
	CodeRemoteRejected    Code = "REMOTE_REJECTED"
	CodeRemoteServer      Code = "REMOTE_SERVER_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// ServiceError is the uniform error shape returned by the API layer.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a detail entry and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Validation reports a malformed or incomplete request.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken reports a token that failed verification.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "invalid or expired token", cause)
}

// Forbidden reports an authenticated principal lacking permission.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "insufficient permissions"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports a missing resource.
func NotFound(resource string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found", nil)
}

// Conflict reports a duplicate unique field or an already-processed
// state transition.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// RateLimited reports request throttling.
func RateLimited(message string) *ServiceError {
	if message == "" {
		message = "too many requests"
	}
	return newError(CodeRateLimited, http.StatusTooManyRequests, message, nil)
}

// RemoteUnavailable reports a transient upstream failure the caller may retry.
func RemoteUnavailable(message string, cause error) *ServiceError {
	if message == "" {
		message = "upstream service temporarily unavailable"
	}
	return newError(CodeRemoteUnavailable, http.StatusServiceUnavailable, message, cause)
}

// RemoteRejected reports an upstream rejection that retrying will not fix.
func RemoteRejected(message string, status int, cause error) *ServiceError {
	if status < 400 || status > 499 {
		status = http.StatusBadGateway
	}
	return newError(CodeRemoteRejected, status, message, cause)
}

// RemoteServer reports an upstream 5xx.
func RemoteServer(message string, cause error) *ServiceError {
	if message == "" {
		message = "upstream service error"
	}
	return newError(CodeRemoteServer, http.StatusBadGateway, message, cause)
}

// Internal reports an unexpected server-side failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "internal error"
	}
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}
