// Package apierrors defines errors that carry a client-facing status and message.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error that is safe to report to clients.
type APIError struct {
	HTTPCode int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// New creates an APIError with the given status and message.
func New(code int, message string) *APIError {
	return &APIError{HTTPCode: code, Message: message}
}

// As extracts an APIError from the error chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewErrBadRequest(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

func NewErrAllFieldsRequired() *APIError {
	return NewErrBadRequest("All fields are required")
}

func NewErrIdentifierRequired() *APIError {
	return NewErrBadRequest("username or email is required")
}

func NewErrAvatarRequired() *APIError {
	return NewErrBadRequest("Avatar file is required")
}

func NewErrUserAlreadyExists() *APIError {
	return New(http.StatusConflict, "User with email or username already exists")
}

func NewErrUserNotFound() *APIError {
	return New(http.StatusNotFound, "User does not exist")
}

func NewErrInvalidCredentials() *APIError {
	return New(http.StatusUnauthorized, "Invalid user credentials")
}

func NewErrUnauthorizedRequest() *APIError {
	return New(http.StatusUnauthorized, "unauthorized request")
}

// NewErrInvalidRefreshToken reports a refresh token that failed verification.
// The cause message is kept for clients, the stack is not.
func NewErrInvalidRefreshToken(cause error) *APIError {
	if cause == nil {
		return New(http.StatusUnauthorized, "Invalid refresh token")
	}
	return New(http.StatusUnauthorized, cause.Error())
}

func NewErrRefreshTokenUsed() *APIError {
	return New(http.StatusUnauthorized, "Refresh token is expired or used")
}

func NewErrInvalidAccessToken() *APIError {
	return New(http.StatusUnauthorized, "Invalid access token")
}

func NewErrTooManyRequests() *APIError {
	return New(http.StatusTooManyRequests, "too many requests")
}

// NewErrInternalServerError hides err behind a generic message.
func NewErrInternalServerError(err error) *APIError {
	return &APIError{HTTPCode: http.StatusInternalServerError, Message: "internal server error", Err: err}
}
