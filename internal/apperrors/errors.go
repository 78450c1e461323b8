// Package apperrors provides the typed errors shared by the service layers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure class independent of its message.
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUpstream     ErrorCode = "UPSTREAM_FAILURE"
	CodeStorage      ErrorCode = "STORAGE_FAILURE"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Sentinels for errors.Is; every AppError matches the sentinel of its code.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
	ErrStorage      = errors.New("storage failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a structured application error.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match any AppError carrying CodeNotFound.
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Code == CodeInvalidInput
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUpstream:
		return e.Code == CodeUpstream
	case ErrStorage:
		return e.Code == CodeStorage
	case ErrUnauthorized:
		return e.Code == CodeUnauthorized
	}
	return false
}

func InvalidInput(message, details string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message, Details: details}
}

func NotFound(what string, id interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: what + " not found", Details: fmt.Sprintf("id: %v", id)}
}

func Upstream(service string, err error) *AppError {
	return &AppError{Code: CodeUpstream, Message: service + " unavailable", Details: errString(err), Err: err}
}

func Storage(op string, err error) *AppError {
	return &AppError{Code: CodeStorage, Message: op + " failed", Details: errString(err), Err: err}
}

func Unauthorized(details string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: "unauthorized", Details: details}
}

// HTTPStatus maps an error to the status code the API layer should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in the chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
