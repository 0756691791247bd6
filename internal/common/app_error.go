package common

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// AppError is an operational error whose message is safe to show to clients
type AppError struct {
	StatusCode    int
	Status        string
	Message       string
	IsOperational bool
	Stack         string
	Err           error
}

// NewAppError creates an operational error. Status is "fail" for 4xx codes and
// "error" for everything else.
func NewAppError(message string, statusCode int) *AppError {
	return &AppError{
		StatusCode:    statusCode,
		Status:        statusFor(statusCode),
		Message:       message,
		IsOperational: true,
		Stack:         string(debug.Stack()),
	}
}

// NewAppErrorf is NewAppError with fmt formatting
func NewAppErrorf(statusCode int, format string, args ...interface{}) *AppError {
	return NewAppError(fmt.Sprintf(format, args...), statusCode)
}

// WrapAppError keeps the underlying cause for server-side logging
func WrapAppError(err error, message string, statusCode int) *AppError {
	appErr := NewAppError(message, statusCode)
	appErr.Err = err
	return appErr
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

// AsAppError reports whether err carries an AppError anywhere in its chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func statusFor(code int) string {
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError {
		return StatusFail
	}
	return StatusError
}

// StatusFor exposes the JSend status for an HTTP code
func StatusFor(code int) string {
	return statusFor(code)
}
