// Package apperr defines the coded error type shared by whisperd handlers
// and services, so transport mapping happens in exactly one place.
package apperr

import (
	"errors"
	"fmt"
)

// AppError carries a machine-readable code alongside the message and an
// optional wrapped cause.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New builds an AppError without a cause.
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

// Wrap builds an AppError around a cause.
func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from err, or CodeUnknown for non-AppErrors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func InvalidArg(msg string) error        { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) error          { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) error     { return New(CodeAlreadyExists, msg) }
func Unauthorized(msg string) error      { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) error         { return New(CodePermissionDenied, msg) }
func FailedPrecondition(msg string) error { return New(CodeFailedPrecondition, msg) }
func Internal(msg string) error          { return New(CodeInternal, msg) }
