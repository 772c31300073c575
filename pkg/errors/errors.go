package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError carries a stable code alongside the human-readable message.
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

// Is matches two AppErrors by code so predeclared errors work with errors.Is.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !stderrors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Disabled(msg string) error {
	return New(CodeDisabled, msg)
}

func InvalidUser(msg string) error {
	return New(CodeInvalidUser, msg)
}

func PermissionDenied(msg string) error {
	return New(CodePermissionDenied, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func InvalidParam(msg string) error {
	return New(CodeInvalidParameter, msg)
}

func AccessDenied(msg string) error {
	return New(CodeAccessDenied, msg)
}

func Blocked(msg string) error {
	return New(CodeBlocked, msg)
}

func InvalidOperation(msg string) error {
	return New(CodeInvalidOperation, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(CodeInternal, msg, cause)
}

// CodeOf extracts the code from any error, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
