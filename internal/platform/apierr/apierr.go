package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, ErrForbidden) works on
// wrapped values that carry a different cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeTargetNotFound        = "target_not_found"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeInvalidDiagnosticMode = "invalid_diagnostic_mode"
	CodeValidation            = "validation_error"
	CodeInternal              = "internal_error"
)

var (
	ErrTargetNotFound        = &Error{Status: http.StatusNotFound, Code: CodeTargetNotFound}
	ErrUnauthorized          = &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized}
	ErrForbidden             = &Error{Status: http.StatusForbidden, Code: CodeForbidden}
	ErrInvalidDiagnosticMode = &Error{Status: http.StatusBadRequest, Code: CodeInvalidDiagnosticMode}
	ErrValidation            = &Error{Status: http.StatusBadRequest, Code: CodeValidation}
	ErrInternal              = &Error{Status: http.StatusInternalServerError, Code: CodeInternal}
)

// NotFound reports a missing resource. code narrows the generic
// target_not_found (e.g. "diagnostic_not_found"); empty keeps the generic one.
func NotFound(code string, err error) *Error {
	if code == "" {
		code = CodeTargetNotFound
	}
	return New(http.StatusNotFound, code, err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, CodeForbidden, err)
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func InvalidDiagnosticMode(mode string) *Error {
	return New(http.StatusBadRequest, CodeInvalidDiagnosticMode, fmt.Errorf("unsupported diagnostic mode %q", mode))
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// As unwraps err into *Error. Plain errors come back as an internal error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
