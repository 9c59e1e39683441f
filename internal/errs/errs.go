package errs

import (
	"errors"
)

// Code is an application error code.
type Code string

const (
	InvalidArgument    Code = "invalid_argument"
	NotFound           Code = "not_found"
	UnreadableDocument Code = "unreadable_document"
	InvalidPageIndex   Code = "invalid_page_index"
	AssertionFailed    Code = "assertion_failed"
	Internal           Code = "internal"
)

// Error is a coded application error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded interface{ ErrorCode() Code }
	if errors.As(err, &coded) {
		if c := coded.ErrorCode(); c != "" {
			return c
		}
		return Internal
	}
	return Internal
}

// ErrorCode lets CodeOf find codes on types that embed or mimic *Error.
func (e *Error) ErrorCode() Code {
	if e == nil {
		return ""
	}
	return e.Code
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns a user-facing error message.
// Untyped errors collapse to "internal error" so raw causes stay in logs.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	var msg interface {
		ErrorCode() Code
		Error() string
	}
	if errors.As(err, &msg) {
		return msg.Error()
	}
	return "internal error"
}

// ExitCode maps an error code to a process exit status for the CLIs.
func ExitCode(code Code) int {
	switch code {
	case AssertionFailed:
		return 1
	case InvalidArgument, InvalidPageIndex:
		return 2
	case NotFound:
		return 3
	case UnreadableDocument:
		return 4
	default:
		return 5
	}
}
