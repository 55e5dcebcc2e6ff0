package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the failure classes of the download pipeline
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProtocol   ErrorType = "protocol"
	ErrorTypeResolution ErrorType = "resolution"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeCancelled  ErrorType = "cancelled"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without an underlying cause
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around cause
func Wrap(t ErrorType, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Type: t, Message: msg, Err: cause}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == t
}

// IsCancelled reports whether err is a user cancellation
func IsCancelled(err error) bool {
	return IsType(err, ErrorTypeCancelled)
}

// StopsRun reports whether err should end a multi-item run.
// Every per-item failure is recoverable except a user cancellation.
func StopsRun(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeCancelled:
		return true
	default:
		return false
	}
}
