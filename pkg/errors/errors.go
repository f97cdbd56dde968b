package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNavigation    ErrorType = "navigation"
	ErrorTypePagination    ErrorType = "pagination"
	ErrorTypeSession       ErrorType = "session"
	ErrorTypeDownload      ErrorType = "download"
	ErrorTypeFilesystem    ErrorType = "filesystem"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeHTTPStatus    ErrorType = "http_status"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error carries the failing operation, the URL or path it concerned and,
// for HTTP failures, the status code.
type Error struct {
	Type ErrorType
	Op   string
	URL  string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, op string, err error) *Error {
	return &Error{Type: t, Op: op, Err: err}
}

// Newf creates a typed error from a format string
func Newf(t ErrorType, op string, format string, args ...interface{}) *Error {
	return &Error{Type: t, Op: op, Err: fmt.Errorf(format, args...)}
}

// WithURL returns a copy of e that records the URL or path it concerned
func (e *Error) WithURL(url string) *Error {
	c := *e
	c.URL = url
	return &c
}

// WithCode returns a copy of e carrying an HTTP status code
func (e *Error) WithCode(code int) *Error {
	c := *e
	c.Code = code
	return &c
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an *Error of type t
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			return false
		}
		if typed.Type == t {
			return true
		}
		err = typed.Err
	}
	return false
}

// IsConfiguration reports whether err was caused by invalid input or configuration
func IsConfiguration(err error) bool {
	return IsType(err, ErrorTypeConfiguration)
}

// IsNavigation reports whether err was raised by the browser session while loading a page
func IsNavigation(err error) bool {
	return IsType(err, ErrorTypeNavigation)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeHTTPStatus:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 408, 429:
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}
