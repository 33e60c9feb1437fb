package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the kinds of failure a request can end in
type ErrorType string

const (
	ErrorTypeMissingInput ErrorType = "missing_input"
	ErrorTypeInvalidURL   ErrorType = "invalid_url"
	ErrorTypeDuplicate    ErrorType = "duplicate"
	ErrorTypeNotVideo     ErrorType = "not_video"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeFetch        ErrorType = "fetch"
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeInternal     ErrorType = "internal"
)

// Error is a request-level error carrying a type and a caller-facing message
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by type so callers can compare against sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// New creates an error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates an error of the given type around an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

func MissingInput(message string) *Error { return New(ErrorTypeMissingInput, message) }
func InvalidURL(message string) *Error   { return New(ErrorTypeInvalidURL, message) }
func Duplicate(message string) *Error    { return New(ErrorTypeDuplicate, message) }
func NotVideo(message string) *Error     { return New(ErrorTypeNotVideo, message) }
func RateLimited(message string) *Error  { return New(ErrorTypeRateLimit, message) }

// Sentinels for errors.Is checks on type alone
var (
	ErrMissingInput = &Error{Type: ErrorTypeMissingInput}
	ErrInvalidURL   = &Error{Type: ErrorTypeInvalidURL}
	ErrDuplicate    = &Error{Type: ErrorTypeDuplicate}
	ErrNotVideo     = &Error{Type: ErrorTypeNotVideo}
	ErrRateLimit    = &Error{Type: ErrorTypeRateLimit}
	ErrFetch        = &Error{Type: ErrorTypeFetch}
	ErrAuth         = &Error{Type: ErrorTypeAuth}
)

// TypeOf returns the type of the first *Error in err's chain, or internal
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// StatusCode maps an error to the HTTP status a handler should answer with
func StatusCode(err error) int {
	switch TypeOf(err) {
	case ErrorTypeMissingInput, ErrorTypeInvalidURL, ErrorTypeDuplicate, ErrorTypeNotVideo:
		return http.StatusBadRequest
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text of err.
// For typed errors wrapping a cause, the cause is appended the way the
// underlying service reported it.
func Message(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil && (e.Type == ErrorTypeFetch || e.Type == ErrorTypeAuth) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
