// Package errors provides standardized error handling for activity persistence.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeActivityDataMalformed ErrorCode = "ACTIVITY_DATA_MALFORMED"
	ErrCodeActivityIOFailed      ErrorCode = "ACTIVITY_IO_FAILED"
	ErrCodeActivityUnexpected    ErrorCode = "ACTIVITY_UNEXPECTED_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	// Err is the underlying cause, kept for errors.Is / errors.As.
	Err error `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

// Is matches any StandardError carrying the same code, so the sentinels below
// work with errors.Is regardless of details or cause.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrMalformedData = &StandardError{Code: ErrCodeActivityDataMalformed}
	ErrIOFailure     = &StandardError{Code: ErrCodeActivityIOFailed}
	ErrUnexpected    = &StandardError{Code: ErrCodeActivityUnexpected}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewDataMalformedError reports a data file whose contents are not valid JSON
// for the requested shape.
func NewDataMalformedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityDataMalformed,
		Message:   "Activity data file is malformed",
		Details:   causeString(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewIOFailedError reports a read or write failure on the data file.
func NewIOFailedError(operation, path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityIOFailed,
		Message:   fmt.Sprintf("Activity data file %s failed", operation),
		Details:   causeString(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path, "operation": operation},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewUnexpectedError wraps anything that is neither a parse nor an I/O failure.
func NewUnexpectedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityUnexpected,
		Message:   fmt.Sprintf("Unexpected error during %s", operation),
		Details:   causeString(err),
		Retryable: false,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func causeString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError extracts a StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsMalformedData reports whether err is a malformed-data failure.
func IsMalformedData(err error) bool {
	return stderrors.Is(err, ErrMalformedData)
}

// IsIOFailure reports whether err is a file I/O failure.
func IsIOFailure(err error) bool {
	return stderrors.Is(err, ErrIOFailure)
}

// retryCounts maps error codes to recommended retries. Nothing is retried
// inside the store; the caller decides recovery.
var retryCounts = map[ErrorCode]int{
	ErrCodeActivityDataMalformed: 0,
	ErrCodeActivityIOFailed:      0,
	ErrCodeActivityUnexpected:    0,
}

// GetRetryCount returns the recommended retry count for code.
func GetRetryCount(code ErrorCode) int {
	return retryCounts[code]
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MALFORMED"):
		return "DATA"
	case strings.Contains(codeStr, "_IO_"):
		return "IO"
	case strings.Contains(codeStr, "UNEXPECTED") || strings.Contains(codeStr, "INTERNAL"):
		return "INTERNAL"
	default:
		return "OTHER"
	}
}
