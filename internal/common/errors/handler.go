// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ErrorHandler normalizes store failures and logs each one exactly once.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err under msg and returns it as a StandardError for the caller
// to propagate. Callers must not log the returned error again.
func (h *ErrorHandler) Handle(msg string, err error, fields map[string]interface{}) *StandardError {
	stdErr := h.normalizeError(err)
	h.logError(msg, stdErr, fields)
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   causeString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func (h *ErrorHandler) logError(msg string, stdErr *StandardError, fields map[string]interface{}) {
	out := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range fields {
		out[k] = v
	}
	h.logger.Error(msg, out)
}
