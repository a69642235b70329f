// Package errors provides unified error handling for scribe.
// It implements a structured error type with machine-readable codes
// and retryable detection, shared by the orchestrator's containment tiers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal if err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var ae *AppError
	return stderrors.As(err, &ae) && ae.Code == code
}

// --- Common Error Constructors ---

// DispatchFailed creates a new AppError for a queue submission that threw
// before dispatch was confirmed.
func DispatchFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDispatchFailed, Message: "Could not submit the transcription task.",
		Retryable: false, Cause: cause,
	}
}

// WorkerFailed creates a new AppError for a task the remote worker rejected.
// The worker's error text is preserved verbatim in Message.
func WorkerFailed(workerMessage string) *AppError {
	return &AppError{
		Code: ErrCodeWorkerFailed, Message: workerMessage,
		Retryable: false,
	}
}

// ReplyFailed creates a new AppError for a placeholder that could not be
// established by either reply strategy.
func ReplyFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeReplyFailed, Message: "Could not post a placeholder reply.",
		Retryable: false, Cause: cause,
	}
}

// PermissionDenied creates a new AppError for a chat platform refusal.
func PermissionDenied(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePermissionDenied, Message: fmt.Sprintf("The platform refused %s.", operation),
		Retryable: false, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// StoreUnavailable creates a new AppError for a failed store write.
func StoreUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreUnavailable, Message: "The job record store is unavailable.",
		Retryable: true, Cause: cause,
	}
}

// NotEligible creates a new AppError for a message with no eligible attachment.
func NotEligible() *AppError {
	return &AppError{
		Code: ErrCodeNotEligible, Message: "This doesn't look like a voice message.",
		Retryable: false,
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a service.
func ConnectionFailed(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		Retryable: true, Cause: cause,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an unexpected fault.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Retryable: false, Cause: cause,
	}
}
