package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Job lifecycle errors
const (
	// ErrCodeDispatchFailed indicates queue submission threw before a task was confirmed.
	ErrCodeDispatchFailed ErrorCode = "DISPATCH_FAILED"
	// ErrCodeWorkerFailed indicates the remote worker rejected the task.
	ErrCodeWorkerFailed ErrorCode = "WORKER_FAILED"
	// ErrCodeReplyFailed indicates no placeholder reply could be established.
	ErrCodeReplyFailed ErrorCode = "REPLY_FAILED"
	// ErrCodeNotEligible indicates the message carries no eligible voice attachment.
	ErrCodeNotEligible ErrorCode = "NOT_ELIGIBLE"
)

// Platform/infrastructure errors
const (
	// ErrCodePermissionDenied indicates the chat platform refused an operation.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeStoreUnavailable indicates the transient key-value store failed.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected internal fault.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStoreUnavailable: true,
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
