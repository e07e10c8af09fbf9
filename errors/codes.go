// Package errors provides the error taxonomy shared by the incrementals tooling.
// It extends Go's standard error handling with structured error codes, retry
// classification and context preservation.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	// Lookups treat it as a negative answer rather than a failure.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed,
	// for example an unparseable descriptor or an unrecognized source-control URL.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed in a way other than "not found".
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the rate limit has been exceeded.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeCancelled indicates the caller cancelled the operation.
	CodeCancelled ErrorCode = "CANCELLED"

	// Checkout errors.

	// CodeDirtyCheckout indicates the working tree has uncommitted or untracked changes.
	CodeDirtyCheckout ErrorCode = "DIRTY_CHECKOUT"

	// CodeClash indicates two commits would be assigned the same revision identifier.
	CodeClash ErrorCode = "REVISION_CLASH"

	// Execution errors.

	// CodeExecutionFailed indicates an external command failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// IsRetryable reports whether an error code describes a transient condition.
// The core never retries on its own; callers wrapping lookups with their own
// backoff use this to decide.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case CodeNetwork, CodeTimeout, CodeRateLimit:
		return true
	default:
		return false
	}
}
