package clierr

import (
	stderrors "errors"
	"fmt"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// Exit codes.
const (
	ExitFailure       = 1
	ExitUsage         = 2
	ExitDirtyCheckout = 3
	ExitClash         = 4
	ExitTransport     = 5
	ExitMalformed     = 6
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

// Unwrap enables errors.Is/As to traverse the underlying cause.
func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Newf is a formatted variant.
func Newf(code int, format string, args ...any) error {
	return &ExitError{code: normalize(code), msg: fmt.Sprintf(format, args...)}
}

// ExitCodeOf extracts an exit code from any error. Errors without an explicit
// exit code are classified by their error code, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if stderrors.As(err, &ec) {
		return ec.ExitCode()
	}

	switch errors.CodeOf(err) {
	case errors.CodeInvalidConfig:
		return ExitUsage
	case errors.CodeDirtyCheckout:
		return ExitDirtyCheckout
	case errors.CodeClash:
		return ExitClash
	case errors.CodeNetwork, errors.CodeTimeout, errors.CodeRateLimit:
		return ExitTransport
	case errors.CodeInvalidInput:
		return ExitMalformed
	default:
		return ExitFailure
	}
}

func normalize(code int) int {
	// Exit code 0 means success; errors should never be 0.
	if code <= 0 {
		return 1
	}
	return code
}
