package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error carrying an ErrorCode, a human readable message,
// optional key/value context and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the code of the error.
func (e *Error) ErrorCode() ErrorCode {
	return e.Code
}

// Is reports whether target is an *Error with the same code.
// This allows errors.Is(err, errors.New(errors.CodeNotFound, "")) style checks.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Coder is implemented by errors that expose an ErrorCode.
type Coder interface {
	error
	ErrorCode() ErrorCode
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. It returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with a code and a formatted message. It returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WrapWithContext wraps err with a code, a message and key/value context.
// It returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: ctx, Cause: err}
}

// CodeOf returns the code of the outermost Coder in err's chain.
// It returns CodeUnknown for errors that carry no code and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var c Coder
	if stderrors.As(err, &c) {
		return c.ErrorCode()
	}
	return CodeUnknown
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsRetryable reports whether err carries a code classified as transient.
func IsRetryable(err error) bool {
	return CodeOf(err).IsRetryable()
}

// ContextCode classifies the error of a finished context: CodeTimeout for an
// expired deadline and CodeCancelled for anything else.
func ContextCode(err error) ErrorCode {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeCancelled
}
