package git

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrInvalidRef is returned when a reference name, hash or option value
// is malformed.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision cannot be resolved to a
// commit, including HEAD in a repository without commits.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrEmptyCommit is returned when a commit is requested with nothing staged.
var ErrEmptyCommit = errors.New("nothing to commit")

// ErrMalformedStatus is returned when git status output cannot be parsed.
var ErrMalformedStatus = errors.New("malformed status output")

// ErrStopWalk can be returned from a Walk callback to end the walk early
// without reporting an error.
var ErrStopWalk = errors.New("stop walk")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
