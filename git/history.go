package git

import (
	"context"
	"errors"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// LogFilter configures which commits to include in log operations.
type LogFilter struct {
	// From is the full hash to start from. Empty means HEAD.
	From string
}

// CommitIter is an iterator over commits returned by Log. Each iterator
// performs its own traversal; iterators never share state.
type CommitIter struct {
	ctx  context.Context
	iter object.CommitIter
}

// Next returns the next commit in the iteration.
// Returns nil when iteration is complete.
func (ci *CommitIter) Next() (*Commit, error) {
	if err := ci.ctx.Err(); err != nil {
		return nil, err
	}
	c, err := ci.iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, WrapError(err, "failed to get next commit")
	}
	return newCommit(c), nil
}

// Close closes the iterator and releases any associated resources.
func (ci *CommitIter) Close() {
	ci.iter.Close()
}

// Log returns a commit iterator for the history reachable from f.From.
// The returned CommitIter should be closed when no longer needed.
func (r *Repo) Log(ctx context.Context, f LogFilter) (*CommitIter, error) {
	logOpts := &git.LogOptions{}

	if f.From != "" {
		if !plumbing.IsHash(f.From) {
			return nil, WrapErrorf(ErrInvalidRef, "not a full commit hash: %q", f.From)
		}
		logOpts.From = plumbing.NewHash(f.From)
	}

	iter, err := r.repo.Log(logOpts)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, WrapError(ErrResolveFailed, "failed to create commit iterator")
		}
		return nil, WrapError(err, "failed to create commit iterator")
	}

	return &CommitIter{ctx: ctx, iter: iter}, nil
}

// Walk calls fn for every commit reachable from the given full hash, each
// commit once, starting with the commit itself. Returning ErrStopWalk from
// fn ends the walk without error.
func (r *Repo) Walk(ctx context.Context, from string, fn func(*Commit) error) error {
	iter, err := r.Log(ctx, LogFilter{From: from})
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		c, err := iter.Next()
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		if err := fn(c); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
}

// RevCount returns the number of commits reachable from the given full hash,
// the commit itself included.
func (r *Repo) RevCount(ctx context.Context, from string) (int, error) {
	count := 0
	err := r.Walk(ctx, from, func(*Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, WrapErrorf(err, "failed to count commits reachable from %s", from)
	}
	return count, nil
}
