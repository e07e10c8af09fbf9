// Package changelist derives a version suffix from a git checkout.
//
// The suffix combines the number of commits reachable from HEAD with the
// abbreviated HEAD hash, for example -rc1234.852b_473a_2b_8c. Because an
// abbreviated hash is not unique, Identify walks the whole history reachable
// from HEAD and fails when two commits would receive the same identifier.
package changelist

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/git"
)

// AbbrevLength is the number of hash characters in an identifier.
const AbbrevLength = 12

// Checkout is the view of a git checkout needed to identify its HEAD.
// Walk and RevCount must start independent traversals on every call.
type Checkout interface {
	git.StatusReader
	Head(ctx context.Context) (*git.Commit, error)
	Walk(ctx context.Context, from string, fn func(*git.Commit) error) error
	RevCount(ctx context.Context, from string) (int, error)
}

// Revision identifies a commit by its reachable-commit count and hash.
type Revision struct {
	FullHash string
	Abbrev   string
	Count    int
}

func (r *Revision) String() string {
	return fmt.Sprintf("%d.%s", r.Count, r.Abbrev)
}

// Identifier computes the Revision of a checkout's HEAD.
type Identifier struct {
	checkout   Checkout
	status     git.StatusReader
	allowDirty bool
	logger     *slog.Logger
}

// Option configures an Identifier.
type Option func(*Identifier)

// WithAllowDirty turns a dirty checkout from an error into a warning.
func WithAllowDirty(allow bool) Option {
	return func(id *Identifier) {
		id.allowDirty = allow
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(id *Identifier) {
		if logger != nil {
			id.logger = logger
		}
	}
}

// WithStatusReader replaces the checkout's own status computation.
func WithStatusReader(r git.StatusReader) Option {
	return func(id *Identifier) {
		if r != nil {
			id.status = r
		}
	}
}

// New creates an Identifier for checkout.
func New(checkout Checkout, opts ...Option) *Identifier {
	id := &Identifier{
		checkout: checkout,
		status:   checkout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(id)
	}
	return id
}

// Identify returns the Revision of HEAD.
//
// It fails with a *DirtyCheckoutError when the checkout has uncommitted or
// untracked files, unless dirt is allowed, and with a *ClashError when two
// commits reachable from HEAD share both abbreviation and count.
func (id *Identifier) Identify(ctx context.Context) (*Revision, error) {
	start := time.Now()

	status, err := id.status.Status(ctx)
	if err != nil {
		return nil, gitFailure(ctx, err)
	}
	if !status.Clean() {
		dirty := &DirtyCheckoutError{Paths: status.Paths()}
		if !id.allowDirty {
			return nil, dirty
		}
		id.logger.Warn("ignoring dirty checkout", "paths", dirty.Paths)
	}

	head, err := id.checkout.Head(ctx)
	if err != nil {
		return nil, gitFailure(ctx, err)
	}

	count, err := id.checkout.RevCount(ctx, head.Hash)
	if err != nil {
		return nil, gitFailure(ctx, err)
	}

	if err := id.checkClashes(ctx, head); err != nil {
		var clash *ClashError
		if stderrors.As(err, &clash) {
			return nil, clash
		}
		return nil, gitFailure(ctx, err)
	}

	rev := &Revision{
		FullHash: head.Hash,
		Abbrev:   head.Abbrev(AbbrevLength),
		Count:    count,
	}
	id.logger.Debug("identified revision", "revision", rev.String(), "elapsed", time.Since(start))
	return rev, nil
}

// checkClashes walks everything reachable from head, grouping commits by
// abbreviation. Counts are computed lazily, only for shared abbreviations.
func (id *Identifier) checkClashes(ctx context.Context, head *git.Commit) error {
	encountered := make(map[string][]*git.Commit)
	counts := make(map[string]int)

	countOf := func(c *git.Commit) (int, error) {
		if n, ok := counts[c.Hash]; ok {
			return n, nil
		}
		n, err := id.checkout.RevCount(ctx, c.Hash)
		if err != nil {
			return 0, err
		}
		counts[c.Hash] = n
		return n, nil
	}

	analyzed := 0
	err := id.checkout.Walk(ctx, head.Hash, func(c *git.Commit) error {
		analyzed++
		abbrev := c.Abbrev(AbbrevLength)

		earlier := encountered[abbrev]
		if len(earlier) > 0 {
			thisCount, err := countOf(c)
			if err != nil {
				return err
			}
			for _, other := range earlier {
				otherCount, err := countOf(other)
				if err != nil {
					return err
				}
				if otherCount == thisCount {
					return &ClashError{Commit: c, Other: other, Count: thisCount, Abbrev: abbrev}
				}
				id.logger.Info("abbreviation shared by commits with differing counts",
					"commit", c.String(),
					"other", other.String(),
					"count", thisCount,
					"otherCount", otherCount)
			}
		}
		encountered[abbrev] = append(earlier, c)
		return nil
	})
	if err != nil {
		return err
	}

	id.logger.Debug("analyzed commits for clashes", "commits", analyzed)
	return nil
}

func gitFailure(ctx context.Context, err error) error {
	code := errors.CodeOf(err)
	switch {
	case ctx.Err() != nil:
		code = errors.ContextCode(ctx.Err())
	case code == errors.CodeUnknown:
		code = errors.CodeExecutionFailed
	}
	return errors.Wrap(err, code, "git operations failed")
}
