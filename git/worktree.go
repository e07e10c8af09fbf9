package git

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Add stages files in the worktree for the next commit.
// It supports glob patterns; paths that don't exist are silently ignored.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	var pathsToAdd []string
	for _, path := range paths {
		if path == "" {
			continue
		}

		if strings.ContainsAny(path, "*?[") {
			matches, err := util.Glob(r.worktree.Filesystem, path)
			if err != nil {
				return WrapErrorf(err, "invalid glob pattern %q", path)
			}
			pathsToAdd = append(pathsToAdd, matches...)
			continue
		}

		if _, err := r.worktree.Filesystem.Stat(path); err == nil {
			pathsToAdd = append(pathsToAdd, path)
		}
	}

	for _, path := range pathsToAdd {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.worktree.Add(path); err != nil {
			return WrapErrorf(err, "failed to add path %q", path)
		}
	}

	return nil
}

// Commit creates a new commit with the specified message and author/committer
// and returns its hash.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}

	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	sig := &object.Signature{
		Name:  who.Name,
		Email: who.Email,
		When:  who.When,
	}

	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}
