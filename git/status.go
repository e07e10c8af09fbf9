package git

import (
	"bytes"
	"context"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/jenkinsci/incrementals-tools/executor"
)

// Status lists the paths that make a checkout differ from its HEAD commit.
type Status struct {
	// Uncommitted holds tracked paths with staged or unstaged changes,
	// including deletions.
	Uncommitted []string

	// Untracked holds paths unknown to the index and not ignored.
	Untracked []string
}

// Clean reports whether there is nothing uncommitted or untracked.
func (s *Status) Clean() bool {
	return len(s.Uncommitted) == 0 && len(s.Untracked) == 0
}

// Paths returns the sorted, de-duplicated union of uncommitted and untracked paths.
func (s *Status) Paths() []string {
	seen := make(map[string]struct{}, len(s.Uncommitted)+len(s.Untracked))
	var paths []string
	for _, group := range [][]string{s.Uncommitted, s.Untracked} {
		for _, p := range group {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// StatusReader reports the status of a checkout.
type StatusReader interface {
	Status(ctx context.Context) (*Status, error)
}

// Status computes the worktree status with go-git.
func (r *Repo) Status(ctx context.Context) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := r.worktree.Status()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree status")
	}

	status := &Status{}
	for path, fs := range st {
		switch {
		case fs.Staging == git.Untracked && fs.Worktree == git.Untracked:
			status.Untracked = append(status.Untracked, path)
		case fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified:
			status.Uncommitted = append(status.Uncommitted, path)
		}
	}
	sort.Strings(status.Uncommitted)
	sort.Strings(status.Untracked)

	return status, nil
}

// CLI reads the status of an on-disk checkout by running the git CLI.
// It honors every ignore source git itself knows about, which the go-git
// status walk does not.
type CLI struct {
	dir  string
	exec executor.Executor
}

// NewCLI returns a status reader for the checkout at dir. A nil exec runs
// the git binary found on PATH.
func NewCLI(dir string, exec executor.Executor) *CLI {
	if exec == nil {
		exec = executor.New("git")
	}
	return &CLI{dir: dir, exec: exec}
}

// Status runs git status in porcelain mode and parses its output. The index
// is not refreshed on disk.
func (c *CLI) Status(ctx context.Context) (*Status, error) {
	result, err := c.exec.Execute(ctx,
		[]string{"status", "--porcelain", "-z", "--untracked-files=all"},
		executor.WithWorkingDir(c.dir),
		executor.WithEnvVar("GIT_OPTIONAL_LOCKS", "0"))
	if err != nil {
		return nil, WrapErrorf(err, "git status failed in %q", c.dir)
	}

	return ParsePorcelain(result.Stdout)
}

// ParsePorcelain parses the output of git status --porcelain -z. A renamed
// entry reports both its new and its original path as uncommitted.
func ParsePorcelain(out []byte) (*Status, error) {
	status := &Status{}
	seen := make(map[string]struct{})
	addUncommitted := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		status.Uncommitted = append(status.Uncommitted, p)
	}

	entries := bytes.Split(out, []byte{0})
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) == 0 {
			continue
		}
		if len(entry) < 4 || entry[2] != ' ' {
			return nil, WrapErrorf(ErrMalformedStatus, "entry %q", entry)
		}

		x, y, path := entry[0], entry[1], string(entry[3:])
		switch {
		case x == '?' && y == '?':
			status.Untracked = append(status.Untracked, path)
		case x == '!' && y == '!':
		default:
			addUncommitted(path)
			if x == 'R' || x == 'C' {
				i++
				if i >= len(entries) || len(entries[i]) == 0 {
					return nil, WrapErrorf(ErrMalformedStatus, "missing original path for %q", path)
				}
				if x == 'R' {
					addUncommitted(string(entries[i]))
				}
			}
		}
	}

	sort.Strings(status.Uncommitted)
	sort.Strings(status.Untracked)
	return status, nil
}
