package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/jenkinsci/incrementals-tools/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."
)

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the REQUIRED filesystem root (OS or in-memory).
	// All repository state lives within this filesystem.
	FS billy.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// storage scopes the filesystem to the workdir and returns the object storage
// under .git together with the worktree filesystem.
func (o *Options) storage() (*filesystem.Storage, billy.Filesystem, error) {
	scopedFS, err := o.FS.Chroot(o.Workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", o.Workdir, err)
	}

	dotGitFS, err := scopedFS.Chroot(git.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}

	return fsbridge.NewStorage(dotGitFS, o.StorerCacheSize), scopedFS, nil
}

// Init creates a new repository with a worktree at the configured location.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := opts.storage()
	if err != nil {
		return nil, err
	}

	repo, err := git.Init(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to initialize repository")
	}

	return newRepo(repo, worktreeFS.Root())
}

// Open opens an existing repository at the configured location. Both the
// .git directory and the worktree must be present.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := opts.storage()
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to open repository")
	}

	return newRepo(repo, worktreeFS.Root())
}

// OpenPath opens the on-disk repository containing dir, searching parent
// directories for the .git entry the way the git CLI does.
func OpenPath(ctx context.Context, dir string) (*Repo, error) {
	if dir == "" {
		return nil, WrapError(ErrInvalidRef, "directory cannot be empty")
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, WrapErrorf(err, "failed to open repository at %q", dir)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{repo: repo, worktree: worktree, root: worktree.Filesystem.Root()}, nil
}

func newRepo(repo *git.Repository, root string) (*Repo, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{
		repo:     repo,
		worktree: worktree,
		root:     root,
	}, nil
}

// Signature represents an author/committer signature for commits.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no changes.
	AllowEmpty bool
}

// Repo is a repository with a worktree.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	root     string
}

// Root returns the worktree root as seen by its filesystem.
func (r *Repo) Root() string {
	return r.root
}

// Commit is the subset of commit metadata needed to describe a revision.
type Commit struct {
	// Hash is the full 40 character hex object id.
	Hash string

	// Summary is the first line of the commit message.
	Summary string

	Author string
	When   time.Time
}

// Abbrev returns the first n characters of the hash.
func (c *Commit) Abbrev(n int) string {
	if n >= len(c.Hash) {
		return c.Hash
	}
	return c.Hash[:n]
}

func (c *Commit) String() string {
	return fmt.Sprintf("%s %q (%s)", c.Hash, c.Summary, c.When.UTC().Format(time.RFC3339))
}

func newCommit(c *object.Commit) *Commit {
	summary, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return &Commit{
		Hash:    c.Hash.String(),
		Summary: strings.TrimSpace(summary),
		Author:  c.Author.Name,
		When:    c.Committer.When,
	}
}

// Head returns the commit HEAD points at.
func (r *Repo) Head(ctx context.Context) (*Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := r.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, WrapError(ErrResolveFailed, "HEAD has no commits")
		}
		return nil, WrapError(err, "failed to resolve HEAD")
	}

	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, WrapErrorf(err, "failed to load HEAD commit %s", ref.Hash())
	}

	return newCommit(c), nil
}
