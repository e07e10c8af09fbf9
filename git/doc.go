// Package git is a small facade over go-git for inspecting a checkout.
//
// # Basic Usage
//
// Open the repository containing a directory and describe its HEAD:
//
//	repo, err := git.OpenPath(ctx, "/path/to/plugin")
//	head, err := repo.Head(ctx)
//	count, err := repo.RevCount(ctx, head.Hash)
//
// In tests, repositories live in memory:
//
//	repo, err := git.Init(ctx, &git.Options{FS: memfs.New()})
//
// # Status
//
// Repo.Status computes uncommitted and untracked paths with go-git. CLI
// computes the same by running git status, for checkouts that depend on
// ignore rules go-git does not evaluate (global excludes, info/exclude).
//
//	status, err := git.NewCLI(repo.Root(), nil).Status(ctx)
//	if !status.Clean() {
//	    fmt.Println(status.Paths())
//	}
//
// # Error Handling
//
// Errors wrap the sentinels in errors.go and can be checked with errors.Is:
//
//	if errors.Is(err, git.ErrResolveFailed) {
//	    // repository has no commits yet
//	}
package git
