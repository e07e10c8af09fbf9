package git

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// testRepo is a helper struct that contains a test repository and its filesystem
type testRepo struct {
	repo *Repo
	fs   billy.Filesystem
	ctx  context.Context
	when time.Time
}

// setupTestRepo creates a new test repository with an in-memory filesystem
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := memfs.New()

	repo, err := Init(ctx, &Options{FS: memFS, Workdir: "."})
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo, "repository should not be nil")

	return &testRepo{
		repo: repo,
		fs:   memFS,
		ctx:  ctx,
		when: time.Date(2018, 4, 20, 12, 0, 0, 0, time.UTC),
	}
}

// setupTestRepoWithCommit creates a test repository with an initial commit
func setupTestRepoWithCommit(t *testing.T) *testRepo {
	t.Helper()

	tr := setupTestRepo(t)
	tr.commitFile(t, "test.txt", "initial content", "Initial commit")
	return tr
}

// writeFile writes a file in the worktree without staging it
func (tr *testRepo) writeFile(t *testing.T, name, content string) {
	t.Helper()

	err := util.WriteFile(tr.fs, name, []byte(content), 0o644)
	require.NoError(t, err, "failed to write %s", name)
}

// commitFile writes, stages and commits a file, returning the commit hash
func (tr *testRepo) commitFile(t *testing.T, name, content, msg string) string {
	t.Helper()

	tr.writeFile(t, name, content)
	require.NoError(t, tr.repo.Add(tr.ctx, name), "failed to add %s", name)

	tr.when = tr.when.Add(time.Minute)
	hash, err := tr.repo.Commit(tr.ctx, msg, Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  tr.when,
	}, CommitOpts{})
	require.NoError(t, err, "failed to commit %s", name)

	return hash
}
