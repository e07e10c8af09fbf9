package git

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeCommit records a commit with explicit parents on the current branch
func (tr *testRepo) mergeCommit(t *testing.T, msg string, parents ...string) string {
	t.Helper()

	hashes := make([]plumbing.Hash, len(parents))
	for i, p := range parents {
		hashes[i] = plumbing.NewHash(p)
	}

	tr.when = tr.when.Add(time.Minute)
	sig := &object.Signature{Name: "Test User", Email: "test@example.com", When: tr.when}
	hash, err := tr.repo.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           hashes,
		AllowEmptyCommits: true,
	})
	require.NoError(t, err)

	return hash.String()
}

func TestLog(t *testing.T) {
	tr := setupTestRepo(t)
	first := tr.commitFile(t, "a.txt", "a", "First")
	second := tr.commitFile(t, "b.txt", "b", "Second")
	third := tr.commitFile(t, "c.txt", "c", "Third")

	tests := []struct {
		name     string
		filter   LogFilter
		expected []string
	}{
		{"from HEAD", LogFilter{}, []string{"Third", "Second", "First"}},
		{"from hash", LogFilter{From: first}, []string{"First"}},
		{"from middle", LogFilter{From: second}, []string{"Second", "First"}},
		{"from tip", LogFilter{From: third}, []string{"Third", "Second", "First"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iter, err := tr.repo.Log(tr.ctx, tt.filter)
			require.NoError(t, err)
			defer iter.Close()

			var got []string
			for {
				c, err := iter.Next()
				require.NoError(t, err)
				if c == nil {
					break
				}
				got = append(got, c.Summary)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLog_InvalidFilter(t *testing.T) {
	tr := setupTestRepoWithCommit(t)

	_, err := tr.repo.Log(tr.ctx, LogFilter{From: "HEAD"})
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestWalk_VisitsEachCommitOnce(t *testing.T) {
	tr := setupTestRepo(t)
	base := tr.commitFile(t, "a.txt", "a", "Base")
	left := tr.commitFile(t, "b.txt", "b", "Left")
	right := tr.mergeCommit(t, "Right", base)
	merge := tr.mergeCommit(t, "Merge", right, left)

	seen := map[string]int{}
	err := tr.repo.Walk(tr.ctx, merge, func(c *Commit) error {
		seen[c.Hash]++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{base: 1, left: 1, right: 1, merge: 1}, seen)

	count, err := tr.repo.RevCount(tr.ctx, merge)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = tr.repo.RevCount(tr.ctx, left)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWalk_StopAndErrors(t *testing.T) {
	tr := setupTestRepo(t)
	tr.commitFile(t, "a.txt", "a", "First")
	head := tr.commitFile(t, "b.txt", "b", "Second")

	visited := 0
	err := tr.repo.Walk(tr.ctx, head, func(*Commit) error {
		visited++
		return ErrStopWalk
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)

	boom := errors.New("boom")
	err = tr.repo.Walk(tr.ctx, head, func(*Commit) error { return boom })
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.repo.RevCount(ctx, head)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_IndependentTraversals(t *testing.T) {
	tr := setupTestRepo(t)
	tr.commitFile(t, "a.txt", "a", "First")
	head := tr.commitFile(t, "b.txt", "b", "Second")

	var outer, inner int
	err := tr.repo.Walk(tr.ctx, head, func(*Commit) error {
		outer++
		n, err := tr.repo.RevCount(tr.ctx, head)
		inner += n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, outer)
	assert.Equal(t, 4, inner)
}
