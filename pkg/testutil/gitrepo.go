package testutil

import (
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitFixture is a local git repository usable as a source repo in tests
type GitFixture struct {
	// Dir is the repository path, usable directly as a clone URL
	Dir string

	repo *git.Repository
}

// NewGitFixture initializes a git repository in a temp directory. The
// default branch is master, which the auto ref resolution falls back to.
func NewGitFixture(t *testing.T) *GitFixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	return &GitFixture{Dir: dir, repo: repo}
}

// Commit writes the given rel->content files into the worktree and
// commits them, returning the commit hash
func (f *GitFixture) Commit(t *testing.T, message string, files map[string]string) string {
	t.Helper()

	wt, err := f.repo.Worktree()
	require.NoError(t, err)

	for rel, content := range files {
		WriteFile(t, f.Dir, rel, content)
		_, err := wt.Add(rel)
		require.NoError(t, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "aps test",
			Email: "aps@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}
