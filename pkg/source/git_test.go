// Test Type: Integration Test
// Description: Tests for the git source adapter against local fixture repositories (no network)

package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/source"
	"github.com/westonplatter/agentic-prompt-sync/pkg/testutil"
)

// Local fixtures are cloned in full; depth handling varies by transport
func fullClone() *bool {
	f := false
	return &f
}

func TestGit_RemoteHeadAutoFallsBackToMaster(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	commit := fixture.Commit(t, "initial", map[string]string{"AGENTS.md": "hello"})

	adapter := source.NewGit(manifest.Source{
		Type: manifest.SourceGit,
		Repo: fixture.Dir,
	})

	ref, head, err := adapter.RemoteHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "master", ref)
	assert.Equal(t, commit, head)
}

func TestGit_RemoteHeadExplicitRef(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	commit := fixture.Commit(t, "initial", map[string]string{"AGENTS.md": "hello"})

	adapter := source.NewGit(manifest.Source{
		Type: manifest.SourceGit,
		Repo: fixture.Dir,
		Ref:  "master",
	})

	ref, head, err := adapter.RemoteHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "master", ref)
	assert.Equal(t, commit, head)
}

func TestGit_RemoteHeadUnknownRef(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	fixture.Commit(t, "initial", map[string]string{"AGENTS.md": "hello"})

	adapter := source.NewGit(manifest.Source{
		Type: manifest.SourceGit,
		Repo: fixture.Dir,
		Ref:  "release-9.9",
	})

	_, _, err := adapter.RemoteHead(context.Background())
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrRefNotResolved, apserrors.CodeOf(err))
}

func TestGit_RemoteHeadCommitSHANeedsNoRemote(t *testing.T) {
	// A full SHA identifies itself; the bogus repo URL must never be contacted
	sha := "0123456789abcdef0123456789abcdef01234567"
	adapter := source.NewGit(manifest.Source{
		Type: manifest.SourceGit,
		Repo: filepath.Join(t.TempDir(), "no-such-repo"),
		Ref:  sha,
	})

	ref, head, err := adapter.RemoteHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sha, ref)
	assert.Equal(t, sha, head)
}

func TestGit_RemoteHeadUnreachableRepo(t *testing.T) {
	adapter := source.NewGit(manifest.Source{
		Type: manifest.SourceGit,
		Repo: filepath.Join(t.TempDir(), "no-such-repo"),
		Ref:  "main",
	})

	_, _, err := adapter.RemoteHead(context.Background())
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrSourceUnreachable, apserrors.CodeOf(err))
}

func TestGit_ResolveClonesAndReleases(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	commit := fixture.Commit(t, "initial", map[string]string{
		"AGENTS.md":        "hello",
		"rules/style.mdc":  "style rule",
		"rules/safety.mdc": "safety rule",
	})

	adapter := source.NewGit(manifest.Source{
		Type:    manifest.SourceGit,
		Repo:    fixture.Dir,
		Shallow: fullClone(),
	})

	resolved, err := adapter.Resolve(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "master", resolved.ResolvedRef)
	assert.Equal(t, commit, resolved.Commit)
	assert.Equal(t, "hello", testutil.ReadFile(t, filepath.Join(resolved.Path, "AGENTS.md")))

	clonePath := resolved.Path
	resolved.Release()
	_, statErr := os.Lstat(clonePath)
	assert.True(t, os.IsNotExist(statErr), "clone directory must be deleted on release")

	// Release is idempotent
	resolved.Release()
}

func TestGit_ResolveNarrowsToPath(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	fixture.Commit(t, "initial", map[string]string{
		"AGENTS.md":       "hello",
		"rules/style.mdc": "style rule",
	})

	adapter := source.NewGit(manifest.Source{
		Type:    manifest.SourceGit,
		Repo:    fixture.Dir,
		Path:    "rules",
		Shallow: fullClone(),
	})

	resolved, err := adapter.Resolve(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer resolved.Release()

	assert.Equal(t, "style rule", testutil.ReadFile(t, filepath.Join(resolved.Path, "style.mdc")))
}

func TestGit_ResolveMissingPathInRepo(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	fixture.Commit(t, "initial", map[string]string{"AGENTS.md": "hello"})

	adapter := source.NewGit(manifest.Source{
		Type:    manifest.SourceGit,
		Repo:    fixture.Dir,
		Path:    "no/such/dir",
		Shallow: fullClone(),
	})

	_, err := adapter.Resolve(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrSourceUnreachable, apserrors.CodeOf(err))
}

func TestGit_ResolvePinnedCommit(t *testing.T) {
	fixture := testutil.NewGitFixture(t)
	first := fixture.Commit(t, "first", map[string]string{"AGENTS.md": "v1"})
	fixture.Commit(t, "second", map[string]string{"AGENTS.md": "v2"})

	adapter := source.NewGit(manifest.Source{
		Type:    manifest.SourceGit,
		Repo:    fixture.Dir,
		Ref:     first,
		Shallow: fullClone(),
	})

	resolved, err := adapter.Resolve(context.Background(), t.TempDir())
	require.NoError(t, err)
	defer resolved.Release()

	assert.Equal(t, first, resolved.Commit)
	assert.Equal(t, "v1", testutil.ReadFile(t, filepath.Join(resolved.Path, "AGENTS.md")))
}
