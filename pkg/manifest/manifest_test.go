// Test Type: Unit Test
// Description: Tests for the manifest package - parsing, defaults, validation, and discovery

package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/testutil"
)

func TestLoad_YAML(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "aps.yaml", `
entries:
  - id: team-agents
    kind: agents_md
    source:
      type: git
      repo: https://github.com/acme/prompts.git
      ref: v2
    dest: AGENTS.md
  - id: local-rules
    kind: cursor_rules
    source:
      type: filesystem
      root: ../shared-assets
      path: rules
`)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)

	git := m.Entries[0]
	assert.Equal(t, "team-agents", git.ID)
	assert.Equal(t, manifest.KindAgentsMD, git.Kind)
	assert.Equal(t, manifest.SourceGit, git.Source.Type)
	assert.Equal(t, "v2", git.Source.EffectiveRef())
	assert.True(t, git.Source.IsShallow(), "shallow defaults to true")

	fs := m.Entries[1]
	assert.Equal(t, manifest.SourceFilesystem, fs.Source.Type)
	assert.Equal(t, "rules", fs.Source.EffectivePath())
}

func TestLoad_TOML(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "aps.toml", `
[[entries]]
id = "team-agents"
kind = "agents_md"

[entries.source]
type = "filesystem"
root = "../shared-assets"
path = "AGENTS.md"
`)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "team-agents", m.Entries[0].ID)
	assert.Equal(t, "../shared-assets", m.Entries[0].Source.Root)
}

func TestLoad_Missing(t *testing.T) {
	_, err := manifest.Load(filepath.Join(t.TempDir(), "aps.yaml"))
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrManifestNotFound, apserrors.CodeOf(err))
	assert.NotEmpty(t, apserrors.HintOf(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	root := t.TempDir()
	path := testutil.WriteFile(t, root, "aps.yaml", "entries: [unclosed\n")

	_, err := manifest.Load(path)
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrManifestParse, apserrors.CodeOf(err))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, name := range []string{"aps.yaml", "aps.toml"} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, name)

			require.NoError(t, manifest.Save(manifest.Example(), path))
			m, err := manifest.Load(path)
			require.NoError(t, err)
			assert.Equal(t, manifest.Example(), m)
		})
	}
}

func TestExampleIsValid(t *testing.T) {
	require.NoError(t, manifest.Validate(manifest.Example()))
}

func TestKindDefaults(t *testing.T) {
	tests := []struct {
		kind        manifest.Kind
		defaultDest string
		isDirectory bool
		isFanOut    bool
	}{
		{manifest.KindAgentsMD, "AGENTS.md", false, false},
		{manifest.KindCursorRules, ".cursor/rules", true, false},
		{manifest.KindCursorSkillsRoot, ".cursor/skills", true, true},
		{manifest.KindAgentSkill, ".claude/skills", true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.True(t, tt.kind.Valid())
			assert.Equal(t, tt.defaultDest, tt.kind.DefaultDest())
			assert.Equal(t, tt.isDirectory, tt.kind.IsDirectory())
			assert.Equal(t, tt.isFanOut, tt.kind.IsFanOut())
		})
	}

	assert.False(t, manifest.Kind("helm_chart").Valid())
}

func TestApplyShallowDefault(t *testing.T) {
	declared := false
	m := &manifest.Manifest{Entries: []manifest.Entry{
		{
			ID:     "unset",
			Kind:   manifest.KindAgentsMD,
			Source: manifest.Source{Type: manifest.SourceGit, Repo: "https://github.com/acme/a.git"},
		},
		{
			ID:     "declared",
			Kind:   manifest.KindAgentsMD,
			Source: manifest.Source{Type: manifest.SourceGit, Repo: "https://github.com/acme/b.git", Shallow: &declared},
		},
		{
			ID:     "local",
			Kind:   manifest.KindAgentsMD,
			Source: manifest.Source{Type: manifest.SourceFilesystem, Root: "../assets"},
		},
	}}

	m.ApplyShallowDefault(false)

	// The config default fills the gap, the manifest declaration wins,
	// and filesystem sources are never touched
	assert.False(t, m.Entries[0].Source.IsShallow())
	assert.False(t, m.Entries[1].Source.IsShallow())
	assert.Nil(t, m.Entries[2].Source.Shallow)

	m.ApplyShallowDefault(true)
	assert.False(t, m.Entries[0].Source.IsShallow(), "an applied default must not be re-applied over")
}

func TestEntryDestination(t *testing.T) {
	entry := manifest.Entry{Kind: manifest.KindCursorRules}
	assert.Equal(t, ".cursor/rules", entry.Destination())

	entry.Dest = "docs/rules"
	assert.Equal(t, "docs/rules", entry.Destination())
}

func TestValidate(t *testing.T) {
	valid := manifest.Entry{
		ID:   "a",
		Kind: manifest.KindAgentsMD,
		Source: manifest.Source{
			Type: manifest.SourceFilesystem,
			Root: "../assets",
		},
	}

	tests := []struct {
		name     string
		entries  []manifest.Entry
		wantCode apserrors.ErrorCode
	}{
		{
			name:    "valid_manifest",
			entries: []manifest.Entry{valid},
		},
		{
			name: "duplicate_id",
			entries: []manifest.Entry{valid, {
				ID:     "a",
				Kind:   manifest.KindCursorRules,
				Source: valid.Source,
			}},
			wantCode: apserrors.ErrDuplicateID,
		},
		{
			name: "missing_id",
			entries: []manifest.Entry{{
				Kind:   manifest.KindAgentsMD,
				Source: valid.Source,
			}},
			wantCode: apserrors.ErrInvalidSource,
		},
		{
			name: "invalid_kind",
			entries: []manifest.Entry{{
				ID:     "b",
				Kind:   manifest.Kind("helm_chart"),
				Source: valid.Source,
			}},
			wantCode: apserrors.ErrInvalidKind,
		},
		{
			name: "git_source_without_repo",
			entries: []manifest.Entry{{
				ID:     "b",
				Kind:   manifest.KindAgentsMD,
				Source: manifest.Source{Type: manifest.SourceGit},
			}},
			wantCode: apserrors.ErrInvalidSource,
		},
		{
			name: "filesystem_source_without_root",
			entries: []manifest.Entry{{
				ID:     "b",
				Kind:   manifest.KindAgentsMD,
				Source: manifest.Source{Type: manifest.SourceFilesystem},
			}},
			wantCode: apserrors.ErrInvalidSource,
		},
		{
			name: "unknown_source_type",
			entries: []manifest.Entry{{
				ID:     "b",
				Kind:   manifest.KindAgentsMD,
				Source: manifest.Source{Type: "s3"},
			}},
			wantCode: apserrors.ErrInvalidSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manifest.Validate(&manifest.Manifest{Entries: tt.entries})
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apserrors.CodeOf(err))
		})
	}
}

func TestSourceDisplayName(t *testing.T) {
	git := manifest.Source{Type: manifest.SourceGit, Repo: "https://github.com/acme/prompts.git"}
	assert.Equal(t, "https://github.com/acme/prompts.git @ auto", git.DisplayName())

	git.Ref = "v2"
	assert.Equal(t, "https://github.com/acme/prompts.git @ v2", git.DisplayName())

	fs := manifest.Source{Type: manifest.SourceFilesystem, Root: "../assets", Path: "rules"}
	assert.Equal(t, "filesystem:../assets/rules", fs.DisplayName())
}

func TestDiscover_WithOverride(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "custom.yaml")
	require.NoError(t, manifest.Save(manifest.Example(), path))

	m, found, err := manifest.Discover(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
	assert.Len(t, m.Entries, 1)
}

func TestDiscover_OverrideMissing(t *testing.T) {
	_, _, err := manifest.Discover(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, apserrors.ErrManifestNotFound, apserrors.CodeOf(err))
}

func TestLookup(t *testing.T) {
	m := &manifest.Manifest{Entries: []manifest.Entry{
		{ID: "first"},
		{ID: "second"},
	}}

	entry, ok := m.Lookup("second")
	require.True(t, ok)
	assert.Equal(t, "second", entry.ID)

	_, ok = m.Lookup("absent")
	assert.False(t, ok)
}
