// Package manifest defines the declarative sync manifest: which assets
// to pull, from where, and into which destinations.
package manifest

import (
	"fmt"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// Kind identifies how an asset is installed
type Kind string

const (
	// KindAgentsMD is a single AGENTS.md file
	KindAgentsMD Kind = "agents_md"

	// KindCursorRules is a flat directory of rule files
	KindCursorRules Kind = "cursor_rules"

	// KindCursorSkillsRoot is a fan-out directory whose immediate children
	// are independent skill folders
	KindCursorSkillsRoot Kind = "cursor_skills_root"

	// KindAgentSkill is a fan-out skill directory per the agentskills.io layout
	KindAgentSkill Kind = "agent_skill"
)

// Valid reports whether k is a recognized asset kind
func (k Kind) Valid() bool {
	switch k {
	case KindAgentsMD, KindCursorRules, KindCursorSkillsRoot, KindAgentSkill:
		return true
	}
	return false
}

// DefaultDest returns the kind's default destination, relative to the
// manifest directory
func (k Kind) DefaultDest() string {
	switch k {
	case KindCursorRules:
		return ".cursor/rules"
	case KindCursorSkillsRoot:
		return ".cursor/skills"
	case KindAgentSkill:
		return ".claude/skills"
	default:
		return "AGENTS.md"
	}
}

// IsDirectory reports whether the kind installs a directory tree
func (k Kind) IsDirectory() bool {
	return k != KindAgentsMD
}

// IsFanOut reports whether the kind treats each immediate child directory
// of the source as an independent sub-item
func (k Kind) IsFanOut() bool {
	return k == KindCursorSkillsRoot || k == KindAgentSkill
}

// Source type discriminator values
const (
	SourceGit        = "git"
	SourceFilesystem = "filesystem"
)

// RefAuto asks the git adapter to try main, then master
const RefAuto = "auto"

// Source describes where an entry's content comes from. It is a tagged
// union discriminated by Type; validation rejects shapes that mix fields
// across variants.
type Source struct {
	Type string `yaml:"type" toml:"type"`

	// Git fields
	Repo    string `yaml:"repo,omitempty" toml:"repo,omitempty"`
	Ref     string `yaml:"ref,omitempty" toml:"ref,omitempty"`
	Shallow *bool  `yaml:"shallow,omitempty" toml:"shallow,omitempty"`

	// Filesystem fields
	Root           string `yaml:"root,omitempty" toml:"root,omitempty"`
	FollowSymlinks bool   `yaml:"follow_symlinks,omitempty" toml:"follow_symlinks,omitempty"`

	// Common: path within the repo or root
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// EffectiveRef returns the declared ref, or "auto" when unset
func (s Source) EffectiveRef() string {
	if s.Ref == "" {
		return RefAuto
	}
	return s.Ref
}

// IsShallow reports whether git clones should be shallow (default true)
func (s Source) IsShallow() bool {
	if s.Shallow == nil {
		return true
	}
	return *s.Shallow
}

// EffectivePath returns the path within the source, or "." when unset
func (s Source) EffectivePath() string {
	if s.Path == "" {
		return "."
	}
	return s.Path
}

// DisplayName returns a human-readable summary of the source, also used
// as the source field of lockfile records
func (s Source) DisplayName() string {
	switch s.Type {
	case SourceGit:
		return fmt.Sprintf("%s @ %s", s.Repo, s.EffectiveRef())
	case SourceFilesystem:
		if s.Path != "" {
			return fmt.Sprintf("filesystem:%s/%s", s.Root, s.Path)
		}
		return fmt.Sprintf("filesystem:%s", s.Root)
	default:
		return fmt.Sprintf("%s:?", s.Type)
	}
}

// Validate checks the source shape for its declared type
func (s Source) Validate() error {
	switch s.Type {
	case SourceGit:
		if s.Repo == "" {
			return apserrors.New(apserrors.ErrInvalidSource, "git source requires a repo").
				WithHint("add 'repo: https://...' to the source")
		}
	case SourceFilesystem:
		if s.Root == "" {
			return apserrors.New(apserrors.ErrInvalidSource, "filesystem source requires a root").
				WithHint("add 'root: ../shared-assets' to the source")
		}
	default:
		return apserrors.Newf(apserrors.ErrInvalidSource, "invalid source type: %q", s.Type).
			WithHint("valid source types are: git, filesystem")
	}
	return nil
}

// Entry is one declared sync unit in the manifest
type Entry struct {
	ID      string   `yaml:"id" toml:"id"`
	Kind    Kind     `yaml:"kind" toml:"kind"`
	Source  Source   `yaml:"source" toml:"source"`
	Dest    string   `yaml:"dest,omitempty" toml:"dest,omitempty"`
	Include []string `yaml:"include,omitempty" toml:"include,omitempty"`
}

// Destination returns the entry's destination relative to the manifest
// directory, falling back to the kind default
func (e Entry) Destination() string {
	if e.Dest != "" {
		return e.Dest
	}
	return e.Kind.DefaultDest()
}

// Manifest is an ordered list of entries
type Manifest struct {
	Entries []Entry `yaml:"entries" toml:"entries"`
}

// ApplyShallowDefault sets the clone policy for git sources that do not
// declare one. A shallow value declared in the manifest always wins.
func (m *Manifest) ApplyShallowDefault(shallow bool) {
	for i := range m.Entries {
		src := &m.Entries[i].Source
		if src.Type == SourceGit && src.Shallow == nil {
			v := shallow
			src.Shallow = &v
		}
	}
}

// Lookup returns the entry with the given id
func (m *Manifest) Lookup(id string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Example returns the starter manifest written by `aps init`
func Example() *Manifest {
	return &Manifest{
		Entries: []Entry{
			{
				ID:   "my-agents",
				Kind: KindAgentsMD,
				Source: Source{
					Type: SourceFilesystem,
					Root: "../shared-assets",
					Path: "AGENTS.md",
				},
			},
		},
	}
}
