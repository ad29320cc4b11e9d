package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

// Load reads and parses a manifest file. The format is chosen by
// extension: .toml is parsed as TOML, everything else as YAML.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apserrors.Newf(apserrors.ErrManifestNotFound, "manifest not found at %s", path).
				WithHint("run `aps init` to create a manifest, or use --manifest <path>")
		}
		return nil, apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to read manifest at %s", path)
	}

	var m Manifest
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(content, &m)
	} else {
		err = yaml.Unmarshal(content, &m)
	}
	if err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrManifestParse, "failed to parse manifest at %s", path)
	}

	return &m, nil
}

// Save writes a manifest in the format implied by the path's extension
func Save(m *Manifest, path string) error {
	var (
		content []byte
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		content, err = toml.Marshal(m)
	} else {
		content, err = yaml.Marshal(m)
	}
	if err != nil {
		return apserrors.Wrap(err, apserrors.ErrInternal, "failed to serialize manifest")
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to write manifest to %s", path)
	}
	return nil
}

// Discover locates and loads a manifest. With an override the file is
// loaded directly; otherwise the search walks up from the current
// directory, stopping at the repository boundary (.git) or the
// filesystem root.
func Discover(override string) (*Manifest, string, error) {
	logger := logging.GetLogger("manifest")

	manifestPath := override
	if manifestPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to get current directory")
		}
		manifestPath = paths.FindUp(cwd, paths.ManifestNameYAML, paths.ManifestNameTOML)
		if manifestPath == "" {
			return nil, "", apserrors.New(apserrors.ErrManifestNotFound, "no manifest found").
				WithHint("run `aps init` to create a manifest, or use --manifest <path>")
		}
	}

	logger.Info().Str("path", manifestPath).Msg("Loading manifest")
	m, err := Load(manifestPath)
	if err != nil {
		return nil, "", err
	}
	return m, manifestPath, nil
}

// Validate checks structural invariants the engine relies on: unique
// entry ids, recognized kinds, and well-formed source shapes.
func Validate(m *Manifest) error {
	seen := make(map[string]struct{}, len(m.Entries))

	for _, entry := range m.Entries {
		if entry.ID == "" {
			return apserrors.New(apserrors.ErrInvalidSource, "entry is missing an id")
		}
		if _, dup := seen[entry.ID]; dup {
			return apserrors.Newf(apserrors.ErrDuplicateID, "duplicate entry ID: %s", entry.ID)
		}
		seen[entry.ID] = struct{}{}

		if !entry.Kind.Valid() {
			return apserrors.Newf(apserrors.ErrInvalidKind, "invalid asset kind: %q", string(entry.Kind)).
				WithHint("valid kinds are: agents_md, cursor_rules, cursor_skills_root, agent_skill").
				WithDetail("entry", entry.ID)
		}
		if err := entry.Source.Validate(); err != nil {
			var apsErr *apserrors.ApsError
			if ok := asApsError(err, &apsErr); ok {
				apsErr.WithDetail("entry", entry.ID)
			}
			return err
		}
	}

	return nil
}

func asApsError(err error, target **apserrors.ApsError) bool {
	e, ok := err.(*apserrors.ApsError)
	if ok {
		*target = e
	}
	return ok
}
