// Package catalog enumerates the individual assets a manifest syncs and
// answers free-text queries over them. It only ever produces entries to
// append to a manifest; the sync engine never calls into it.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
	"github.com/westonplatter/agentic-prompt-sync/pkg/source"
)

// CurrentVersion is the catalog format version
const CurrentVersion = 1

// Entry is one individual asset: a file for flat kinds, a child folder
// for fan-out kinds
type Entry struct {
	ID                string        `yaml:"id"`
	ManifestEntryID   string        `yaml:"manifest_entry_id"`
	Name              string        `yaml:"name"`
	Kind              manifest.Kind `yaml:"kind"`
	SourcePath        string        `yaml:"source_path"`
	SourceDescription string        `yaml:"source_description"`
}

// Catalog is the generated asset listing
type Catalog struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// PathForManifest returns the catalog path next to a manifest
func PathForManifest(manifestPath string) string {
	return paths.CatalogPath(manifestPath)
}

// Load reads a catalog from disk
func Load(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apserrors.Newf(apserrors.ErrCatalogNotFound, "no catalog found at %s", path).
				WithHint("run `aps catalog generate` first")
		}
		return nil, apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to read catalog at %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(content, &c); err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrCatalogParse, "failed to parse catalog at %s", path)
	}
	return &c, nil
}

// Save writes the catalog to disk
func (c *Catalog) Save(path string) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return apserrors.Wrap(err, apserrors.ErrInternal, "failed to serialize catalog")
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to write catalog at %s", path)
	}
	return nil
}

// Generate enumerates every individual asset reachable from the
// manifest. Sources are resolved through the same adapters the engine
// uses, and any ephemeral storage is released before returning.
func Generate(ctx context.Context, m *manifest.Manifest, baseDir string) (*Catalog, error) {
	logger := logging.GetLogger("catalog")
	c := &Catalog{Version: CurrentVersion}

	for _, entry := range m.Entries {
		entries, err := enumerateEntry(ctx, entry, baseDir)
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, entries...)
	}

	logger.Info().Int("assets", len(c.Entries)).Int("manifestEntries", len(m.Entries)).Msg("Generated catalog")
	return c, nil
}

func enumerateEntry(ctx context.Context, entry manifest.Entry, baseDir string) ([]Entry, error) {
	adapter, err := source.ForEntry(entry)
	if err != nil {
		return nil, err
	}

	resolved, err := adapter.Resolve(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	defer resolved.Release()

	describe := entry.Source.DisplayName()

	if !entry.Kind.IsDirectory() {
		name := filepath.Base(resolved.Path)
		return []Entry{{
			ID:                fmt.Sprintf("%s:%s", entry.ID, name),
			ManifestEntryID:   entry.ID,
			Name:              name,
			Kind:              entry.Kind,
			SourcePath:        resolved.Path,
			SourceDescription: describe,
		}}, nil
	}

	names, err := listAssets(resolved.Path, entry.Include, entry.Kind.IsFanOut())
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{
			ID:                fmt.Sprintf("%s:%s", entry.ID, name),
			ManifestEntryID:   entry.ID,
			Name:              name,
			Kind:              entry.Kind,
			SourcePath:        filepath.Join(resolved.Path, name),
			SourceDescription: describe,
		})
	}
	return entries, nil
}

// listAssets returns the immediate children of dir that qualify as
// assets: folders for fan-out kinds, files otherwise. Include values act
// as name prefixes, matching the manifest's include semantics for
// discovery (installation filters by exact child name).
func listAssets(dir string, include []string, folders bool) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to read directory %s", dir)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() != folders || de.Name() == ".git" {
			continue
		}
		if len(include) > 0 && !matchesPrefix(de.Name(), include) {
			continue
		}
		names = append(names, de.Name())
	}

	sort.Strings(names)
	return names, nil
}

func matchesPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
