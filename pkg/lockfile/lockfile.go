// Package lockfile persists per-entry install state. The lockfile is
// what makes pulls idempotent: a stored checksum that still matches the
// source (or the remote commit, for git) means nothing to do.
package lockfile

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

// CurrentVersion is the lockfile format version
const CurrentVersion = 1

// Entry is the persisted record for one manifest entry. A record exists
// only for entries that have completed at least one successful install.
type Entry struct {
	Source        string    `yaml:"source"`
	Dest          string    `yaml:"dest"`
	ResolvedRef   string    `yaml:"resolved_ref,omitempty"`
	Commit        string    `yaml:"commit,omitempty"`
	LastUpdatedAt time.Time `yaml:"last_updated_at"`
	Checksum      string    `yaml:"checksum"`
}

// Lockfile maps entry ids to their persisted state
type Lockfile struct {
	Version int              `yaml:"version"`
	Entries map[string]Entry `yaml:"entries"`
}

// New returns an empty lockfile
func New() *Lockfile {
	return &Lockfile{
		Version: CurrentVersion,
		Entries: make(map[string]Entry),
	}
}

// PathForManifest returns the lockfile path next to a manifest
func PathForManifest(manifestPath string) string {
	return paths.LockfilePath(manifestPath)
}

// Load reads a lockfile from disk. A missing file yields
// LOCKFILE_NOT_FOUND (callers that tolerate it start fresh); unreadable
// or invalid content yields LOCKFILE_CORRUPT, which aborts the whole run
// since persisted state can no longer be trusted.
func Load(path string) (*Lockfile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apserrors.Newf(apserrors.ErrLockfileNotFound, "no lockfile found at %s", path).
				WithHint("run `aps pull` first to create a lockfile")
		}
		return nil, apserrors.Wrapf(err, apserrors.ErrLockfileCorrupt, "failed to read lockfile at %s", path)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(content, &lf); err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrLockfileCorrupt, "failed to parse lockfile at %s", path).
			WithHint("the lockfile is damaged; delete it and re-run `aps pull` to rebuild state")
	}
	if lf.Entries == nil {
		lf.Entries = make(map[string]Entry)
	}

	return &lf, nil
}

// LoadOrNew loads a lockfile, starting fresh when none exists yet.
// Corruption still fails.
func LoadOrNew(path string) (*Lockfile, error) {
	lf, err := Load(path)
	if err != nil {
		if apserrors.IsCode(err, apserrors.ErrLockfileNotFound) {
			logger := logging.GetLogger("lockfile")
			logger.Debug().Str("path", path).Msg("No existing lockfile, starting fresh")
			return New(), nil
		}
		return nil, err
	}
	return lf, nil
}

// Save writes the lockfile atomically: the content lands in a temporary
// file in the same directory and is renamed into place, so a
// cancellation mid-write never leaves a corrupt lockfile.
func (l *Lockfile) Save(path string) error {
	content, err := yaml.Marshal(l)
	if err != nil {
		return apserrors.Wrap(err, apserrors.ErrInternal, "failed to serialize lockfile")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".aps-lock-*")
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to create temporary lockfile in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to write lockfile")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to write lockfile")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to set lockfile permissions")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to move lockfile into place at %s", path)
	}

	logger := logging.GetLogger("lockfile")
	logger.Debug().Str("path", path).Int("entries", len(l.Entries)).Msg("Lockfile saved")
	return nil
}

// Get returns the record for an entry id
func (l *Lockfile) Get(id string) (Entry, bool) {
	e, ok := l.Entries[id]
	return e, ok
}

// Upsert stores the record for an entry id, overwriting in place
func (l *Lockfile) Upsert(id string, entry Entry) {
	l.Entries[id] = entry
}

// ChecksumMatches reports whether the stored checksum for id equals sum
func (l *Lockfile) ChecksumMatches(id, sum string) bool {
	e, ok := l.Entries[id]
	return ok && e.Checksum == sum
}
