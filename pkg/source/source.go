// Package source resolves manifest source descriptors into locally
// readable content, behind one adapter contract for all source types.
package source

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
)

// ResolvedSource is a locally readable representation of an entry's
// source, ready for checksumming and installation. When the resolution
// created ephemeral storage (a clone directory), the ResolvedSource owns
// it: Release must be called on every exit path and is safe to call more
// than once.
type ResolvedSource struct {
	// Path points at the ready-to-copy content
	Path string

	// Display is a human-readable source summary
	Display string

	// ResolvedRef and Commit are set for git sources
	ResolvedRef string
	Commit      string

	// FollowSymlinks mirrors the filesystem source policy
	FollowSymlinks bool

	releaseOnce sync.Once
	release     func()
}

// Release deletes any ephemeral storage held by the resolution. It runs
// at most once.
func (r *ResolvedSource) Release() {
	r.releaseOnce.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}

// Adapter resolves a declarative source descriptor into local content
type Adapter interface {
	// Type returns the source type discriminator ("git", "filesystem")
	Type() string

	// Display returns a human-readable name for logging and lockfile records
	Display() string

	// Resolve produces a ResolvedSource. baseDir is the manifest
	// directory, used to resolve relative roots.
	Resolve(ctx context.Context, baseDir string) (*ResolvedSource, error)
}

// RemoteIntrospector is implemented by adapters that can learn the
// remote's current commit without fetching content. The engine uses it
// for the no-clone fast path.
type RemoteIntrospector interface {
	// RemoteHead returns the resolved ref name and commit identifier
	RemoteHead(ctx context.Context) (ref string, commit string, err error)
}

// ForEntry builds the adapter for a manifest entry
func ForEntry(entry manifest.Entry) (Adapter, error) {
	switch entry.Source.Type {
	case manifest.SourceFilesystem:
		return NewFilesystem(entry.Source), nil
	case manifest.SourceGit:
		return NewGit(entry.Source), nil
	default:
		return nil, apserrors.Newf(apserrors.ErrInvalidSource, "invalid source type: %q", entry.Source.Type).
			WithHint("valid source types are: git, filesystem").
			WithDetail("entry", entry.ID)
	}
}

// VerifyContained canonicalizes target and verifies it remains within
// root. Symlinked or relative paths that escape the declared root fail
// with PATH_TRAVERSAL_REJECTED; this is a whole-run hard stop because it
// signals untrustworthy source content, not an isolated data problem.
func VerifyContained(root, target string) error {
	canonRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot canonicalize root %s", root)
	}
	canonTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot canonicalize %s", target)
	}

	rel, err := filepath.Rel(canonRoot, canonTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return apserrors.Newf(apserrors.ErrPathTraversal, "path %s escapes declared root %s", target, root).
			WithHint("remove the symlink or relative path pointing outside the source root")
	}
	return nil
}
