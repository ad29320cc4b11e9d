package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// Filesystem resolves sources that live on the local filesystem.
// Environment-variable placeholders in root and path are expanded before
// use, and relative roots are joined onto the manifest directory.
type Filesystem struct {
	src manifest.Source
}

// NewFilesystem builds a filesystem adapter from a source descriptor
func NewFilesystem(src manifest.Source) *Filesystem {
	return &Filesystem{src: src}
}

// Type implements Adapter
func (f *Filesystem) Type() string { return manifest.SourceFilesystem }

// Display implements Adapter
func (f *Filesystem) Display() string { return f.src.DisplayName() }

// Resolve implements Adapter. No ephemeral storage is created, so the
// returned ResolvedSource's Release is a no-op.
func (f *Filesystem) Resolve(ctx context.Context, baseDir string) (*ResolvedSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrCancelled, "resolution cancelled")
	}

	logger := logging.GetLogger("source.filesystem")

	root := os.ExpandEnv(f.src.Root)
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}

	path := os.ExpandEnv(f.src.EffectivePath())
	srcPath := root
	if path != "." {
		srcPath = filepath.Join(root, path)
	}

	if _, err := os.Lstat(srcPath); err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrSourceUnreachable, "source path not found: %s", srcPath).
			WithHint("check the source root and path in the manifest")
	}

	// The declared path itself must not escape the declared root, and
	// when symlink following is enabled every resolved target must stay
	// inside it too. Enumeration-time checks happen again in the
	// installer; this rejects escapes before any content is read.
	if err := VerifyContained(root, srcPath); err != nil {
		return nil, err
	}
	if f.src.FollowSymlinks {
		if err := verifyTreeContained(root, srcPath); err != nil {
			return nil, err
		}
	}

	logger.Debug().Str("path", srcPath).Bool("followSymlinks", f.src.FollowSymlinks).Msg("Resolved filesystem source")

	return &ResolvedSource{
		Path:           srcPath,
		Display:        f.Display(),
		FollowSymlinks: f.src.FollowSymlinks,
	}, nil
}

// verifyTreeContained walks the tree and checks that every symlink
// target canonicalizes to a path inside root. A failure is never
// silently skipped.
func verifyTreeContained(root, tree string) error {
	info, err := os.Lstat(tree)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot stat %s", tree)
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(tree, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return apserrors.Wrapf(walkErr, apserrors.ErrFileAccess, "cannot enumerate %s", tree)
		}
		if d.Type()&os.ModeSymlink == 0 {
			return nil
		}
		return VerifyContained(root, path)
	})
}
