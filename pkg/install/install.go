// Package install copies resolved source content into destinations,
// with a strategy per asset kind.
package install

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/source"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// Options carries the per-run installer knobs
type Options struct {
	// Strict upgrades skill-marker warnings to entry failures
	Strict bool

	// FollowSymlinks enables symlink traversal during copy; every
	// followed target is re-verified against the source root
	FollowSymlinks bool
}

// Install writes resolved content to destPath using the kind's strategy.
// It returns any non-fatal warnings (missing skill markers outside
// strict mode).
func Install(ctx context.Context, kind manifest.Kind, srcPath, destPath string, include []string, opts Options) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrCancelled, "install cancelled")
	}

	logger := logging.GetLogger("install")
	logger.Debug().Str("kind", string(kind)).Str("src", srcPath).Str("dest", destPath).Msg("Installing")

	switch {
	case kind.IsFanOut():
		return installFanOut(ctx, srcPath, destPath, include, opts)
	case kind.IsDirectory():
		return nil, overlayTree(ctx, srcPath, srcPath, destPath, opts)
	default:
		return nil, copyFile(srcPath, destPath)
	}
}

// installFanOut treats each immediate child directory of the source as
// an independent sub-item installed to destPath/<child-name>/. Marker
// validation runs for all children before any byte is copied, so strict
// mode fails whole entries, never half-copied ones.
func installFanOut(ctx context.Context, srcPath, destPath string, include []string, opts Options) ([]string, error) {
	children, err := FanOutChildren(srcPath, include)
	if err != nil {
		return nil, err
	}

	warnings, err := ValidateMarkers(srcPath, children, opts.Strict)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return warnings, apserrors.Wrap(err, apserrors.ErrCancelled, "install cancelled")
		}
		childSrc := filepath.Join(srcPath, child)
		childDest := filepath.Join(destPath, child)
		if err := overlayTree(ctx, srcPath, childSrc, childDest, opts); err != nil {
			return warnings, err
		}
	}

	return warnings, nil
}

// overlayTree copies a tree over destPath: files present in the source
// overwrite or create their destination counterparts, files absent from
// the source are left untouched. Symlinks are skipped unless the policy
// follows them, in which case every target is re-verified to stay within
// root before anything is read through it.
func overlayTree(ctx context.Context, root, srcPath, destPath string, opts Options) error {
	return filepath.WalkDir(srcPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return apserrors.Wrapf(walkErr, apserrors.ErrFileAccess, "cannot enumerate %s", srcPath)
		}
		if err := ctx.Err(); err != nil {
			return apserrors.Wrap(err, apserrors.ErrCancelled, "install cancelled")
		}

		rel, err := filepath.Rel(srcPath, path)
		if err != nil {
			return apserrors.Wrap(err, apserrors.ErrInternal, "cannot relativize copy path")
		}
		target := filepath.Join(destPath, rel)

		if d.Type()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				return nil
			}
			// Same containment rule as the resolver: a link target outside
			// the declared root rejects the entry, never silently skips it
			if err := source.VerifyContained(root, path); err != nil {
				return err
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot resolve symlink %s", path)
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot stat symlink target %s", resolved)
			}
			if info.IsDir() {
				return overlayTree(ctx, root, resolved, target, opts)
			}
			return copyFile(resolved, target)
		}

		if d.IsDir() {
			if d.Name() == ".git" && path != srcPath {
				return filepath.SkipDir
			}
			if err := os.MkdirAll(target, 0755); err != nil {
				return apserrors.Wrapf(err, apserrors.ErrDirCreate, "failed to create directory %s", target)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return copyFile(path, target)
	})
}

// copyFile copies one regular file, overwriting the destination.
// Executable permission bits on the source are preserved; on platforms
// without a permission model the chmod is a no-op.
func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot stat %s", srcPath)
	}

	if parent := filepath.Dir(destPath); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return apserrors.Wrapf(err, apserrors.ErrDirCreate, "failed to create destination directory %s", parent)
		}
	}

	mode := os.FileMode(0644)
	if info.Mode().Perm()&0111 != 0 {
		mode = 0755
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to open %s", srcPath)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to create %s", destPath)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to copy %s to %s", srcPath, destPath)
	}
	if err := out.Close(); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to copy %s to %s", srcPath, destPath)
	}

	// Overwriting an existing destination keeps its old mode; re-apply
	if err := os.Chmod(destPath, mode); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to set permissions on %s", destPath)
	}
	return nil
}
