// Package backup snapshots destination content before a destructive
// overwrite. Backups are for human recovery only: the engine never reads
// them back.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

// timestampLayout gives backups minute granularity
const timestampLayout = "2006-01-02-1504"

// Create snapshots destPath into the backups root before any byte of the
// destination is overwritten. The backup name combines the sanitized
// destination path with a minute-granularity timestamp; a second backup
// of the same destination within the same minute gets a numeric suffix
// rather than overwriting the earlier snapshot.
func Create(baseDir, destPath string) (string, error) {
	logger := logging.GetLogger("backup")

	info, err := os.Lstat(destPath)
	if err != nil {
		return "", apserrors.Wrapf(err, apserrors.ErrBackupFailed, "cannot stat %s for backup", destPath)
	}

	backupRoot := paths.BackupRoot(baseDir)
	if err := os.MkdirAll(backupRoot, 0755); err != nil {
		return "", apserrors.Wrapf(err, apserrors.ErrBackupFailed, "failed to create backup directory at %s", backupRoot)
	}

	name := fmt.Sprintf("%s-%s", paths.SanitizeDestName(baseDir, destPath), time.Now().Format(timestampLayout))
	backupPath := filepath.Join(backupRoot, name)
	for i := 2; ; i++ {
		if _, err := os.Lstat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = filepath.Join(backupRoot, fmt.Sprintf("%s-%d", name, i))
	}

	if info.IsDir() {
		err = copyTree(destPath, backupPath)
	} else {
		err = copyVerbatim(destPath, backupPath)
	}
	if err != nil {
		// A partial snapshot must not look like a good one
		_ = os.RemoveAll(backupPath)
		return "", apserrors.Wrapf(err, apserrors.ErrBackupFailed, "failed to back up %s", destPath)
	}

	logger.Info().Str("dest", destPath).Str("backup", backupPath).Msg("Backed up destination")
	return backupPath, nil
}

// copyTree copies a directory verbatim, preserving file modes and
// recreating symlinks as symlinks
func copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
		default:
			if err := copyVerbatim(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyVerbatim copies a single regular file, preserving its mode bits
func copyVerbatim(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
