// Package checksum implements the content digest used for lockfile
// reconciliation. Digests are a pure function of sorted relative-path and
// content pairs, so identical trees hash identically regardless of the
// machine, filesystem, or enumeration order that produced them.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// Algorithm is the digest algorithm tag prefixed to every checksum
const Algorithm = "sha256"

// Digest computes the checksum of a file or directory tree.
//
// For a single file the digest covers the pair (base name, content).
// For a tree it covers every regular file under the root: relative paths
// are normalized to forward slashes, sorted lexicographically, and each
// (path, content) pair is fed to the hash with a NUL separator. Symlinks
// are never followed during enumeration, and .git directories are
// excluded since their contents vary between clones.
func Digest(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot stat %s for checksum", path)
	}

	h := sha256.New()

	if info.Mode().IsRegular() {
		if err := hashNamedFile(h, filepath.Base(path), path); err != nil {
			return "", err
		}
		return encode(h), nil
	}

	if !info.IsDir() {
		return "", apserrors.Newf(apserrors.ErrFileAccess, "cannot checksum %s: not a regular file or directory", path)
	}

	files, err := enumerate(path)
	if err != nil {
		return "", err
	}

	for _, rel := range files {
		if err := hashNamedFile(h, rel, filepath.Join(path, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
	}

	return encode(h), nil
}

// FileNamed computes a single-file checksum using an explicit logical
// name instead of the file's own base name. The engine uses this to
// re-measure an installed file whose destination name differs from the
// source name.
func FileNamed(path, name string) (string, error) {
	h := sha256.New()
	if err := hashNamedFile(h, name, path); err != nil {
		return "", err
	}
	return encode(h), nil
}

// Bytes computes the checksum of in-memory content under a logical name
func Bytes(name string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(filepath.ToSlash(name)))
	h.Write([]byte{0})
	h.Write(content)
	return encode(h)
}

// enumerate returns the sorted forward-slash relative paths of all
// regular files under root. Symlinks are skipped, .git is excluded.
func enumerate(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		// Symlinks and other non-regular files never contribute to the digest
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot enumerate %s for checksum", root)
	}

	sort.Strings(files)
	return files, nil
}

func hashNamedFile(h hash.Hash, name, path string) error {
	h.Write([]byte(filepath.ToSlash(name)))
	h.Write([]byte{0})

	f, err := os.Open(path)
	if err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot read %s for checksum", path)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err := io.Copy(h, f); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot read %s for checksum", path)
	}
	return nil
}

func encode(h hash.Hash) string {
	return fmt.Sprintf("%s:%x", Algorithm, h.Sum(nil))
}

// IsTagged reports whether s looks like an algorithm-tagged digest
func IsTagged(s string) bool {
	return strings.HasPrefix(s, Algorithm+":")
}
