// Package paths provides centralized path handling for aps: manifest,
// lockfile, catalog, and backup locations, plus name sanitization rules
// shared by the backup manager.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Well-known file and directory names.
// IMPORTANT: These define aps's on-disk contract and are NOT
// user-configurable. They must remain consistent across installations.
const (
	// ManifestNameYAML is the default manifest filename
	ManifestNameYAML = "aps.yaml"

	// ManifestNameTOML is the TOML manifest filename
	ManifestNameTOML = "aps.toml"

	// LockfileName is the lockfile filename, stored next to the manifest
	LockfileName = "aps.lock"

	// BackupDirName is the backups root, stored in the manifest directory
	BackupDirName = ".aps-backups"

	// CatalogName is the generated asset catalog filename
	CatalogName = "aps.catalog.yaml"

	// ConfigFileName is the optional tool configuration file
	ConfigFileName = ".aps.toml"
)

// ManifestDir returns the directory containing the manifest, used as the
// base for resolving relative source roots and destinations
func ManifestDir(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	if dir == "" {
		return "."
	}
	return dir
}

// LockfilePath returns the lockfile path for a given manifest path
func LockfilePath(manifestPath string) string {
	return filepath.Join(ManifestDir(manifestPath), LockfileName)
}

// CatalogPath returns the catalog path for a given manifest path
func CatalogPath(manifestPath string) string {
	return filepath.Join(ManifestDir(manifestPath), CatalogName)
}

// BackupRoot returns the backups root directory for a manifest base dir
func BackupRoot(baseDir string) string {
	return filepath.Join(baseDir, BackupDirName)
}

// SanitizeDestName flattens a destination path into a single backup
// directory name component. Separators become dashes so that nested
// destinations cannot collide with each other or escape the backups root.
func SanitizeDestName(baseDir, destPath string) string {
	rel, err := filepath.Rel(baseDir, destPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(destPath)
	}
	rel = strings.ReplaceAll(rel, "\\", "-")
	rel = strings.ReplaceAll(rel, "/", "-")
	return strings.Trim(rel, "-.")
}

// FindUp walks from startDir toward the filesystem root looking for any of
// the given names, stopping after a directory that contains .git (the
// repository boundary). Returns the first match or "".
func FindUp(startDir string, names ...string) string {
	current := startDir
	for {
		for _, name := range names {
			candidate := filepath.Join(current, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		// Stop at the repository boundary
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return ""
		}

		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
