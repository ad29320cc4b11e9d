// Package testutil provides small filesystem helpers shared by tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile creates rel (relative to root) with the given content,
// creating parent directories as needed, and returns the absolute path
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	return WriteFileMode(t, root, rel, content, 0644)
}

// WriteFileMode is WriteFile with an explicit file mode
func WriteFileMode(t *testing.T, root, rel, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

// ReadFile returns the content of path, failing the test on error
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

// MkDir creates rel (relative to root) and returns the absolute path
func MkDir(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}
