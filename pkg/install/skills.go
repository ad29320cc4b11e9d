package install

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// MarkerFile is the marker every fan-out child is expected to carry
const MarkerFile = "SKILL.md"

// FanOutChildren lists the immediate child directories of a fan-out
// source, sorted for deterministic processing. When include is set, only
// the listed children are returned; a name in include that matches no
// child is not an error (the upstream may simply have dropped it).
func FanOutChildren(srcPath string, include []string) ([]string, error) {
	entries, err := os.ReadDir(srcPath)
	if err != nil {
		return nil, apserrors.Wrapf(err, apserrors.ErrFileAccess, "failed to read skills directory %s", srcPath)
	}

	wanted := make(map[string]struct{}, len(include))
	for _, name := range include {
		wanted[name] = struct{}{}
	}

	var children []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == ".git" {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[entry.Name()]; !ok {
				continue
			}
		}
		children = append(children, entry.Name())
	}

	sort.Strings(children)
	return children, nil
}

// ValidateMarkers checks each child for its marker file. Without strict
// mode a missing marker produces a warning and the copy proceeds; in
// strict mode it fails the whole entry.
func ValidateMarkers(srcPath string, children []string, strict bool) ([]string, error) {
	var warnings []string

	for _, child := range children {
		marker := filepath.Join(srcPath, child, MarkerFile)
		if _, err := os.Stat(marker); err == nil {
			continue
		}

		if strict {
			return nil, apserrors.Newf(apserrors.ErrSkillMarkerMissing, "skill %q is missing %s", child, MarkerFile).
				WithHint("add the marker file, exclude the skill via 'include:', or drop --strict")
		}
		warnings = append(warnings, fmt.Sprintf("skill %q is missing %s", child, MarkerFile))
	}

	return warnings, nil
}
