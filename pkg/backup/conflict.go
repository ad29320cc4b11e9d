package backup

import (
	"os"

	"github.com/westonplatter/agentic-prompt-sync/pkg/checksum"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// IsConflict decides whether installing would destroy existing
// destination content.
//
// For single-file installs the destination conflicts only when it exists
// with different content than the candidate; logicalName is the name the
// candidate digest was computed under, so a renamed destination still
// compares content against content. For directory installs the rule is
// deliberately coarser: any existing non-empty directory is a conflict,
// content is not diffed.
func IsConflict(destPath string, directory bool, logicalName, candidateDigest string) (bool, error) {
	info, err := os.Lstat(destPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot stat destination %s", destPath)
	}

	if directory {
		if !info.IsDir() {
			// A file in the way of a directory install is always a conflict
			return true, nil
		}
		entries, err := os.ReadDir(destPath)
		if err != nil {
			return false, apserrors.Wrapf(err, apserrors.ErrFileAccess, "cannot read destination %s", destPath)
		}
		return len(entries) > 0, nil
	}

	if info.IsDir() {
		return true, nil
	}

	destDigest, err := checksum.FileNamed(destPath, logicalName)
	if err != nil {
		return false, err
	}
	return destDigest != candidateDigest, nil
}
