package install

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// ConfirmOverwrite asks whether an existing destination may be
// overwritten. With assumeYes the answer is always yes. On an
// interactive terminal the user is prompted (default no); declining is
// not an error, it just answers false. Without a terminal and without
// assumeYes the overwrite is refused with CONFLICT_NOT_CONFIRMED.
func ConfirmOverwrite(destPath string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return false, apserrors.Newf(apserrors.ErrConflictNotConfirmed,
			"existing content at %s requires confirmation to overwrite", destPath).
			WithHint("re-run with --yes to allow overwrites in non-interactive mode")
	}

	ok, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(fmt.Sprintf("Overwrite existing content at %s?", destPath))
	if err != nil {
		return false, apserrors.Wrap(err, apserrors.ErrCancelled, "confirmation prompt failed")
	}
	return ok, nil
}
