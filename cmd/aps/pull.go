package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/pkg/config"
	"github.com/westonplatter/agentic-prompt-sync/pkg/engine"
	"github.com/westonplatter/agentic-prompt-sync/pkg/lockfile"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

func newPullCmd() *cobra.Command {
	var (
		only   []string
		yes    bool
		dryRun bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull and install assets from manifest sources",
		Long: `Resolves every manifest entry, detects conflicts with existing
destination content, backs up anything that would be overwritten, and
installs the resolved content. Entries whose sources are unchanged are
skipped. One entry's failure does not block the others; the exit status
reflects whether any entry failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logging.LogDuration(time.Now(), "pull")

			m, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}
			if err := manifest.Validate(m); err != nil {
				return err
			}

			baseDir := paths.ManifestDir(manifestPath)

			cfg, err := config.Load(baseDir)
			if err != nil {
				return err
			}
			m.ApplyShallowDefault(cfg.Shallow)

			lockPath := lockfile.PathForManifest(manifestPath)
			lock, err := lockfile.LoadOrNew(lockPath)
			if err != nil {
				return err
			}

			opts := engine.Options{
				DryRun: dryRun,
				Yes:    yes || cfg.Yes,
				Strict: strict || cfg.Strict,
				Only:   only,
			}

			eng := engine.New(baseDir, lock, lockPath, opts)
			results, err := eng.Run(cmd.Context(), m)
			reportResults(results, dryRun)
			if err != nil {
				return err
			}

			if failed := engine.Summarize(results).Failed; failed > 0 {
				return fmt.Errorf("%d entr%s failed", failed, plural(failed, "y", "ies"))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&only, "only", nil, "Only pull specific entry IDs (can be repeated)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts and allow overwrites")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors (e.g., missing SKILL.md)")
	return cmd
}

func reportResults(results []engine.Result, dryRun bool) {
	for _, res := range results {
		switch res.Status {
		case engine.StatusFailed:
			renderError(res.Err)
			pterm.Error.Printfln("%s: failed", res.ID)
		case engine.StatusDeclined:
			pterm.Warning.Printfln("%s: overwrite declined, entry skipped", res.ID)
		default:
			line := fmt.Sprintf("%s: %s", res.ID, res.Status)
			if res.BackupPath != "" {
				line += fmt.Sprintf(" (backup at %s)", res.BackupPath)
			}
			if res.WouldBackup {
				line += " (would back up and overwrite existing content)"
			}
			pterm.Success.Printfln("%s", line)
		}
		for _, warning := range res.Warnings {
			pterm.Warning.Printfln("%s: warning: %s", res.ID, warning)
		}
	}

	s := engine.Summarize(results)
	pterm.Println()
	if dryRun {
		pterm.Info.Printfln("[dry-run] Would install %d entr%s, %d already up to date",
			s.Installed, plural(s.Installed, "y", "ies"), s.UpToDate)
	} else {
		pterm.Info.Printfln("Installed %d entr%s, %d already up to date",
			s.Installed, plural(s.Installed, "y", "ies"), s.UpToDate)
	}
	if s.Warnings > 0 {
		pterm.Warning.Printfln("%d warning(s) generated", s.Warnings)
	}
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
