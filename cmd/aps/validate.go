package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/pkg/engine"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate manifest and sources",
		Long: `Checks the manifest schema (unique ids, recognized kinds, well-formed
sources), then verifies each entry's source is reachable and reports
missing skill markers. Nothing is installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("Validating manifest at %s", manifestPath)

			if err := manifest.Validate(m); err != nil {
				return err
			}
			pterm.Success.Println("Schema validation passed")

			baseDir := paths.ManifestDir(manifestPath)
			results := engine.ValidateEntries(cmd.Context(), m, baseDir, strict)

			warnings := 0
			failures := 0
			for _, res := range results {
				switch {
				case res.Err != nil:
					failures++
					pterm.Error.Printfln("[FAIL] %s - %v", res.ID, res.Err)
				case len(res.Warnings) > 0:
					warnings += len(res.Warnings)
					pterm.Warning.Printfln("[WARN] %s (%s)", res.ID, res.Detail)
					for _, w := range res.Warnings {
						pterm.Warning.Printfln("       %s", w)
					}
				default:
					pterm.Success.Printfln("[OK] %s (%s)", res.ID, res.Detail)
				}
			}

			pterm.Println()
			switch {
			case failures > 0:
				return fmt.Errorf("validation failed for %d of %d entries", failures, len(results))
			case warnings > 0:
				pterm.Info.Printfln("Manifest is valid with %d warning(s).", warnings)
				if !strict {
					pterm.Info.Println("Run with --strict to treat warnings as errors.")
				}
			default:
				pterm.Success.Printfln("Manifest is valid. All %d entries validated successfully.", len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}
