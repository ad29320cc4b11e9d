package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/pkg/catalog"
	"github.com/westonplatter/agentic-prompt-sync/pkg/config"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

func newSuggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <task description>",
		Short: "Suggest cataloged assets relevant to a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			_, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}

			if limit <= 0 {
				cfg, err := config.Load(paths.ManifestDir(manifestPath))
				if err != nil {
					return err
				}
				limit = cfg.SuggestLimit
			}

			c, err := catalog.Load(catalog.PathForManifest(manifestPath))
			if err != nil {
				return err
			}

			results := c.Search(query, limit)
			if len(results) == 0 {
				pterm.Info.Printfln("No matching assets found for %q.", query)
				pterm.Info.Println("Use `aps catalog list` to see all available assets.")
				return nil
			}

			pterm.Info.Printfln("Found %d relevant asset(s) for %q:", len(results), query)
			pterm.Println()
			for _, res := range results {
				pterm.Success.Printfln("%s  (%s, from %s)",
					res.Entry.Name, res.Entry.Kind, res.Entry.SourceDescription)
				pterm.Printfln("    manifest entry: %s", res.Entry.ManifestEntryID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of suggestions (default from config)")
	return cmd
}
