package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/pkg/catalog"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the asset catalog",
		Long: `The catalog enumerates every individual asset the manifest syncs
(one record per file or skill folder). It feeds the suggest command and
is never consulted during pulls.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate the catalog from the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}
			if err := manifest.Validate(m); err != nil {
				return err
			}

			c, err := catalog.Generate(cmd.Context(), m, paths.ManifestDir(manifestPath))
			if err != nil {
				return err
			}

			catalogPath := catalog.PathForManifest(manifestPath)
			if err := c.Save(catalogPath); err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %d asset(s) to %s", len(c.Entries), catalogPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all cataloged assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}

			c, err := catalog.Load(catalog.PathForManifest(manifestPath))
			if err != nil {
				return err
			}

			rows := pterm.TableData{{"ID", "KIND", "SOURCE"}}
			for _, entry := range c.Entries {
				rows = append(rows, []string{entry.ID, string(entry.Kind), entry.SourceDescription})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	})

	return cmd
}
