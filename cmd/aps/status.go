package main

import (
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/pkg/lockfile"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display installed state from the lockfile",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manifestPath, err := manifest.Discover(manifestFlag)
			if err != nil {
				return err
			}

			lock, err := lockfile.Load(lockfile.PathForManifest(manifestPath))
			if err != nil {
				return err
			}

			if len(lock.Entries) == 0 {
				pterm.Info.Println("Lockfile is empty; nothing has been installed yet.")
				return nil
			}

			ids := make([]string, 0, len(lock.Entries))
			for id := range lock.Entries {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			rows := pterm.TableData{{"ID", "SOURCE", "REF", "DEST", "UPDATED", "CHECKSUM"}}
			for _, id := range ids {
				e := lock.Entries[id]
				ref := e.ResolvedRef
				if e.Commit != "" {
					ref = ref + "@" + short(e.Commit)
				}
				rows = append(rows, []string{
					id,
					e.Source,
					ref,
					e.Dest,
					e.LastUpdatedAt.Local().Format(time.DateTime),
					short(e.Checksum),
				})
			}

			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}

func short(s string) string {
	const n = 19 // "sha256:" + 12 hex chars
	if len(s) <= n {
		return s
	}
	return s[:n]
}
