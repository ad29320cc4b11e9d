package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/westonplatter/agentic-prompt-sync/internal/version"
	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
)

var (
	verbosity    int
	manifestFlag string

	rootCmd = &cobra.Command{
		Use:   "aps",
		Short: "Manifest-driven CLI for syncing agentic assets",
		Long: `aps syncs agentic assets (AGENTS.md files, Cursor rules, skill trees)
from git or filesystem sources into your repository in a safe, repeatable,
idempotent way: conflicts are detected, existing content is backed up
before any overwrite, and a lockfile makes unchanged pulls a no-op.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command and renders any error once, with its
// code and hint
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		renderError(err)
	}
	return err
}

func renderError(err error) {
	code := apserrors.CodeOf(err)
	if code != apserrors.ErrUnknown {
		pterm.Error.Printfln("%s %s", pterm.Error.MessageStyle.Sprint(string(code)), err.Error())
	} else {
		pterm.Error.Printfln("%s", err.Error())
	}
	if hint := apserrors.HintOf(err); hint != "" {
		pterm.Info.Printfln("hint: %s", hint)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&manifestFlag, "manifest", "", "Path to the manifest file (default: walk up from cwd)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newSuggestCmd())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aps version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}
