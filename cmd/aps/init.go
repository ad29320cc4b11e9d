package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/paths"
)

func newInitCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new manifest file",
		Long: `Creates a starter manifest in the current directory (aps.yaml, or
aps.toml with --format toml) and adds the lockfile and backups directory
to .gitignore.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := paths.ManifestNameYAML
			switch strings.ToLower(format) {
			case "yaml":
			case "toml":
				name = paths.ManifestNameTOML
			default:
				return apserrors.Newf(apserrors.ErrInvalidSource, "unknown manifest format: %q", format).
					WithHint("valid formats are: yaml, toml")
			}

			manifestPath := manifestFlag
			if manifestPath == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to get current directory")
				}
				manifestPath = filepath.Join(cwd, name)
			}

			if _, err := os.Stat(manifestPath); err == nil {
				return apserrors.Newf(apserrors.ErrManifestExists, "manifest already exists at %s", manifestPath)
			}

			if err := manifest.Save(manifest.Example(), manifestPath); err != nil {
				return err
			}
			pterm.Success.Printfln("Created manifest at %s", manifestPath)

			return updateGitignore(paths.ManifestDir(manifestPath))
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Manifest format (yaml or toml)")
	return cmd
}

// updateGitignore appends the lockfile and backups directory to the
// repository's .gitignore when they are not already listed
func updateGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")
	wanted := []string{paths.LockfileName, paths.BackupDirName + "/"}

	existing, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to read .gitignore")
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# aps (agentic prompt sync)\n")
	for _, entry := range missing {
		b.WriteString(entry + "\n")
		pterm.Info.Printfln("Added %s to .gitignore", entry)
	}

	if err := os.WriteFile(gitignorePath, []byte(b.String()), 0644); err != nil {
		return apserrors.Wrap(err, apserrors.ErrFileAccess, "failed to write .gitignore")
	}
	return nil
}
