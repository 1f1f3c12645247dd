package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/debbump/debbump/internal/bump"
	"github.com/debbump/debbump/internal/changelog"
	"github.com/debbump/debbump/internal/config"
	"github.com/debbump/debbump/internal/progress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	skipInstall bool
	dryRun      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bump the packaging tree to the latest release tag",
	Long: `Bump the packaging tree to the latest release tag.

Steps, in order:
  1. check that the work dir is the repository root (it must contain .ci)
  2. replace debian with a link to the packaging template
  3. install build tools (apt-get -y install kernel-wedge equivs)
  4. read git describe, the package version and the source name
  5. list the commits since the release tag
  6. write the new entry and the old changelog to debian/changelog-new
  7. rename debian/changelog-new over debian/changelog
  8. regenerate debian/control (its non-zero exit is ignored)
  9. run debian/rules orig

The new version is <upstream>-<flavour><commits>-<revision>, e.g. 5.4.0-tfw3-2
for tag v5.4.0 with 3 commits on top and package version 5.4.0-2.`,
	Example: `  # Full run, as root on a build host
  debbump sync

  # Development run without apt-get
  debbump sync --skip-install

  # Print the entry that would be written and stop
  debbump sync --dry-run`,
	Args: noArgs,
	RunE: runSync,
}

func init() {
	syncCmd.GroupID = GroupPackaging
	addSyncFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&skipInstall, "skip-install", false, "Do not install build dependencies")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned entry and stop before modifying the tree")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}

	var progressOut io.Writer
	if !dryRun {
		progressOut = cmd.ErrOrStderr()
	}
	s := newSynchronizer(cfg, dir, progressOut)
	entry, err := s.Run(cmd.Context(), bump.RunOptions{SkipInstall: skipInstall, DryRun: dryRun})
	if err != nil {
		return err
	}

	if dryRun {
		text, err := changelog.RenderString(entry)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%d changes)\n",
		green("Bumped"), entry.Source, entry.Version, len(entry.Changes))
	return nil
}

// newSynchronizer wires a Synchronizer for dir. Step progress is written to
// progressOut; nil disables it. Writers other than a terminal get plain lines.
func newSynchronizer(cfg *config.Configuration, dir string, progressOut io.Writer) *bump.Synchronizer {
	deps := bump.NewDeps(cfg, dir, newRunner(dir, logger), logger)
	if progressOut != nil {
		var caps progress.TerminalCapabilities
		if f, ok := progressOut.(*os.File); ok {
			caps = progress.DetectTerminalCapabilities(f)
		}
		if color.NoColor {
			caps.SupportsColor = false
		}
		deps.Progress = progress.NewReporter(progressOut, caps)
	}
	return bump.New(cfg, deps)
}
