// Package cli implements the debbump command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/debbump/debbump/internal/config"
	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/debbump/debbump/internal/logging"
	"github.com/debbump/debbump/internal/shell"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Command groups shown in help output.
const (
	GroupPackaging     = "packaging"
	GroupConfiguration = "configuration"
	GroupInfo          = "info"
)

var (
	configPath string
	debugFlag  bool
	logFormat  string
	noColor    bool
	workDir    string
)

// logger is set up by the root command before any subcommand runs.
var logger = zap.NewNop()

// newRunner builds the runner for external programs. Tests replace it.
var newRunner = func(dir string, log *zap.Logger) shell.Runner {
	runner := &shell.Exec{Dir: dir, Logger: log}
	if debugFlag {
		runner.Stdout = os.Stderr
		runner.Stderr = os.Stderr
	}
	return runner
}

var rootCmd = &cobra.Command{
	Use:   "debbump",
	Short: "Bump a Debian kernel packaging tree to the latest release tag",
	Long: `debbump synchronizes the Debian packaging of a kernel source tree with its git history.

It links debian to the packaging template, installs the build tools, reads the
latest release tag with git describe and the current package version from
debian/changelog, and prepends a changelog entry listing every commit since the
tag. Finally it regenerates debian/control and prepares the orig source.

Running debbump without a subcommand is the same as 'debbump sync'.

Source: https://github.com/debbump/debbump`,
	Example: `  # Bump the tree in the current directory
  debbump

  # Preview the changelog entry without touching anything
  debbump plan

  # Bump a tree elsewhere, without apt-get
  debbump -C ~/src/linux sync --skip-install

  # Show the tag and package descriptors
  debbump describe`,
	Args:              noArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupGlobals,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runSync,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupPackaging, Title: "Packaging:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
		&cobra.Group{ID: GroupInfo, Title: "Info:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default: .debbump.yml in the work dir)")
	flags.BoolVarP(&debugFlag, "debug", "d", false, "Debug logging and child process output")
	flags.StringVar(&logFormat, "log-format", logging.FormatConsole, "Log format: console or json")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&workDir, "dir", "C", ".", "Kernel source tree to operate on")

	addSyncFlags(rootCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})
}

// noArgs rejects positional arguments with an Argument error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return clierrors.NewArgumentErrorWithUsage(
			fmt.Sprintf("unexpected argument %q", args[0]), cmd.UseLine())
	}
	return nil
}

// setupGlobals configures colors and the logger for the running command.
func setupGlobals(cmd *cobra.Command, args []string) error {
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	log, err := logging.New(logging.Options{
		Debug:  debugFlag,
		Quiet:  logFormat == logging.FormatConsole,
		Format: logFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), "debbump --log-format console|json")
	}
	logger = log.With(zap.String("command", cmd.Name()))
	return nil
}

// loadConfig resolves the work dir and loads its configuration.
func loadConfig() (*config.Configuration, string, error) {
	dir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, "", clierrors.WrapWithMessage(err, clierrors.Argument, "resolving --dir")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, "", clierrors.NewArgumentErrorWithUsage(
			fmt.Sprintf("work dir %s is not a directory", dir), "debbump -C <path>")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{Dir: dir, ConfigPath: configPath})
	if err != nil {
		return nil, "", clierrors.WrapWithMessage(err, clierrors.Configuration, "loading configuration",
			"Check .debbump.yml or the file passed with --config",
			"Run 'debbump config show' to see the effective values")
	}
	logger.Debug("configuration loaded", zap.String("dir", dir), zap.String("git_backend", cfg.Git.Backend),
		zap.String("changelog_parser", cfg.Changelog.Parser))
	return cfg, dir, nil
}

// Execute runs the root command with a context cancelled on SIGINT and
// SIGTERM. Errors are printed before being returned; use ExitCode to map
// them to an exit status.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		clierrors.FprintError(rootCmd.ErrOrStderr(), err)
	}
	return err
}
