package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/debbump/debbump/internal/config"
	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage debbump configuration",
	Long: `Manage debbump configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (DEBBUMP_*, nested keys joined with __)
  2. Project config (.debbump.yml in the work dir, or --config)
  3. User config (~/.config/debbump/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  debbump config show

  # Write a commented .debbump.yml
  debbump config init`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  noArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented .debbump.yml to the work dir",
	Args:  noArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.GroupID = GroupConfiguration
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return enc.Close()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ProjectConfigPath(workDir)
	if _, err := os.Stat(path); err == nil && !configForce {
		return clierrors.New(clierrors.Configuration,
			fmt.Sprintf("%s already exists", path),
			"Pass --force to overwrite it")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return clierrors.Wrap(err, clierrors.Filesystem)
	}

	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Filesystem, "writing config")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
