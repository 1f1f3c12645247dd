package cli

import (
	"fmt"

	"github.com/debbump/debbump/internal/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show the tag and package descriptors of the tree",
	Long: `Show the three facts a sync combines: the git describe output of HEAD,
the current package version and the source package name, plus the version a
sync would produce.`,
	Example: `  debbump describe
  debbump -C ~/src/linux describe`,
	Args: noArgs,
	RunE: runDescribe,
}

func init() {
	describeCmd.GroupID = GroupPackaging
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := newSynchronizer(cfg, dir, nil).Describe(cmd.Context())
	if err != nil {
		return err
	}

	label := color.New(color.FgYellow).SprintFunc()
	value := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s  %s %s\n", label("tag:    "), value(d.Tag.String()),
		dim(fmt.Sprintf("(upstream %s, %d commits since %s)", d.Tag.Upstream, d.Tag.RevCount, d.Tag.Tag())))
	fmt.Fprintf(out, "%s  %s %s\n", label("package:"), value(d.Source), value(d.Package.String()))
	fmt.Fprintf(out, "%s  %s\n", label("next:   "), value(version.Synthesize(d.Tag, d.Package, cfg.Flavour)))
	return nil
}
