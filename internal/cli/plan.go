package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/debbump/debbump/internal/changelog"
	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the plan command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the changelog entry a sync would write",
	Long: `Print the changelog entry a sync would write, without modifying anything.

Only the read-only steps run: git describe, dpkg-parsechangelog and git log.
The debian link must already point at the packaging template.`,
	Example: `  # Entry in debian/changelog syntax
  debbump plan

  # Machine-readable
  debbump plan --format json`,
	Args: noArgs,
	RunE: runPlan,
}

func init() {
	planCmd.GroupID = GroupPackaging
	planCmd.Flags().StringVarP(&planFormat, "format", "f", FormatText, "Output format: text, yaml or json")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	switch planFormat {
	case FormatText, FormatYAML, FormatJSON:
	default:
		return clierrors.InvalidFormat(planFormat, FormatText, FormatYAML, FormatJSON)
	}

	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}

	entry, err := newSynchronizer(cfg, dir, nil).Plan(cmd.Context())
	if err != nil {
		return err
	}
	return writeEntry(cmd.OutOrStdout(), entry, planFormat)
}

func writeEntry(w io.Writer, entry *changelog.Entry, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encoding entry: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	default:
		return changelog.Render(entry, w)
	}
}
