package cli

import (
	"fmt"

	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/debbump/debbump/internal/health"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the tree and the tools a sync needs",
	Long: `Check that the work dir is a kernel tree with a packaging template and
that every external program the configured backends call is on PATH.

Exits with the environment exit code when a check fails.`,
	Example: `  debbump doctor
  debbump -C ~/src/linux doctor`,
	Args: noArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.GroupID = GroupInfo
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, dir, err := loadConfig()
	if err != nil {
		return err
	}

	report := health.RunHealthChecks(cfg, dir)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
	if !report.Passed {
		return clierrors.NewEnvironmentError("health checks failed",
			"Fix the failed checks above, or adjust the configuration with 'debbump config show'")
	}
	return nil
}
