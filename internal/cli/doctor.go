package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:          "doctor",
	Short:        "Check that the host can compile and run spec scripts",
	Long:         `Runs the Go toolchain, plugin buildmode, and cache directory checks the Script Host depends on.`,
	SilenceUsage: true,
	RunE:         runDoctor,
}

func init() {
	doctorCmd.GroupID = GroupDiagnostics
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	report := health.RunHealthChecks(cfg.Cache.Directory)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

	if !report.Passed {
		return fmt.Errorf("one or more health checks failed")
	}
	return nil
}
