// Package cli wires draftspec's core packages (config, scripthost, cache,
// runner, filter, gitimpact, history, health, watch) into the `draftspec`
// command-line front end. Grounded on the teacher's internal/cli package:
// one cobra.Command per concern, a package-level rootCmd plus an Execute
// entry point, grouped help output, and the same exit-code taxonomy.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/version"
)

// Command groups, shown as headed sections in `draftspec --help`.
const (
	GroupExecution     = "execution"
	GroupConfiguration = "configuration"
	GroupDiagnostics   = "diagnostics"
)

var rootCmd = &cobra.Command{
	Use:   "draftspec",
	Short: "Execution core for a BDD-style specification framework",
	Long: `draftspec discovers, compiles, and runs BDD-style spec scripts.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (DRAFTSPEC_*)
  2. Project config (.draftspec/config.yml)
  3. User config (~/.config/draftspec/config.yml)
  4. Built-in defaults`,
	SilenceErrors: true,
	Version:       version.Version,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupExecution, Title: "Execution commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration commands:"},
		&cobra.Group{ID: GroupDiagnostics, Title: "Diagnostics commands:"},
	)
	rootCmd.PersistentFlags().String("config", "", "path to a project config file (overrides .draftspec/config.yml)")
}

// Execute runs the root command, printing any error to stderr. The return
// value is the caller's cue to exit non-zero: main exits with status 1 for
// any error, while `run` itself exits with ExitSpecFailures when specs fail.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
