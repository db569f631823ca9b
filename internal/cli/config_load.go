package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/config"
)

// loadConfig resolves the effective Configuration for cmd, honoring the
// persistent --config flag as the project config path override.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	projectPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
