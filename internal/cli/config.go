package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage draftspec configuration",
	Long: `Manage draftspec configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (DRAFTSPEC_*)
  2. Project config (.draftspec/config.yml)
  3. User config (~/.config/draftspec/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  draftspec config show

  # Set a configuration value in the project config
  draftspec config set run.max_parallelism 8

  # List every known configuration key
  draftspec config keys`,
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration",
	SilenceUsage: true,
	RunE:         runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:          "set <key> <value>",
	Short:        "Set a configuration value in the project config",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:          "keys",
	Short:        "List every known configuration key",
	SilenceUsage: true,
	RunE:         runConfigKeys,
}

func init() {
	configCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configKeysCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:\n")
	fmt.Fprintf(out, "  max_parallelism: %d\n", cfg.Run.MaxParallelism)
	fmt.Fprintf(out, "  bail: %t\n", cfg.Run.Bail)
	fmt.Fprintf(out, "  exclusive: %t\n", cfg.Run.Exclusive)
	fmt.Fprintf(out, "  retry_attempts: %d\n", cfg.Run.RetryAttempts)
	fmt.Fprintf(out, "  retry_delay: %s\n", cfg.Run.RetryDelay)
	fmt.Fprintf(out, "  timeout: %s\n", cfg.Run.Timeout)
	fmt.Fprintf(out, "  reporter: %s\n", cfg.Run.Reporter)
	fmt.Fprintf(out, "cache:\n")
	fmt.Fprintf(out, "  directory: %s\n", cfg.Cache.Directory)
	fmt.Fprintf(out, "  enabled: %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(out, "  lru_size: %d\n", cfg.Cache.LRUSize)
	fmt.Fprintf(out, "filters:\n")
	fmt.Fprintf(out, "  tags_include: %s\n", cfg.Filters.TagsInclude)
	fmt.Fprintf(out, "  tags_exclude: %s\n", cfg.Filters.TagsExclude)
	fmt.Fprintf(out, "  description: %s\n", cfg.Filters.Description)
	fmt.Fprintf(out, "  affected_since: %s\n", cfg.Filters.AffectedSince)
	fmt.Fprintf(out, "partition:\n")
	fmt.Fprintf(out, "  strategy: %s\n", cfg.Partition.Strategy)
	fmt.Fprintf(out, "discover:\n")
	fmt.Fprintf(out, "  watch: %t\n", cfg.Discover.Watch)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.ProjectConfigPath()
	}

	if err := config.SetConfigValue(path, key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
	return nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	keys := make([]string, 0, len(config.KnownKeys))
	for k := range config.KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	for _, k := range keys {
		schema := config.KnownKeys[k]
		fmt.Fprintf(out, "%-28s %-10s %s\n", k, schema.Type, schema.Description)
	}
	return nil
}
