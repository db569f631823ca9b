package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the compilation cache",
	Long:  `Manage the content-addressed compilation cache (C4) that the Script Host consults before recompiling a spec script.`,
}

var cacheListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List cached artefact entries",
	SilenceUsage: true,
	RunE:         runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:          "clear",
	Short:        "Remove every cached artefact",
	SilenceUsage: true,
	RunE:         runCacheClear,
}

func init() {
	cacheCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scriptsDir := filepath.Join(cfg.Cache.Directory, "scripts")
	entries, err := os.ReadDir(scriptsDir)
	if os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	out := cmd.OutOrStdout()
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta.yaml") {
			continue
		}
		fmt.Fprintln(out, strings.TrimSuffix(e.Name(), ".meta.yaml"))
		count++
	}
	fmt.Fprintf(out, "\n%d cached entries in %s\n", count, cfg.Cache.Directory)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Cache.Directory == "" {
		return fmt.Errorf("no cache directory configured")
	}
	if err := os.RemoveAll(cfg.Cache.Directory); err != nil {
		return fmt.Errorf("clearing cache directory %s: %w", cfg.Cache.Directory, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache at %s\n", cfg.Cache.Directory)
	return nil
}
