package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent draftspec run history",
	Long:  `Lists a log of recent draftspec run invocations with timestamp, command, spec target, exit code, and duration.`,
	// Grounded on the teacher's internal/cli/history.go: same flag surface
	// and filter/limit/clear semantics, retargeted at draftspec's history log.
	SilenceUsage: true,
	RunE:         runHistory,
}

func init() {
	historyCmd.GroupID = GroupDiagnostics
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("spec", "s", "", "filter by spec target")
	historyCmd.Flags().IntP("limit", "n", 0, "limit to last N entries (most recent)")
	historyCmd.Flags().BoolP("clear", "c", false, "clear all history")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stateDir := filepath.Join(cfg.Cache.Directory, "..", "state")

	clearFlag, _ := cmd.Flags().GetBool("clear")
	specFilter, _ := cmd.Flags().GetString("spec")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := filterHistoryEntries(histFile.Entries, specFilter, limit)
	if len(entries) == 0 {
		if specFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for spec %q.\n", specFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history available.")
		}
		return nil
	}

	displayHistoryEntries(cmd, entries)
	return nil
}

func filterHistoryEntries(entries []history.HistoryEntry, specFilter string, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry
	for _, entry := range entries {
		if specFilter == "" || entry.Spec == specFilter {
			result = append(result, entry)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

func displayHistoryEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

		exitCodeStr := fmt.Sprintf("%d", entry.ExitCode)
		if entry.ExitCode == 0 {
			exitCodeStr = green(exitCodeStr)
		} else {
			exitCodeStr = red(exitCodeStr)
		}

		spec := entry.Spec
		if spec == "" {
			spec = "-"
		}

		fmt.Fprintf(out, "%s  %-12s  %-30s  exit=%s  %s\n",
			cyan(timestamp), entry.Command, spec, exitCodeStr, entry.Duration)
	}
}
