package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/staticparser"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [scripts...]",
	Short: "List the specs a script tree would run, without executing it",
	Long: `Statically parses each given script with the Static Parser (C8) and
prints the spec tree it declares, tolerating per-file parse failures rather
than aborting the whole discovery run.

If no scripts are given, every *_spec.go file under the current directory is
discovered.`,
	SilenceUsage: true,
	RunE:         runDiscover,
}

func init() {
	discoverCmd.GroupID = GroupExecution
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scripts, err := resolveScripts(args)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no spec scripts found")
	}

	results := staticparser.DiscoverFiles(scripts)

	out := cmd.OutOrStdout()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	total := 0
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(out, "%s %s: %s\n", red("✗"), r.Path, r.Error)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\n", r.Path)
		printNode(out, r.Root, 1)
		total += staticparser.TotalSpecs(r.Root)
	}

	fmt.Fprintf(out, "\n%s\n", dim(fmt.Sprintf("%d specs across %d files (%d failed to parse)", total, len(results), failed)))
	return nil
}

func printNode(out io.Writer, n *staticparser.Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	for _, child := range n.Children {
		fmt.Fprintf(out, "%s%s\n", indent, child.Description)
		printNode(out, child, depth+1)
	}
	for _, spec := range n.Specs {
		marker := "-"
		if spec.Focused {
			marker = "*"
		} else if spec.Skipped {
			marker = "x"
		} else if spec.Pending {
			marker = "?"
		}
		fmt.Fprintf(out, "%s%s %s (%s:%d)\n", indent, marker, spec.Description, spec.SourceFile, spec.SourceLine)
	}
}
