// Package output provides terminal output formatting utilities shared by
// draftspec's CLI commands (run, discover, doctor). Kept deliberately small
// and dependency-light to avoid import cycles with internal/reporter.
// Grounded on the teacher's internal/output package: same fatih/color +
// golang.org/x/term styling idiom, with the agent-output framing replaced by
// spec-run framing (partition headers, script host invocations).
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintRunSeparator prints a colored separator marking the end of a run's
// streamed output. Uses dim magenta styling to create visual distinction
// from the spec output above it.
func PrintRunSeparator(out io.Writer) {
	termWidth := GetTerminalWidth()
	magenta := color.New(color.FgMagenta, color.Faint).SprintFunc()

	label := " draftspec "
	lineLen := (termWidth - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "\n%s%s%s\n", magenta(line), magenta(label), magenta(line))
}

// PrintPartitionHeader prints a colored header for a partition group about to
// run (e.g., "[Partition 1/4] api_test.go..."). Uses cyan for the partition
// indicator and white for the partition name.
func PrintPartitionHeader(out io.Writer, partitionNum, totalPartitions int, partitionName string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", cyan(fmt.Sprintf("[Partition %d/%d]", partitionNum, totalPartitions)), white(partitionName+"..."))
}

// PrintPartitionSuccess prints a colored success message for a partition that
// finished with no failures. Uses a green checkmark and cyan for the detail.
func PrintPartitionSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "%s %s\n\n", green("✓"), cyan(message))
}

// PrintExecutingCommand prints the Script Host command being shelled out to
// (the `go build -buildmode=plugin` invocation, or similar) with colored
// styling. Uses a magenta arrow and dim text for the command details.
func PrintExecutingCommand(out io.Writer, command string) {
	magenta := color.New(color.FgMagenta).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "\n%s %s\n\n", magenta("→ Executing:"), dim(command))
}
