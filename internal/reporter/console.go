package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Console is the minimal built-in reporter (spec.md §4.5 plus SPEC_FULL.md
// §4.5: exists only so cmd/ has something to pass by default — a dot per
// spec and one summary line, not a competitor to the dedicated console/HTML/
// JSON/JUnit/Markdown reporters named out-of-scope in spec.md §1). Styling
// follows the teacher's internal/output package: fatih/color for semantic
// colouring, no layout logic beyond what a single line needs.
type Console struct {
	out io.Writer
	mu  sync.Mutex

	pass    func(a ...any) string
	fail    func(a ...any) string
	skip    func(a ...any) string
	pending func(a ...any) string
	bold    func(a ...any) string
}

// NewConsole creates a Console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		pass:    color.New(color.FgGreen).SprintFunc(),
		fail:    color.New(color.FgRed, color.Bold).SprintFunc(),
		skip:    color.New(color.FgYellow).SprintFunc(),
		pending: color.New(color.FgCyan).SprintFunc(),
		bold:    color.New(color.Bold).SprintFunc(),
	}
}

// RunStarting implements Reporter.
func (c *Console) RunStarting(totalSpecs int, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %d specs\n", c.bold("Running"), totalSpecs)
}

// SpecCompleted implements Reporter.
func (c *Console) SpecCompleted(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.dot(result.Status))
}

// BatchCompleted implements Reporter.
func (c *Console) BatchCompleted(results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range results {
		fmt.Fprint(c.out, c.dot(r.Status))
	}
}

func (c *Console) dot(status Status) string {
	switch status {
	case Passed:
		return c.pass(".")
	case Failed:
		return c.fail("F")
	case Skipped:
		return c.skip("S")
	case Pending:
		return c.pending("P")
	default:
		return "?"
	}
}

// RunCompleted implements Reporter.
func (c *Console) RunCompleted(report Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n\n%s\n", c.summaryLine(report))

	for _, r := range report.Results {
		if r.Status != Failed || r.Failure == nil {
			continue
		}
		path := strings.Join(r.ContextPath, " > ")
		fmt.Fprintf(c.out, "%s %s: %s (%s)\n", c.fail("✗"), path, r.Spec.Description, r.Failure.Message)
	}
}

func (c *Console) summaryLine(report Report) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped, %d pending in %s",
		report.Totals[Passed], report.Totals[Failed], report.Totals[Skipped], report.Totals[Pending],
		report.Duration.Round(time.Millisecond))
}
