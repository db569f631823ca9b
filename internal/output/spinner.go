package output

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// CompileSpinner wraps a terminal spinner shown while the Script Host
// compiles a spec script tree (SPEC_FULL.md §2 domain-stack table: "Progress
// spinner while a script host compiles a large script tree"). Listed in the
// teacher's go.mod but never wired to anything there; given an actual home
// here.
type CompileSpinner struct {
	s *spinner.Spinner
}

// NewCompileSpinner creates a spinner writing to out, suffixed with label.
// If out is not a terminal the spinner is a no-op (Start/Stop do nothing),
// so piping `draftspec run` output never receives spinner control codes.
func NewCompileSpinner(out io.Writer, label string) *CompileSpinner {
	f, ok := out.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return &CompileSpinner{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + label
	return &CompileSpinner{s: s}
}

// Start begins animating the spinner, if one was created.
func (c *CompileSpinner) Start() {
	if c.s != nil {
		c.s.Start()
	}
}

// Stop halts the spinner, if one was created.
func (c *CompileSpinner) Stop() {
	if c.s != nil {
		c.s.Stop()
	}
}
