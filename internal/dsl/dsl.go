// Package dsl is the ambient binding (spec.md §4.1, C2) that spec scripts
// import to declare describe/context/it/fit/xit/before/after/tag/withData
// calls. It keeps a package-level "current context" stack the way the
// best-known Go BDD frameworks do — Go has ordinary mutable package state, so
// unlike languages without it (spec.md §9), no explicit builder object needs
// to be threaded through the script.
//
// A script never calls Reset/Capture/Lock/Unlock itself; those are called by
// internal/scripthost immediately before and after invoking a compiled
// artefact's Define entry point, serializing execution the way spec.md §5
// requires ("an entire script is executed on one thread").
package dsl

import (
	"fmt"
	"sync"
	"text/template"
	"strings"

	"github.com/ariel-frischer/draftspec/internal/specctx"
)

var (
	mu      sync.Mutex // serializes Reset..Capture around one script's execution
	root    *specctx.SpecContext
	current *specctx.SpecContext
	caller  callerFunc
)

// callerFunc reports the source file/line of a DSL call site. Overridable in
// tests; production code uses runtime.Caller (see location.go).
type callerFunc func(skip int) (file string, line int)

func init() {
	caller = defaultCaller
}

// Lock acquires the package-level execution lock. Called by the Script Host
// before Reset.
func Lock() { mu.Lock() }

// Unlock releases the package-level execution lock. Called by the Script
// Host after Capture.
func Unlock() { mu.Unlock() }

// Reset discards any prior ambient state and starts a fresh synthetic root
// context. Must be called (under Lock) before invoking a script's Define
// function.
func Reset() {
	root = specctx.NewContext("", nil)
	current = root
}

// Capture returns the root built by the most recently executed script and
// clears the current context, so any later DSL call panics until the next
// Reset. Must be called (still under Lock) immediately after Define returns.
func Capture() *specctx.SpecContext {
	current = nil
	return root
}

// requireActive panics with a clear message if a DSL call happens outside a
// Reset/Capture bracket — this only happens if a script keeps a reference to
// a describe/it body and invokes it outside script execution, which is
// exactly the "re-entered concurrently" hazard spec.md §9 calls out.
func requireActive() {
	if current == nil {
		panic("draftspec/dsl: DSL called outside of script execution (Reset not called)")
	}
}

// Describe declares a named group. Synonym: Context.
func Describe(description string, body func()) {
	requireActive()

	file, line := caller(2)
	ctx := specctx.NewContext(description, current)
	ctx.Tags = make(specctx.TagSet) // locally-added only; Freeze adds inheritance
	_ = file
	_ = line

	parent := current
	parent.Children = append(parent.Children, ctx)

	current = ctx
	defer func() { current = parent }()

	body()
}

// Context is a synonym for Describe.
func Context(description string, body func()) {
	Describe(description, body)
}

// It declares a spec. A nil body means the spec is Pending.
func It(description string, body ...func() error) {
	requireActive()
	addSpec(description, bodyOf(body), false, false)
}

// FIt declares a focused spec.
func FIt(description string, body func() error) {
	requireActive()
	addSpec(description, body, true, false)
}

// XIt declares a skipped spec.
func XIt(description string, body ...func() error) {
	requireActive()
	addSpec(description, bodyOf(body), false, true)
}

func bodyOf(body []func() error) func() error {
	if len(body) == 0 {
		return nil
	}
	return body[0]
}

func addSpec(description string, body func() error, focused, skipped bool) *specctx.SpecDefinition {
	file, line := caller(3)

	// focused+skipped: skipped wins (spec.md §3 invariant).
	if skipped {
		focused = false
	}

	spec := &specctx.SpecDefinition{
		Description: description,
		Body:        body,
		Focused:     focused,
		Skipped:     skipped,
		Tags:        make(specctx.TagSet),
		SourceFile:  file,
		SourceLine:  line,
		Parent:      current,
	}
	current.Specs = append(current.Specs, spec)
	return spec
}

// Before sets the current context's beforeEach hook. Synonym for BeforeEach.
func Before(body func() error) { BeforeEach(body) }

// After sets the current context's afterEach hook. Synonym for AfterEach.
func After(body func() error) { AfterEach(body) }

// BeforeEach sets the current context's beforeEach hook. Assigning twice is
// an error (spec.md §4.1).
func BeforeEach(body func() error) {
	requireActive()
	if current.BeforeEach != nil {
		panic(fmt.Sprintf("draftspec/dsl: beforeEach already set for %q", current.Description))
	}
	current.BeforeEach = body
}

// AfterEach sets the current context's afterEach hook.
func AfterEach(body func() error) {
	requireActive()
	if current.AfterEach != nil {
		panic(fmt.Sprintf("draftspec/dsl: afterEach already set for %q", current.Description))
	}
	current.AfterEach = body
}

// BeforeAll sets the current context's beforeAll hook.
func BeforeAll(body func() error) {
	requireActive()
	if current.BeforeAll != nil {
		panic(fmt.Sprintf("draftspec/dsl: beforeAll already set for %q", current.Description))
	}
	current.BeforeAll = body
}

// AfterAll sets the current context's afterAll hook.
func AfterAll(body func() error) {
	requireActive()
	if current.AfterAll != nil {
		panic(fmt.Sprintf("draftspec/dsl: afterAll already set for %q", current.Description))
	}
	current.AfterAll = body
}

// Tag adds a single tag to the current context.
func Tag(name string) {
	requireActive()
	current.Tags.Add(name)
}

// Tags adds multiple tags to the current context.
func Tags(names ...string) {
	requireActive()
	for _, n := range names {
		current.Tags.Add(n)
	}
}

// WithData expands into one spec per row, templating description from each
// row's exported fields via text/template (see SPEC_FULL.md §9.3). factory is
// called once per row with that row, and must itself call It/FIt/XIt exactly
// once to register the generated spec.
func WithData[T any](descriptionTemplate string, rows []T, factory func(row T)) {
	requireActive()

	tmpl, err := template.New("withData").Parse(descriptionTemplate)
	if err != nil {
		panic(fmt.Sprintf("draftspec/dsl: invalid WithData description template: %v", err))
	}

	for i, row := range rows {
		before := len(current.Specs)
		factory(row)
		after := len(current.Specs)

		if after == before {
			continue // factory declined to register a spec for this row (rare)
		}

		var sb strings.Builder
		if execErr := tmpl.Execute(&sb, row); execErr == nil {
			spec := current.Specs[after-1]
			spec.Description = sb.String()
			spec.Row = &specctx.DataRow{Description: spec.Description, Index: i}
		}
	}
}
