// Package filter implements composable spec predicates and deterministic
// partitioning (spec.md §4.8, C9).
package filter

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ariel-frischer/draftspec/internal/specctx"
)

// Spec is a predicate over one spec in context, the smallest surface filter
// needs without importing the runner.
type Spec struct {
	Description string
	// ContextPath holds the enclosing Describe/Context descriptions, outermost
	// first, not including Description itself (spec.md §4.8: filters.nameRegex
	// matches against contextPath + description joined).
	ContextPath []string
	SourceFile  string
	SourceLine  int
	Tags        specctx.TagSet
}

// fullPath joins a spec's context path and description the way spec.md
// §4.8/§6 define the string a name filter matches against.
func (s Spec) fullPath() string {
	if len(s.ContextPath) == 0 {
		return s.Description
	}
	return strings.Join(s.ContextPath, " > ") + " > " + s.Description
}

// Predicate reports whether a spec should run.
type Predicate func(Spec) bool

// And composes predicates so all must pass.
func And(preds ...Predicate) Predicate {
	return func(s Spec) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// TagInclude keeps specs carrying at least one of the given tags (OR within
// the include set, spec.md §4.8).
func TagInclude(tags ...string) Predicate {
	return func(s Spec) bool {
		if len(tags) == 0 {
			return true
		}
		for _, t := range tags {
			if s.Tags.Has(t) {
				return true
			}
		}
		return false
	}
}

// TagExclude rejects specs carrying any of the given tags.
func TagExclude(tags ...string) Predicate {
	return func(s Spec) bool {
		for _, t := range tags {
			if s.Tags.Has(t) {
				return false
			}
		}
		return true
	}
}

// regexBudget bounds regex evaluation to guard against catastrophic
// backtracking on adversarial patterns (spec.md §4.8: "a bounded evaluation
// budget"). Go's RE2-based regexp package is already linear-time and immune
// to catastrophic backtracking by construction, but user input could still
// supply a pathologically long description; the timeout is a backstop for
// that, not for backtracking per se.
const regexBudget = 50 * time.Millisecond

// DescriptionMatch keeps specs whose contextPath+description (spec.md §4.8
// "filters.nameRegex") matches pattern as an unanchored regular expression,
// so a pattern without metacharacters acts as a plain substring match. A
// pattern that does not compile is returned as an error. This lets a pattern
// target an enclosing group's description and match every spec nested under it.
func DescriptionMatch(pattern string) (Predicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(s Spec) bool {
		done := make(chan bool, 1)
		go func() { done <- re.MatchString(s.fullPath()) }()
		select {
		case matched := <-done:
			return matched
		case <-time.After(regexBudget):
			return false
		}
	}, nil
}

// PathGlob keeps specs whose SourceFile matches the glob pattern.
func PathGlob(pattern string) Predicate {
	return func(s Spec) bool {
		ok, err := filepath.Match(pattern, s.SourceFile)
		return err == nil && ok
	}
}

// ExactLocation keeps only the spec at file:line.
func ExactLocation(file string, line int) Predicate {
	return func(s Spec) bool {
		return s.SourceFile == file && s.SourceLine == line
	}
}

// Affected keeps specs whose SourceFile is reported changed by an external
// impact analyser (spec.md §4.8: "a per-context 'affected specs' filter can
// be supplied by an external impact analyser"; internal/gitimpact is the one
// concrete implementation wired into internal/cli).
func Affected(changed func(path string) bool) Predicate {
	return func(s Spec) bool {
		return changed(s.SourceFile)
	}
}
