package runner

import (
	"github.com/ariel-frischer/draftspec/internal/filter"
	"github.com/ariel-frischer/draftspec/internal/middleware"
	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/specctx"
)

// ExecutionContext is the value threaded through the middleware pipeline
// (spec.md §3 SpecExecutionContext).
type ExecutionContext struct {
	Spec        *specctx.SpecDefinition
	Context     *specctx.SpecContext
	ContextPath []string
	HasFocused  bool
	Scratch     map[string]any
}

// Config configures one Runner invocation (spec.md §4.4).
type Config struct {
	MaxDegreeOfParallelism int
	Bail                   bool
	Middlewares            []middleware.Middleware
	Reporters              []reporter.Reporter
	Filters                []filter.Predicate
	// ExclusiveRun, when true and CacheDir non-empty, acquires the on-disk
	// run lock for the duration of Run (SPEC_FULL.md §4.4 "[ADDED]").
	ExclusiveRun bool
	CacheDir     string
	Logger       func(format string, args ...any)
}

func (c Config) parallelism() int {
	if c.MaxDegreeOfParallelism < 1 {
		return 1
	}
	return c.MaxDegreeOfParallelism
}

func (c Config) logger() func(format string, args ...any) {
	if c.Logger != nil {
		return c.Logger
	}
	return func(string, ...any) {}
}

// accepts reports whether every configured filter accepts spec.
func (c Config) accepts(path []string, s *specctx.SpecDefinition) bool {
	if len(c.Filters) == 0 {
		return true
	}
	fs := filter.Spec{
		Description: s.Description,
		ContextPath: path,
		SourceFile:  s.SourceFile,
		SourceLine:  s.SourceLine,
		Tags:        s.Tags,
	}
	for _, pred := range c.Filters {
		if !pred(fs) {
			return false
		}
	}
	return true
}
