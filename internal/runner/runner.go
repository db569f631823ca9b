// Package runner implements the Spec Runner (spec.md §4.4, C6): the tree
// walker that applies focus/skip/bail/parallelism semantics, drives the
// middleware pipeline over the terminal executor, and aggregates results
// into a RunReport while fanning out lifecycle events through the Reporter
// Bus.
package runner

import (
	"context"
	"sync/atomic"
	"time"

	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/specctx"
	"golang.org/x/sync/errgroup"
)

// run holds the mutable state threaded through one Run invocation: the bail
// flag, the reporter bus, and the accumulating result list.
type run struct {
	cfg     Config
	bus     *reporter.Bus
	bailed  atomic.Bool
	results []reporter.Result
}

// Run executes root under cfg, returning the aggregate RunReport (spec.md
// §3 RunReport, §4.4).
func Run(ctx context.Context, root *specctx.SpecContext, cfg Config) (reporter.Report, error) {
	if !root.Frozen() {
		specctx.Freeze(root)
	}

	if cfg.ExclusiveRun && cfg.CacheDir != "" {
		release, err := acquireLock(cfg.CacheDir)
		if err != nil {
			return reporter.Report{}, err
		}
		defer release()
	}

	r := &run{cfg: cfg, bus: reporter.New(cfg.logger(), cfg.Reporters...)}

	start := time.Now()
	r.bus.RunStarting(root.TotalSpecCount(), start)

	err := r.traverse(ctx, root, nil, root.HasFocusedDescendant())

	report := r.buildReport(time.Since(start))
	r.bus.RunCompleted(report)

	return report, err
}

// traverse implements the depth-first pre-order algorithm of spec.md §4.4
// "Traversal algorithm".
func (r *run) traverse(ctx context.Context, c *specctx.SpecContext, path []string, hasFocused bool) error {
	if err := ctx.Err(); err != nil {
		return draftspecerrors.Wrap(draftspecerrors.UserCancelled, err)
	}

	if r.bailed.Load() {
		r.skipSubtree(c, path, hasFocused) // skipSubtree appends c.Description itself
		return nil
	}

	if c.Description != "" {
		path = appendPath(path, c.Description)
	}

	hookFailed := false
	if c.BeforeAll != nil {
		if err := runHook(c.BeforeAll); err != nil {
			// Resolved Open Question (SPEC_FULL.md §4.4): a beforeAll failure
			// fails every direct spec in this context, it does not skip them.
			hookFailed = true
			r.failAllDirectSpecs(c, path, err)
		}
	}

	if !hookFailed {
		if err := r.runDirectSpecs(ctx, c, path, hasFocused); err != nil {
			return err
		}
	}

	for _, child := range c.Children {
		if err := r.traverse(ctx, child, path, hasFocused); err != nil {
			return err
		}
	}

	if c.AfterAll != nil {
		_ = runHook(c.AfterAll) // afterAll always runs; its own failure is not attributable to any single spec result here.
	}

	return nil
}

// skipSubtree emits Skipped for every spec in c and its descendants, used
// once bail has triggered (spec.md §4.4 "Bail").
func (r *run) skipSubtree(c *specctx.SpecContext, path []string, hasFocused bool) {
	if c.Description != "" {
		path = appendPath(path, c.Description)
	}
	for _, s := range c.Specs {
		r.record(reporter.Result{Spec: s, ContextPath: append([]string(nil), path...), Status: reporter.Skipped})
	}
	for _, child := range c.Children {
		r.skipSubtree(child, path, hasFocused)
	}
}

func (r *run) failAllDirectSpecs(c *specctx.SpecContext, path []string, cause error) {
	results := make([]reporter.Result, len(c.Specs))
	for i, s := range c.Specs {
		results[i] = reporter.Result{
			Spec:        s,
			ContextPath: append([]string(nil), path...),
			Status:      reporter.Failed,
			Failure:     &reporter.Failure{Kind: "Hook", Message: cause.Error()},
		}
	}
	r.recordBatch(results)
}

// preCheck implements spec.md §4.4 "Skip/Pending pre-check" plus the focus
// rule from "Focus semantics" plus the C9 filter predicates, all before any
// middleware runs.
func (r *run) preCheck(c *specctx.SpecContext, s *specctx.SpecDefinition, path []string, hasFocused bool) (reporter.Status, bool) {
	// Pending wins over every other pre-check (spec.md §3 "status == Pending
	// iff body absent"; Property 2 scopes the focus-skip to a non-focused,
	// non-pending spec; Property 3 requires a bodyless spec to yield Pending
	// regardless of focus).
	if s.IsPending() {
		return reporter.Pending, true
	}
	if hasFocused && !s.Focused {
		return reporter.Skipped, true
	}
	if s.Skipped {
		return reporter.Skipped, true
	}
	if !r.cfg.accepts(path, s) {
		return reporter.Skipped, true
	}
	return reporter.Passed, false
}

func (r *run) runDirectSpecs(ctx context.Context, c *specctx.SpecContext, path []string, hasFocused bool) error {
	n := len(c.Specs)
	if n == 0 {
		return nil
	}

	degree := r.cfg.parallelism()
	if degree <= 1 || n == 1 {
		for _, s := range c.Specs {
			if r.bailed.Load() {
				r.record(reporter.Result{Spec: s, ContextPath: append([]string(nil), path...), Status: reporter.Skipped})
				continue
			}
			if err := ctx.Err(); err != nil {
				return draftspecerrors.Wrap(draftspecerrors.UserCancelled, err)
			}
			res := r.runOne(ctx, c, s, path, hasFocused)
			r.record(res)
		}
		return nil
	}

	return r.runParallel(ctx, c, path, hasFocused, degree)
}

// runParallel runs a context's direct specs concurrently, preserving
// declaration order in the output and delivering one batch notification
// (spec.md §4.4 "Parallel execution").
func (r *run) runParallel(ctx context.Context, c *specctx.SpecContext, path []string, hasFocused bool, degree int) error {
	slots := make([]reporter.Result, len(c.Specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(degree)

	for i, s := range c.Specs {
		i, s := i, s
		g.Go(func() error {
			if r.bailed.Load() {
				slots[i] = reporter.Result{Spec: s, ContextPath: append([]string(nil), path...), Status: reporter.Skipped}
				return nil
			}
			slots[i] = r.runOne(gctx, c, s, path, hasFocused)
			if slots[i].Status == reporter.Failed && r.cfg.Bail {
				r.bailed.Store(true)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return draftspecerrors.Wrap(draftspecerrors.UserCancelled, err)
	}

	r.recordBatch(slots)
	return nil
}

// runOne applies the pre-check then, if executable, dispatches through the
// middleware pipeline and terminal executor.
func (r *run) runOne(ctx context.Context, c *specctx.SpecContext, s *specctx.SpecDefinition, path []string, hasFocused bool) reporter.Result {
	full := append([]string(nil), path...)

	if status, short := r.preCheck(c, s, full, hasFocused); short {
		return reporter.Result{Spec: s, ContextPath: full, Status: status}
	}

	ec := ExecutionContext{
		Spec:        s,
		Context:     c,
		ContextPath: full,
		HasFocused:  hasFocused,
		Scratch:     make(map[string]any),
	}

	res := dispatch(ctx, ec, r.cfg)
	res.ContextPath = full
	if res.Spec == nil {
		res.Spec = s
	}

	if res.Status == reporter.Failed && r.cfg.Bail {
		r.bailed.Store(true)
	}

	return res
}

func (r *run) record(res reporter.Result) {
	r.results = append(r.results, res)
	r.bus.SpecCompleted(res)
}

func (r *run) recordBatch(results []reporter.Result) {
	r.results = append(r.results, results...)
	r.bus.BatchCompleted(results)
}

// appendPath extends path with an extra element without risking the
// shared-backing-array aliasing hazard of a bare append across sibling
// contexts.
func appendPath(path []string, next string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = next
	return out
}

func (r *run) buildReport(duration time.Duration) reporter.Report {
	totals := map[reporter.Status]int{}
	for _, res := range r.results {
		totals[res.Status]++
	}
	return reporter.Report{Totals: totals, Duration: duration, Results: r.results}
}
