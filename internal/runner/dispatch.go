package runner

import (
	"context"
	"errors"

	"github.com/ariel-frischer/draftspec/internal/middleware"
	"github.com/ariel-frischer/draftspec/internal/reporter"
)

// dispatch runs one spec's ExecutionContext through the configured
// middleware pipeline, adapting middleware.Step's plain-error contract to
// the terminal executor's richer reporter.Result (spec.md §4.3: middleware
// wraps "given a SpecExecutionContext and a next continuation, return a
// SpecResult" — realised here as a Step that closes over the last Result it
// produced, since Retry/Timeout only need pass/fail to decide whether to
// retry or abort).
func dispatch(ctx context.Context, ec ExecutionContext, cfg Config) reporter.Result {
	var last reporter.Result
	got := false

	step := func(ctx context.Context) error {
		last = executeSpec(ctx, ec)
		got = true
		if last.Status == reporter.Failed {
			if last.Failure != nil {
				return errors.New(last.Failure.Message)
			}
			return errors.New("spec failed")
		}
		return nil
	}

	pipeline := middleware.Sequence(cfg.Middlewares...)
	ctx = middleware.WithSpecInfo(ctx, middleware.SpecInfo{Description: ec.Spec.Description, Tags: tagMap(ec.Spec.Tags)})

	if err := pipeline(step)(ctx); err != nil && !got {
		// The pipeline short-circuited (e.g. Timeout expired) before the
		// terminal executor ever produced a result.
		last = reporter.Result{
			Spec:        ec.Spec,
			ContextPath: ec.ContextPath,
			Status:      reporter.Failed,
			Failure:     &reporter.Failure{Kind: "Timeout", Message: err.Error()},
		}
	}

	return last
}

func tagMap(tags map[string]struct{}) map[string]bool {
	out := make(map[string]bool, len(tags))
	for t := range tags {
		out[t] = true
	}
	return out
}
