// Package middleware implements the Middleware Pipeline (spec.md §4.5): a
// chain of decorators wrapped around a single spec's execution step, the
// same "wrap the executor" shape the teacher's dag.ParallelExecutor uses to
// layer concurrency control around a sequential Executor.
package middleware

import "context"

// Step is the innermost unit a middleware chain wraps: run one spec body and
// report whether it passed.
type Step func(ctx context.Context) error

// Middleware wraps a Step with additional behavior and returns a new Step.
type Middleware func(next Step) Step

// Sequence composes middlewares in registration order so the first
// registered is outermost (spec.md §4.5: "default order is Filter, then
// Retry, then Timeout" — each retry attempt gets its own fresh Timeout
// window because Timeout sits innermost, closest to the Step).
func Sequence(mws ...Middleware) Middleware {
	return func(final Step) Step {
		step := final
		for i := len(mws) - 1; i >= 0; i-- {
			step = mws[i](step)
		}
		return step
	}
}

// Apply runs final through the pipeline built from mws.
func Apply(ctx context.Context, final Step, mws ...Middleware) error {
	return Sequence(mws...)(final)(ctx)
}
