package runner

import (
	"time"

	"github.com/ariel-frischer/draftspec/internal/middleware"
)

// DefaultPipeline returns the default middleware order resolved in
// SPEC_FULL.md §4.3: Retry outside Timeout, so every retry attempt gets its
// own fresh timeout window. The Config.Filters predicates are applied as a
// Runner pre-check (see runner.go) rather than via middleware.Filter,
// because their effect — reject without invoking next — is identical and
// the Runner already performs an equivalent pre-check for focus/skip/
// pending; middleware.Filter remains available for callers assembling a
// custom pipeline directly.
func DefaultPipeline(retryAttempts int, retryDelay time.Duration, timeout time.Duration) []middleware.Middleware {
	var mws []middleware.Middleware
	if retryAttempts > 1 {
		mws = append(mws, middleware.Retry(retryAttempts, retryDelay))
	}
	if timeout > 0 {
		mws = append(mws, middleware.Timeout(timeout))
	}
	return mws
}
