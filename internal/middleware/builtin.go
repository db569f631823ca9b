package middleware

import (
	"context"
	"time"

	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
)

// SpecInfo is the minimal spec identity builtin middlewares need to decide
// whether they apply, without depending on internal/specctx and risking an
// import cycle (spec.md §4.5: middlewares are "spec-metadata-aware but
// body-agnostic").
type SpecInfo struct {
	Description string
	Tags        map[string]bool
}

// Filter skips execution (returning nil, as a no-op pass) for any spec
// predicate rejects. Predicate receives the spec currently running from ctx
// via WithSpecInfo; a pipeline that never attaches one always runs the spec.
func Filter(predicate func(SpecInfo) bool) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context) error {
			if info, ok := specInfoFrom(ctx); ok && !predicate(info) {
				return nil
			}
			return next(ctx)
		}
	}
}

// Retry re-runs a failing Step up to attempts times (attempts total tries,
// so attempts=1 means no retry), waiting delay between attempts. Timeout
// sits inside Retry in the default pipeline order, so every attempt gets its
// own fresh deadline (spec.md §4.5).
func Retry(attempts int, delay time.Duration) Middleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next Step) Step {
		return func(ctx context.Context) error {
			var lastErr error
			for i := 0; i < attempts; i++ {
				if i > 0 && delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return draftspecerrors.Wrap(draftspecerrors.UserCancelled, ctx.Err())
					}
				}
				lastErr = next(ctx)
				if lastErr == nil {
					return nil
				}
				if draftspecerrors.Is(lastErr, draftspecerrors.UserCancelled) {
					return lastErr
				}
			}
			return lastErr
		}
	}
}

// Timeout fails the Step with a Timeout error if it does not return within d.
func Timeout(d time.Duration) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context) error {
			if d <= 0 {
				return next(ctx)
			}

			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- next(tctx) }()

			select {
			case err := <-done:
				return err
			case <-tctx.Done():
				return draftspecerrors.New(draftspecerrors.Timeout, "spec exceeded timeout").WithCause(tctx.Err())
			}
		}
	}
}

type specInfoKey struct{}

// WithSpecInfo attaches spec identity to ctx for Filter to consult.
func WithSpecInfo(ctx context.Context, info SpecInfo) context.Context {
	return context.WithValue(ctx, specInfoKey{}, info)
}

func specInfoFrom(ctx context.Context) (SpecInfo, bool) {
	info, ok := ctx.Value(specInfoKey{}).(SpecInfo)
	return info, ok
}
