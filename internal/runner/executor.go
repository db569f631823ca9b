package runner

import (
	"context"
	"fmt"
	"time"

	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/specctx"
)

// executeSpec is the terminal executor (spec.md §4.6): runs the precomputed
// beforeEach chain, the spec body, then the afterEach chain, timing each and
// producing a reporter.Result. Called as the innermost Step of the
// middleware pipeline.
func executeSpec(_ context.Context, ec ExecutionContext) reporter.Result {
	result := reporter.Result{
		Spec:        ec.Spec,
		ContextPath: ec.ContextPath,
		Status:      reporter.Passed,
	}

	start := time.Now()
	for _, hook := range ec.Context.BeforeEachChain() {
		if err := runHook(hook); err != nil {
			result.BeforeEachDur = time.Since(start)
			result.Status = reporter.Failed
			result.Failure = &reporter.Failure{Kind: "Hook", Message: err.Error()}
			runAfterEachChain(&result, ec.Context.AfterEachChain())
			return result
		}
	}
	result.BeforeEachDur = time.Since(start)

	bodyStart := time.Now()
	if ec.Spec.Body != nil {
		if err := runBody(ec.Spec.Body); err != nil {
			result.Status = reporter.Failed
			result.Failure = &reporter.Failure{Kind: "Assertion", Message: err.Error()}
		}
	}
	result.BodyDuration = time.Since(bodyStart)

	runAfterEachChain(&result, ec.Context.AfterEachChain())
	return result
}

func runAfterEachChain(result *reporter.Result, chain []specctx.HookFunc) {
	start := time.Now()
	for _, hook := range chain {
		if err := runHook(hook); err != nil {
			result.Status = reporter.Failed
			result.Failure = &reporter.Failure{Kind: "Hook", Message: err.Error()}
		}
	}
	result.AfterEachDur = time.Since(start)
}

// runHook and runBody recover a panicking hook/body the same way
// scripthost.runDefine recovers a panicking Define, converting it into a
// regular error so one misbehaving spec can't crash the run.
func runHook(hook specctx.HookFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = draftspecerrors.New(draftspecerrors.HookFailure, panicMessage(r))
		}
	}()
	return hook()
}

func runBody(body specctx.BodyFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = draftspecerrors.New(draftspecerrors.SpecFailure, panicMessage(r))
		}
	}()
	return body()
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
