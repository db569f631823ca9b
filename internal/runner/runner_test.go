package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/specctx"
)

func passingSpec(desc string) *specctx.SpecDefinition {
	return &specctx.SpecDefinition{Description: desc, Body: func() error { return nil }, Tags: specctx.NewTagSet()}
}

func failingSpec(desc string) *specctx.SpecDefinition {
	return &specctx.SpecDefinition{Description: desc, Body: func() error { return errors.New("boom") }, Tags: specctx.NewTagSet()}
}

func TestRun_SequentialOrderAndStatuses(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs, passingSpec("a"), failingSpec("b"))
	root.Specs = append(root.Specs, &specctx.SpecDefinition{Description: "c", Tags: specctx.NewTagSet()}) // pending
	root.Specs = append(root.Specs, &specctx.SpecDefinition{Description: "d", Skipped: true, Tags: specctx.NewTagSet()})
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Equal(t, reporter.Passed, report.Results[0].Status)
	assert.Equal(t, reporter.Failed, report.Results[1].Status)
	assert.Equal(t, reporter.Pending, report.Results[2].Status)
	assert.Equal(t, reporter.Skipped, report.Results[3].Status)
}

func TestRun_HookOrdering(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) func() error {
		return func() error { order = append(order, name); return nil }
	}

	outer := specctx.NewContext("outer", nil)
	outer.BeforeEach = trace("oBefore")
	outer.AfterEach = trace("oAfter")

	inner := specctx.NewContext("inner", outer)
	inner.BeforeEach = trace("iBefore")
	inner.AfterEach = trace("iAfter")
	outer.Children = append(outer.Children, inner)

	inner.Specs = append(inner.Specs, &specctx.SpecDefinition{
		Description: "x", Tags: specctx.NewTagSet(),
		Body: trace("spec"),
	})

	root := specctx.NewContext("", nil)
	root.Children = append(root.Children, outer)
	specctx.Freeze(root)

	_, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)

	assert.Equal(t, []string{"oBefore", "iBefore", "spec", "iAfter", "oAfter"}, order)
}

func TestRun_FocusSkipsNonFocused(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs,
		passingSpec("normal"),
		&specctx.SpecDefinition{Description: "focused", Focused: true, Body: func() error { return nil }, Tags: specctx.NewTagSet()},
	)
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)

	byDesc := map[string]reporter.Status{}
	for _, r := range report.Results {
		byDesc[r.Spec.Description] = r.Status
	}
	assert.Equal(t, reporter.Skipped, byDesc["normal"])
	assert.Equal(t, reporter.Passed, byDesc["focused"])
}

func TestRun_PendingWinsOverFocusElsewhere(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs,
		&specctx.SpecDefinition{Description: "focused", Focused: true, Body: func() error { return nil }, Tags: specctx.NewTagSet()},
		&specctx.SpecDefinition{Description: "pending", Tags: specctx.NewTagSet()}, // no body, non-focused
	)
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)

	byDesc := map[string]reporter.Status{}
	for _, r := range report.Results {
		byDesc[r.Spec.Description] = r.Status
	}
	assert.Equal(t, reporter.Passed, byDesc["focused"])
	assert.Equal(t, reporter.Pending, byDesc["pending"], "a bodyless spec must report Pending even when focus is active elsewhere")
}

func TestRun_BeforeAllFailureFailsDirectSpecs(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.BeforeAll = func() error { return errors.New("setup failed") }
	root.Specs = append(root.Specs, passingSpec("a"), passingSpec("b"))
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	for _, r := range report.Results {
		assert.Equal(t, reporter.Failed, r.Status)
		require.NotNil(t, r.Failure)
		assert.Equal(t, "Hook", r.Failure.Kind)
	}
}

func TestRun_AfterAllAlwaysRuns(t *testing.T) {
	t.Parallel()

	ranAfterAll := false
	root := specctx.NewContext("", nil)
	root.AfterAll = func() error { ranAfterAll = true; return nil }
	root.Specs = append(root.Specs, failingSpec("a"))
	specctx.Freeze(root)

	_, err := Run(context.Background(), root, Config{})
	require.NoError(t, err)
	assert.True(t, ranAfterAll)
}

func TestRun_BailSkipsRemainingAfterFirstFailure(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs, failingSpec("a"), passingSpec("b"), passingSpec("c"))
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{Bail: true})
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, reporter.Failed, report.Results[0].Status)
	assert.Equal(t, reporter.Skipped, report.Results[1].Status)
	assert.Equal(t, reporter.Skipped, report.Results[2].Status)
}

func TestRun_ParallelPreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	for i := 0; i < 20; i++ {
		desc := string(rune('a' + i))
		delay := time.Duration(20-i) * time.Millisecond
		root.Specs = append(root.Specs, &specctx.SpecDefinition{
			Description: desc,
			Tags:        specctx.NewTagSet(),
			Body: func() error {
				time.Sleep(delay)
				return nil
			},
		})
	}
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{MaxDegreeOfParallelism: 8})
	require.NoError(t, err)

	require.Len(t, report.Results, 20)
	for i, r := range report.Results {
		assert.Equal(t, string(rune('a'+i)), r.Spec.Description)
	}
}

func TestRun_ExternalCancellationPropagates(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	inner := specctx.NewContext("inner", root)
	root.Children = append(root.Children, inner)
	inner.Specs = append(inner.Specs, passingSpec("a"))
	specctx.Freeze(root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, root, Config{})
	require.Error(t, err)
}
