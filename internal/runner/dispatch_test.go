package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/draftspec/internal/filter"
	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/specctx"
)

func TestRun_RetryMiddlewareRecoversFlakySpec(t *testing.T) {
	t.Parallel()

	calls := 0
	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs, &specctx.SpecDefinition{
		Description: "flaky",
		Tags:        specctx.NewTagSet(),
		Body: func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		},
	})
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{
		Middlewares: DefaultPipeline(3, 0, 0),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, reporter.Passed, report.Results[0].Status)
	assert.Equal(t, 3, calls)
}

func TestRun_TimeoutMiddlewareFailsSlowSpec(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs, &specctx.SpecDefinition{
		Description: "slow",
		Tags:        specctx.NewTagSet(),
		Body: func() error {
			time.Sleep(time.Second)
			return nil
		},
	})
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{
		Middlewares: DefaultPipeline(1, 0, 10*time.Millisecond),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, reporter.Failed, report.Results[0].Status)
	require.NotNil(t, report.Results[0].Failure)
	assert.Equal(t, "Timeout", report.Results[0].Failure.Kind)
}

func TestRun_TagFilterSkipsNonMatching(t *testing.T) {
	t.Parallel()

	root := specctx.NewContext("", nil)
	root.Specs = append(root.Specs,
		&specctx.SpecDefinition{Description: "a", Tags: specctx.NewTagSet("smoke"), Body: func() error { return nil }},
		&specctx.SpecDefinition{Description: "b", Tags: specctx.NewTagSet("slow"), Body: func() error { return nil }},
	)
	specctx.Freeze(root)

	report, err := Run(context.Background(), root, Config{
		Filters: []filter.Predicate{filter.TagInclude("smoke")},
	})
	require.NoError(t, err)

	byDesc := map[string]reporter.Status{}
	for _, r := range report.Results {
		byDesc[r.Spec.Description] = r.Status
	}
	assert.Equal(t, reporter.Passed, byDesc["a"])
	assert.Equal(t, reporter.Skipped, byDesc["b"])
}
