package reporter

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu       sync.Mutex
	started  bool
	specs    []Result
	batches  [][]Result
	finished *Report
}

func (r *recordingReporter) RunStarting(int, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

func (r *recordingReporter) SpecCompleted(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, res)
}

func (r *recordingReporter) BatchCompleted(results []Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, results)
}

func (r *recordingReporter) RunCompleted(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc := report
	r.finished = &rc
}

type panickyReporter struct{}

func (panickyReporter) RunStarting(int, time.Time)    { panic("boom") }
func (panickyReporter) SpecCompleted(Result)          { panic("boom") }
func (panickyReporter) BatchCompleted([]Result)       { panic("boom") }
func (panickyReporter) RunCompleted(Report)           { panic("boom") }

func TestBus_FansOutToAllReporters(t *testing.T) {
	t.Parallel()

	a := &recordingReporter{}
	b := &recordingReporter{}
	bus := New(nil, a, b)

	bus.RunStarting(3, time.Now())
	bus.SpecCompleted(Result{Status: Passed})
	bus.BatchCompleted([]Result{{Status: Passed}, {Status: Failed}})
	bus.RunCompleted(Report{Totals: map[Status]int{Passed: 1}})

	for _, r := range []*recordingReporter{a, b} {
		assert.True(t, r.started)
		require.Len(t, r.specs, 1)
		require.Len(t, r.batches, 1)
		require.NotNil(t, r.finished)
	}
}

func TestBus_SuppressesPanickingReporter(t *testing.T) {
	t.Parallel()

	var logged []string
	logger := func(format string, args ...any) { logged = append(logged, format) }

	good := &recordingReporter{}
	bus := New(logger, panickyReporter{}, good)

	assert.NotPanics(t, func() {
		bus.RunStarting(1, time.Now())
		bus.SpecCompleted(Result{})
		bus.BatchCompleted(nil)
		bus.RunCompleted(Report{})
	})

	assert.True(t, good.started)
	assert.NotEmpty(t, logged)
}

func TestConsole_WritesDotsAndSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.RunStarting(2, time.Now())
	c.SpecCompleted(Result{Status: Passed})
	c.SpecCompleted(Result{Status: Failed})
	c.RunCompleted(Report{Totals: map[Status]int{Passed: 1, Failed: 1}, Duration: time.Second})

	out := buf.String()
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "1 passed, 1 failed")
}
