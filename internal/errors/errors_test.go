package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		kind Kind
		want string
	}{
		"script compilation": {ScriptCompilation, "ScriptCompilation"},
		"hook failure":       {HookFailure, "HookFailure"},
		"spec failure":       {SpecFailure, "SpecFailure"},
		"assertion failure":  {AssertionFailure, "AssertionFailure"},
		"timeout":            {Timeout, "Timeout"},
		"cache integrity":    {CacheIntegrity, "CacheIntegrity"},
		"reporter failure":   {ReporterFailure, "ReporterFailure"},
		"user cancelled":     {UserCancelled, "UserCancelled"},
		"unknown":            {Kind(99), "Unknown"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.kind.String())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Wrap(SpecFailure, nil))

	cause := errors.New("boom")
	wrapped := Wrap(SpecFailure, cause)
	require.NotNil(t, wrapped)
	assert.Equal(t, SpecFailure, wrapped.Kind)
	assert.ErrorIs(t, wrapped, cause)
}

func TestWithSource(t *testing.T) {
	t.Parallel()

	err := New(ScriptCompilation, "unexpected token").WithSource("spec/a.dspec.go", 12)
	assert.Equal(t, "spec/a.dspec.go", err.SourceFile)
	assert.Equal(t, 12, err.SourceLine)
	assert.Contains(t, err.Error(), "spec/a.dspec.go:12")
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 2")
	err := New(ScriptCompilation, "go build failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsAndAs(t *testing.T) {
	t.Parallel()

	var err error = New(CacheIntegrity, "missing artefact")
	assert.True(t, Is(err, CacheIntegrity))
	assert.False(t, Is(err, Timeout))

	require.NotNil(t, As(err))
	assert.Nil(t, As(errors.New("plain")))
}
