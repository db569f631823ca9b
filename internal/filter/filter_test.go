package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/draftspec/internal/specctx"
)

func tagSet(tags ...string) specctx.TagSet {
	ts := specctx.NewTagSet()
	for _, t := range tags {
		ts.Add(t)
	}
	return ts
}

func TestTagInclude_OrWithinSet(t *testing.T) {
	t.Parallel()

	pred := TagInclude("smoke", "fast")
	assert.True(t, pred(Spec{Tags: tagSet("fast")}))
	assert.False(t, pred(Spec{Tags: tagSet("slow")}))
}

func TestTagInclude_EmptyMeansAll(t *testing.T) {
	t.Parallel()
	assert.True(t, TagInclude()(Spec{Tags: tagSet()}))
}

func TestTagExclude_RejectsAny(t *testing.T) {
	t.Parallel()

	pred := TagExclude("slow")
	assert.False(t, pred(Spec{Tags: tagSet("slow", "smoke")}))
	assert.True(t, pred(Spec{Tags: tagSet("smoke")}))
}

func TestAnd_RequiresAllToPass(t *testing.T) {
	t.Parallel()

	pred := And(TagInclude("smoke"), TagExclude("slow"))
	assert.True(t, pred(Spec{Tags: tagSet("smoke")}))
	assert.False(t, pred(Spec{Tags: tagSet("smoke", "slow")}))
}

func TestDescriptionMatch_Regex(t *testing.T) {
	t.Parallel()

	pred, err := DescriptionMatch(`^login.*succeeds$`)
	require.NoError(t, err)
	assert.True(t, pred(Spec{Description: "login with valid credentials succeeds"}))
	assert.False(t, pred(Spec{Description: "logout works"}))
}

func TestDescriptionMatch_MatchesEnclosingContextDescription(t *testing.T) {
	t.Parallel()

	pred, err := DescriptionMatch("outer")
	require.NoError(t, err)
	assert.True(t, pred(Spec{ContextPath: []string{"outer"}, Description: "inner passes"}))
	assert.False(t, pred(Spec{ContextPath: []string{"unrelated"}, Description: "inner passes"}))
}

func TestPathGlob(t *testing.T) {
	t.Parallel()

	pred := PathGlob("specs/*.dspec.go")
	assert.True(t, pred(Spec{SourceFile: "specs/login.dspec.go"}))
	assert.False(t, pred(Spec{SourceFile: "other/login.dspec.go"}))
}

func TestExactLocation(t *testing.T) {
	t.Parallel()

	pred := ExactLocation("a.dspec.go", 12)
	assert.True(t, pred(Spec{SourceFile: "a.dspec.go", SourceLine: 12}))
	assert.False(t, pred(Spec{SourceFile: "a.dspec.go", SourceLine: 13}))
}

func TestAffected(t *testing.T) {
	t.Parallel()

	pred := Affected(func(path string) bool { return path == "changed.dspec.go" })
	assert.True(t, pred(Spec{SourceFile: "changed.dspec.go"}))
	assert.False(t, pred(Spec{SourceFile: "other.dspec.go"}))
}

func TestPartition_ByFile_IsDeterministicAndCovers(t *testing.T) {
	t.Parallel()

	files := []string{"c.dspec.go", "a.dspec.go", "b.dspec.go", "d.dspec.go"}
	k := 2

	var all []string
	for i := 0; i < k; i++ {
		r := Partition(files, StrategyFile, i, k)
		all = append(all, r.Files...)
	}

	assert.ElementsMatch(t, files, all, "every file must land in exactly one partition")

	r0a := Partition(files, StrategyFile, 0, k)
	r0b := Partition(files, StrategyFile, 0, k)
	assert.Equal(t, r0a.Files, r0b.Files, "partitioning must be deterministic")
}

func TestPartition_BySpecCount_BalancesLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	heavy := filepath.Join(dir, "heavy.dspec.go")
	light := filepath.Join(dir, "light.dspec.go")

	require.NoError(t, os.WriteFile(heavy, []byte(`
dsl.It("a", func() error { return nil })
dsl.It("b", func() error { return nil })
dsl.It("c", func() error { return nil })
`), 0o644))
	require.NoError(t, os.WriteFile(light, []byte(`dsl.It("a", func() error { return nil })`), 0o644))

	r0 := Partition([]string{heavy, light}, StrategySpecCount, 0, 2)
	r1 := Partition([]string{heavy, light}, StrategySpecCount, 1, 2)

	assert.Equal(t, 4, r0.TotalSpecs)
	assert.Equal(t, 4, r1.TotalSpecs)
	assert.Contains(t, r0.Files, heavy, "the heavier file should land in the first (emptiest) bucket")
}
