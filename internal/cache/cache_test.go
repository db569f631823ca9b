package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeKey_Deterministic(t *testing.T) {
	t.Parallel()

	files := []FileHash{{Path: "b.dspec.go", Hash: "h2"}, {Path: "a.dspec.go", Hash: "h1"}}

	k1 := ComputeKey("go1.25", "main.dspec.go", files, "source")
	k2 := ComputeKey("go1.25", "main.dspec.go", []FileHash{{Path: "a.dspec.go", Hash: "h1"}, {Path: "b.dspec.go", Hash: "h2"}}, "source")

	assert.Equal(t, k1, k2, "key should be order-independent over file hash sets")
	assert.Len(t, k1, 16)
}

func TestComputeKey_ChangesWithContent(t *testing.T) {
	t.Parallel()

	files := []FileHash{{Path: "a.dspec.go", Hash: "h1"}}
	k1 := ComputeKey("go1.25", "main.dspec.go", files, "source-v1")
	k2 := ComputeKey("go1.25", "main.dspec.go", files, "source-v2")

	assert.NotEqual(t, k1, k2)
}

func TestCache_StoreAndLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(Options{Directory: dir, Enabled: true})

	artefact := filepath.Join(dir, "artefact.so")
	require.NoError(t, os.WriteFile(artefact, []byte("fake-plugin"), 0o644))

	entry := &Entry{
		Key:              "abc123",
		MainPath:         "main.dspec.go",
		Files:            []FileHash{{Path: "main.dspec.go", Hash: "h1"}},
		FrameworkVersion: "go1.25",
		ArtefactPath:     artefact,
		CreatedAt:        time.Now(),
	}
	c.Store(entry)

	got, ok := c.Lookup("abc123")
	require.True(t, ok)
	assert.Equal(t, entry.MainPath, got.MainPath)

	// A fresh Cache instance (empty LRU) must still find it on disk.
	c2 := New(Options{Directory: dir, Enabled: true})
	got2, ok2 := c2.Lookup("abc123")
	require.True(t, ok2)
	assert.Equal(t, entry.ArtefactPath, got2.ArtefactPath)
}

func TestCache_MissingArtefactIsTreatedAsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(Options{Directory: dir, Enabled: true})

	entry := &Entry{
		Key:              "missing",
		FrameworkVersion: "go1.25",
		ArtefactPath:     filepath.Join(dir, "does-not-exist.so"),
		CreatedAt:        time.Now(),
	}
	c.Store(entry)

	// Force a disk read by bypassing the LRU.
	c2 := New(Options{Directory: dir, Enabled: true})
	_, ok := c2.Lookup("missing")
	assert.False(t, ok)

	// The stale metadata file should have been deleted.
	_, err := os.Stat(filepath.Join(dir, "scripts", "missing.meta.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestCache_DisabledStillUsesInMemoryLRU(t *testing.T) {
	t.Parallel()

	c := New(Options{Directory: t.TempDir(), Enabled: false})

	entry := &Entry{Key: "k", FrameworkVersion: "go1.25"}
	c.Store(entry)

	got, ok := c.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "k", got.Key)
}

func TestEntry_Matches(t *testing.T) {
	t.Parallel()

	entry := &Entry{
		FrameworkVersion: "go1.25",
		Files:            []FileHash{{Path: "a.dspec.go", Hash: "h1"}},
	}

	assert.True(t, entry.Matches("go1.25", []FileHash{{Path: "a.dspec.go", Hash: "h1"}}))
	assert.False(t, entry.Matches("go1.26", []FileHash{{Path: "a.dspec.go", Hash: "h1"}}))
	assert.False(t, entry.Matches("go1.25", []FileHash{{Path: "a.dspec.go", Hash: "h2"}}))
	assert.False(t, entry.Matches("go1.25", nil))
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	l := newLRU(2)
	l.put("a", &Entry{Key: "a"})
	l.put("b", &Entry{Key: "b"})
	l.put("c", &Entry{Key: "c"}) // evicts "a"

	_, ok := l.get("a")
	assert.False(t, ok)

	_, ok = l.get("b")
	assert.True(t, ok)
	_, ok = l.get("c")
	assert.True(t, ok)
}
