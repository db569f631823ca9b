// Package cache implements the content-addressed compilation cache (spec.md
// §4.2, §6): a disk-backed store of compiled script artefacts keyed on the
// framework version, the main script path, and the content hashes of every
// transitively included file, fronted by a small in-memory LRU for hot paths
// within a single process (spec.md §4.2 cache policies).
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	draftspecerrors "github.com/ariel-frischer/draftspec/internal/errors"
)

// FileHash pairs a contributing source path with its content hash.
type FileHash struct {
	Path string `yaml:"path"`
	Hash string `yaml:"hash"`
}

// Entry is the on-disk (and in-memory) cache record for one compiled script
// identity (spec.md §3 "Cache entry").
type Entry struct {
	Key              string     `yaml:"key"`
	MainPath         string     `yaml:"main_path"`
	Files            []FileHash `yaml:"files"`
	FrameworkVersion string     `yaml:"framework_version"`
	ArtefactPath     string     `yaml:"artefact_path"`
	DebugPath        string     `yaml:"debug_path,omitempty"`
	CreatedAt        time.Time  `yaml:"created_at"`
	SourceHash       string     `yaml:"source_hash"`
}

// Options configures a Cache.
type Options struct {
	// Directory is the cache root (host option cache.directory). Writes are
	// best-effort: if unwritable, Store silently no-ops (spec.md §4.2).
	Directory string
	// Enabled toggles the disk cache. The in-memory LRU is always consulted
	// regardless (spec.md §4.2: "in-memory cache always on").
	Enabled bool
	// LRUSize bounds the in-memory cache. Zero means a sane default.
	LRUSize int
	// Logger receives cache-integrity diagnostics (spec.md §7 CacheIntegrity);
	// nil disables logging.
	Logger func(format string, args ...any)
}

// Cache is the compilation cache described in spec.md §4.2.
type Cache struct {
	dir     string
	enabled bool
	logger  func(format string, args ...any)

	mu  sync.Mutex
	lru *lru
}

const defaultLRUSize = 64

// New creates a Cache from Options.
func New(opts Options) *Cache {
	size := opts.LRUSize
	if size <= 0 {
		size = defaultLRUSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = func(string, ...any) {}
	}
	return &Cache{
		dir:     opts.Directory,
		enabled: opts.Enabled,
		logger:  logger,
		lru:     newLRU(size),
	}
}

func (c *Cache) scriptsDir() string {
	return filepath.Join(c.dir, "scripts")
}

func (c *Cache) metaPath(key string) string {
	return filepath.Join(c.scriptsDir(), key+".meta.yaml")
}

// Lookup returns the cached Entry for key, or (nil, false) on any miss
// (not present, disabled, or a CacheIntegrity problem — spec.md §7: treated
// as a miss, and the stale entry is deleted).
func (c *Cache) Lookup(key string) (*Entry, bool) {
	c.mu.Lock()
	if e, ok := c.lru.get(key); ok {
		c.mu.Unlock()
		return e, true
	}
	c.mu.Unlock()

	if !c.enabled {
		return nil, false
	}

	entry, err := c.readEntry(key)
	if err != nil {
		c.logger("cache: treating %s as a miss: %v", key, err)
		c.deleteEntry(key)
		return nil, false
	}

	if !c.artefactsExist(entry) {
		c.logger("cache: artefact missing for %s, deleting stale entry", key)
		c.deleteEntry(key)
		return nil, false
	}

	c.mu.Lock()
	c.lru.put(key, entry)
	c.mu.Unlock()

	return entry, true
}

func (c *Cache) readEntry(key string) (*Entry, error) {
	data, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, draftspecerrors.Wrap(draftspecerrors.CacheIntegrity, err)
	}

	var entry Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, draftspecerrors.Wrap(draftspecerrors.CacheIntegrity, err)
	}

	return &entry, nil
}

func (c *Cache) artefactsExist(entry *Entry) bool {
	if entry.ArtefactPath == "" {
		return false
	}
	if _, err := os.Stat(entry.ArtefactPath); err != nil {
		return false
	}
	if entry.DebugPath != "" {
		if _, err := os.Stat(entry.DebugPath); err != nil {
			return false
		}
	}
	return true
}

func (c *Cache) deleteEntry(key string) {
	c.mu.Lock()
	c.lru.remove(key)
	c.mu.Unlock()

	_ = os.Remove(c.metaPath(key))
}

// Store persists entry to disk (best-effort — an unwritable cache directory
// is not fatal, spec.md §4.2 "Writes are best-effort") and always updates the
// in-memory LRU.
func (c *Cache) Store(entry *Entry) {
	c.mu.Lock()
	c.lru.put(entry.Key, entry)
	c.mu.Unlock()

	if !c.enabled {
		return
	}

	if err := os.MkdirAll(c.scriptsDir(), 0o755); err != nil {
		c.logger("cache: directory unwritable, skipping persist: %v", err)
		return
	}

	data, err := yaml.Marshal(entry)
	if err != nil {
		c.logger("cache: marshal failed, skipping persist: %v", err)
		return
	}

	path := c.metaPath(entry.Key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logger("cache: write failed, skipping persist: %v", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		c.logger("cache: rename failed, skipping persist: %v", err)
	}
}

// Matches reports whether a candidate file-hash set and framework version
// match the ones recorded in entry (spec.md §4.2 step 2: "matches by file-hash
// set and framework version").
func (entry *Entry) Matches(frameworkVersion string, files []FileHash) bool {
	if entry.FrameworkVersion != frameworkVersion {
		return false
	}
	if len(entry.Files) != len(files) {
		return false
	}

	want := make(map[string]string, len(files))
	for _, f := range files {
		want[f.Path] = f.Hash
	}
	for _, f := range entry.Files {
		if want[f.Path] != f.Hash {
			return false
		}
	}
	return true
}
