// Package watch implements draftspec's watch mode: it observes a set of
// script directories for source changes and invokes a callback once changes
// settle, so `draftspec run --watch` (config key `discover.watch`) can re-run
// its scripts without the user re-invoking the CLI by hand.
//
// Grounded on the teacher's internal/dag.LogTailer: the same fsnotify
// watcher-plus-ticker idiom (watch for events, poll as a backup so no event
// is silently missed), applied here to a directory tree of `.go` script
// files instead of a single log file, and collecting a changed-file set
// instead of streaming lines.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the Watcher waits after the last observed
// change before invoking the callback, so a save-and-formatters burst of
// writes collapses into a single re-run.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a set of root directories for changes to files matching
// Extensions and invokes a callback with the de-duplicated set of changed
// paths once no new change has arrived for Debounce.
type Watcher struct {
	Roots      []string
	Extensions []string
	Debounce   time.Duration

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	closed  bool
}

// New creates a Watcher over roots. extensions filters which file changes
// are considered (e.g. []string{".go"}); a nil/empty slice matches all files.
func New(roots []string, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		Roots:      roots,
		Extensions: extensions,
		Debounce:   DefaultDebounce,
		watcher:    fsw,
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

// addRecursive registers every directory under root with the watcher.
// fsnotify does not watch recursively on its own, so each directory the
// script tree contains needs its own Add call.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range w.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Run blocks, invoking onChange with the accumulated set of changed paths
// each time a debounce window elapses after at least one matching event.
// It returns when ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			pending[event.Name] = true
			timer.Reset(w.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]bool)
			onChange(changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
