package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// runLock is the on-disk exclusive-run lock (SPEC_FULL.md §4.4 "[ADDED]
// Run-level locking"), adapted from the teacher's dag.RunLock: here there is
// exactly one lock per cache directory rather than one per overlapping spec
// set, since DraftSpec runs don't have inter-spec dependencies to track.
type runLock struct {
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

func lockPath(cacheDir string) string {
	return filepath.Join(cacheDir, "run.lock")
}

// acquireLock creates the exclusive-run lock file, reclaiming it first if
// the existing holder's PID is no longer running (mirrors dag.IsLockStale).
func acquireLock(cacheDir string) (release func(), err error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	path := lockPath(cacheDir)

	if existing, err := loadLock(path); err == nil && existing != nil {
		if !isLockStale(existing) {
			return nil, fmt.Errorf("another run (pid %d, started %s) holds the exclusive lock", existing.PID, existing.StartedAt)
		}
		_ = os.Remove(path)
	}

	lock := &runLock{PID: os.Getpid(), StartedAt: time.Now()}
	data, err := yaml.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("marshalling lock: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing lock: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("renaming lock into place: %w", err)
	}

	return func() { _ = os.Remove(path) }, nil
}

func loadLock(path string) (*runLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lock runLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

func isLockStale(lock *runLock) bool {
	if lock == nil {
		return true
	}
	process, err := os.FindProcess(lock.PID)
	if err != nil {
		return true
	}
	return process.Signal(syscall.Signal(0)) != nil
}
