package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrDataDirLocked is returned when another process already serves the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another shardex process")

// DataDirLock is a cross-process exclusive lock on a node's data directory.
type DataDirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDataDirLock creates an unlocked lock backed by the file at path.
func NewDataDirLock(path string) *DataDirLock {
	return &DataDirLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire takes the lock without blocking. It returns ErrDataDirLocked when the
// lock is held elsewhere.
func (l *DataDirLock) Acquire() error {
	if l.locked {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return ErrDataDirLocked
	}

	l.locked = true
	return nil
}

// Release drops the lock. Releasing an unlocked lock is a no-op.
func (l *DataDirLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *DataDirLock) Path() string {
	return l.path
}

// Locked reports whether this process holds the lock.
func (l *DataDirLock) Locked() bool {
	return l.locked
}
