// Package daemon manages the runtime files of a serving shardex node: the
// exclusive data directory lock and the PID file used by `shardex stop`.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	lockFileName = ".shardex.lock"
	pidFileName  = "shardex.pid"
)

// Paths locates the runtime files of a node serving DataDir.
type Paths struct {
	// DataDir is the catalog root.
	DataDir string
	// LockPath guards DataDir against a second node. Default: <DataDir>/.shardex.lock
	LockPath string
	// PIDPath holds the serving process id. Default: <DataDir>/shardex.pid
	PIDPath string
}

// PathsFor returns the runtime paths for dataDir.
func PathsFor(dataDir string) Paths {
	return Paths{
		DataDir:  dataDir,
		LockPath: filepath.Join(dataDir, lockFileName),
		PIDPath:  filepath.Join(dataDir, pidFileName),
	}
}

// Validate checks that every path is set.
func (p Paths) Validate() error {
	if p.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if p.LockPath == "" {
		return fmt.Errorf("lock path cannot be empty")
	}
	if p.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	return nil
}

// EnsureDir creates the data directory and the parents of the runtime files.
func (p Paths) EnsureDir() error {
	for _, dir := range []string{p.DataDir, filepath.Dir(p.LockPath), filepath.Dir(p.PIDPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
