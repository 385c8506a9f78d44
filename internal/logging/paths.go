package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.shardex/logs, falling back to the temp directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".shardex", "logs")
	}
	return filepath.Join(home, ".shardex", "logs")
}

// DefaultLogPath returns the node log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "shardex.log")
}
