package repository

import (
	"os"
	"path/filepath"
)

var repositoryDirs = []string{"data", "index", "keys", "locks", "snapshots"}

// IsDirectoryARepository reports whether dir looks like a local restic
// repository: a config file next to the data, index, keys, locks and
// snapshots directories.
func IsDirectoryARepository(dir string) bool {
	if fi, err := os.Stat(filepath.Join(dir, "config")); err != nil || fi.IsDir() {
		return false
	}
	for _, name := range repositoryDirs {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !fi.IsDir() {
			return false
		}
	}
	return true
}
