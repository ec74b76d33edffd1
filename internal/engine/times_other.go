//go:build !linux && !darwin

package engine

import (
	"os"
	"time"
)

func setFileModTime(path string, mtime time.Time) error {
	// A zero atime leaves it unchanged.
	return os.Chtimes(path, time.Time{}, mtime)
}
