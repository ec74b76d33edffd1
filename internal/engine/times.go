package engine

import (
	"time"

	"github.com/spf13/afero"
)

// setModTime sets the modification time of path without touching its
// access time. On the real filesystem this goes through utimensat; other
// afero backends only offer Chtimes.
func setModTime(fs afero.Fs, path string, mtime time.Time) error {
	if _, ok := fs.(*afero.OsFs); ok {
		return setFileModTime(path, mtime)
	}
	info, err := fs.Stat(path)
	if err != nil {
		return err
	}
	// afero has no atime accessor; reuse the current mtime as a stand-in.
	return fs.Chtimes(path, info.ModTime(), mtime)
}
