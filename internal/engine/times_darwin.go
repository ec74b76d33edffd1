//go:build darwin

package engine

import (
	"time"

	"golang.org/x/sys/unix"
)

// Darwin lacks UTIME_OMIT, so the current atime is read back and rewritten.
func setFileModTime(path string, mtime time.Time) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return err
	}
	times := []unix.Timespec{
		st.Atim,
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, times, 0)
}
