//go:build linux

package engine

import (
	"time"

	"golang.org/x/sys/unix"
)

func setFileModTime(path string, mtime time.Time) error {
	times := []unix.Timespec{
		{Nsec: unix.UTIME_OMIT},
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, times, 0)
}
