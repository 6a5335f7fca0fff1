//go:build linux

package storage

import (
	"time"

	"golang.org/x/sys/unix"
)

// statNode returns the storage identity and creation time of the file at abs.
// The identity is the inode number, which survives renames and in-place
// writes on the same filesystem. Birth time is reported only when the
// filesystem supports it.
func statNode(abs string) (uint64, time.Time, error) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, abs, 0, unix.STATX_INO|unix.STATX_BTIME, &stx); err != nil {
		return 0, time.Time{}, err
	}
	var ctime time.Time
	if stx.Mask&unix.STATX_BTIME != 0 {
		ctime = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
	return stx.Ino, ctime, nil
}
