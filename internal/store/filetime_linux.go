//go:build linux

package store

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// createdAt returns the file's birth time in milliseconds,
// falling back to its change time when the filesystem does not
// record one, and to mtime when statx is unavailable.
func createdAt(path string, info fs.FileInfo) int64 {
	var stx unix.Statx_t
	err := unix.Statx(
		unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW,
		unix.STATX_BTIME|unix.STATX_CTIME, &stx,
	)
	if err != nil {
		return millis(info.ModTime())
	}
	if stx.Mask&unix.STATX_BTIME != 0 && stx.Btime.Sec != 0 {
		return statxMillis(stx.Btime)
	}
	return statxMillis(stx.Ctime)
}

func statxMillis(ts unix.StatxTimestamp) int64 {
	return ts.Sec*1000 + int64(ts.Nsec)/1_000_000
}
