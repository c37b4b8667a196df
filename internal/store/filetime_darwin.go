//go:build darwin

package store

import (
	"io/fs"
	"syscall"
)

// createdAt returns the file's birth time in milliseconds.
func createdAt(_ string, info fs.FileInfo) int64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st.Birthtimespec.Sec == 0 {
		return millis(info.ModTime())
	}
	return st.Birthtimespec.Sec*1000 +
		st.Birthtimespec.Nsec/1_000_000
}
