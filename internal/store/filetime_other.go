//go:build !linux && !darwin

package store

import "io/fs"

// createdAt falls back to mtime where birth time is not exposed.
func createdAt(_ string, info fs.FileInfo) int64 {
	return millis(info.ModTime())
}
