//go:build unix

package util

import (
	"os"
	"strconv"
	"syscall"
)

// DeviceID returns an opaque identifier for the storage device holding path.
// Paths with equal device IDs share physical I/O bandwidth.
func DeviceID(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", false
	}

	return strconv.FormatUint(uint64(stat.Dev), 10), true
}

// FileIdent returns the (device, inode) pair identifying a file or directory.
// Two paths with the same ident are the same physical object, which is how
// symlink cycles are detected during a walk.
func FileIdent(info os.FileInfo) (dev uint64, ino uint64, ok bool) {
	stat, statOK := info.Sys().(*syscall.Stat_t)
	if !statOK {
		return 0, 0, false
	}
	return uint64(stat.Dev), stat.Ino, true
}
