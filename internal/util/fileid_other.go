//go:build !unix

package util

import "os"

// DeviceID returns an opaque identifier for the storage device holding path.
// On platforms without stat device numbers every path maps to one device.
func DeviceID(path string) (string, bool) {
	return "", false
}

// FileIdent is unavailable without stat device/inode numbers.
func FileIdent(info os.FileInfo) (dev uint64, ino uint64, ok bool) {
	return 0, 0, false
}
