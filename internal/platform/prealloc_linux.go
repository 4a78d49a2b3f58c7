//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// preallocate reserves disk space for size bytes without changing the
// file's length, so a short copy leaves no zero padding. Errors are ignored
// as fallocate is not supported on all filesystems.
//
//nolint:gosec // G115: fd values are small non-negative integers
func preallocate(fd *os.File, size int64) {
	//nolint:errcheck // fallocate is advisory
	unix.Fallocate(int(fd.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
