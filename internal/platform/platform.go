// Package platform copies file content into local files using the fastest
// mechanism the operating system offers.
package platform

import (
	"io"
	"os"
)

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFileParams describes what to copy. Content is read from Src from its
// current position to EOF and written at DstFd's current position.
type CopyFileParams struct {
	DstFd *os.File
	// Src is the content. When it is an *os.File the kernel copy paths are
	// tried before falling back to read/write.
	Src io.Reader
	// Size is the expected length, used to preallocate the destination.
	// Zero or negative means unknown.
	Size int64
}
