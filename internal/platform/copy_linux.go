//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// maxKernelChunk bounds a single copy_file_range or sendfile call.
const maxKernelChunk = 1 << 30

// CopyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	if params.Size > 0 {
		preallocate(params.DstFd, params.Size)
	}

	src, ok := params.Src.(*os.File)
	if !ok {
		return copyReadWrite(params)
	}

	result, err := copyFileRange(src, params.DstFd)
	if err == nil || !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(src, params.DstFd)
	if err == nil || !isFallbackErr(err) {
		return result, err
	}

	return copyReadWrite(params)
}

func copyFileRange(src, dst *os.File) (CopyResult, error) {
	var totalWritten int64
	for {
		n, err := unix.CopyFileRange(int(src.Fd()), nil, int(dst.Fd()), nil, maxKernelChunk, 0)
		if err != nil {
			if totalWritten == 0 {
				return CopyResult{}, err
			}
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		totalWritten += int64(n)
	}
	return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, nil
}

func copySendfile(src, dst *os.File) (CopyResult, error) {
	var totalWritten int64
	for {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), nil, maxKernelChunk)
		if err != nil {
			if totalWritten == 0 {
				return CopyResult{}, err
			}
			return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		totalWritten += int64(n)
	}
	return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, nil
}

// isFallbackErr returns true if err should trigger a fallback to the next copy strategy.
func isFallbackErr(err error) bool {
	switch err {
	case unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP:
		return true
	}
	// Also handle wrapped errors.
	if e, ok := err.(*os.PathError); ok {
		return isFallbackErr(e.Err)
	}
	return false
}
