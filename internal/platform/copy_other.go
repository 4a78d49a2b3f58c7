//go:build !linux

package platform

// CopyFile falls back to read/write on platforms without a kernel copy.
// There is no portable way to preallocate, so the destination grows as
// it is written.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}
