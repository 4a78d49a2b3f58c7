package platform

import (
	"errors"
	"io"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies data through a pooled buffer.
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	var totalWritten int64
	for {
		n, rerr := params.Src.Read(buf)
		if n > 0 {
			w, werr := params.DstFd.Write(buf[:n])
			totalWritten += int64(w)
			if werr != nil {
				return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, werr
			}
		}
		if errors.Is(rerr, io.EOF) {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, nil
		}
		if rerr != nil {
			return CopyResult{BytesWritten: totalWritten, Method: ReadWrite}, rerr
		}
	}
}

// CopyReadWrite is the exported version for use by other packages during testing.
func CopyReadWrite(params CopyFileParams) (CopyResult, error) {
	return copyReadWrite(params)
}
