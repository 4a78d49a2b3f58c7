package engine

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/bamsammich/stow/internal/tree"
)

// HashContents computes the BLAKE3 hash of a file entry's content as read
// from t, returning the hex-encoded digest.
func HashContents(t tree.ReadTree, e tree.Entry) (string, error) {
	rc, err := t.FileContents(e)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", e.Apath(), err)
	}
	defer rc.Close()
	return hashReader(rc)
}

func hashReader(r io.Reader) (string, error) {
	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
