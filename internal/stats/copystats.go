package stats

import "fmt"

// CopyStats counts what a tree copy did. Values from individual file copies
// and from the destination's final flush are merged in with Add.
type CopyStats struct {
	Directories int64
	Files       int64
	Symlinks    int64
	UnknownKind int64
	Errors      int64

	// Content statistics reported by the destination.
	FileBytes          int64 // plaintext bytes of file content written
	Blocks             int64 // blocks newly written
	DeduplicatedBlocks int64 // blocks already present, not written again
	DeduplicatedBytes  int64
	CompressedBytes    int64 // bytes written to storage after compression
	IndexHunks         int64
}

// Add merges o into s.
func (s *CopyStats) Add(o CopyStats) {
	s.Directories += o.Directories
	s.Files += o.Files
	s.Symlinks += o.Symlinks
	s.UnknownKind += o.UnknownKind
	s.Errors += o.Errors
	s.FileBytes += o.FileBytes
	s.Blocks += o.Blocks
	s.DeduplicatedBlocks += o.DeduplicatedBlocks
	s.DeduplicatedBytes += o.DeduplicatedBytes
	s.CompressedBytes += o.CompressedBytes
	s.IndexHunks += o.IndexHunks
}

// Entries returns the number of entries copied or skipped by kind.
func (s CopyStats) Entries() int64 {
	return s.Directories + s.Files + s.Symlinks + s.UnknownKind
}

func (s CopyStats) String() string {
	return fmt.Sprintf(
		"dirs=%d files=%d symlinks=%d unknown=%d errors=%d bytes=%d blocks=%d dedup=%d",
		s.Directories, s.Files, s.Symlinks, s.UnknownKind, s.Errors,
		s.FileBytes, s.Blocks, s.DeduplicatedBlocks,
	)
}
