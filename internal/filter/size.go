package filter

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KIB", 1 << 10},
	{"MIB", 1 << 20},
	{"GIB", 1 << 30},
	{"TIB", 1 << 40},
	{"B", 1},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
	{"T", 1 << 40},
}

// ParseSize parses a human-readable size string into bytes, such as a
// cache size from the config file.
// Supports: 100, 100B, 100K, 100M, 100G, 100T and the KiB forms
// (case-insensitive). Units are powers of 1024.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)
	multiplier := int64(1)
	numStr := s
	for _, suf := range sizeSuffixes {
		if strings.HasSuffix(upper, suf.suffix) {
			multiplier = suf.mult
			numStr = strings.TrimSpace(s[:len(s)-len(suf.suffix)])
			break
		}
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		return n * multiplier, nil
	}
	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	return int64(f * float64(multiplier)), nil
}
