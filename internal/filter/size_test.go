package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeBlockCache(t *testing.T) {
	cases := map[string]int64{
		"0":        0,
		"4096":     4096,
		"4096b":    4096,
		"64K":      64 << 10,
		"64kib":    64 << 10,
		"256MiB":   256 << 20,
		"256 m":    256 << 20,
		"2G":       2 << 30,
		"0.25G":    256 << 20,
		"1.5MiB":   3 << 19,
		" 8 KiB  ": 8 << 10,
		"1t":       1 << 40,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		require.NoError(t, err, "ParseSize(%q)", in)
		assert.Equal(t, want, got, "ParseSize(%q)", in)
	}
}

func TestParseSizeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "lots", "MiB", "-1K", "1.2.3M", "K2"} {
		_, err := ParseSize(in)
		assert.Error(t, err, "ParseSize(%q)", in)
	}
}
