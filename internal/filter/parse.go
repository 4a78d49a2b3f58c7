package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile reads filter rules from a file and adds them to the chain.
// Format:
//   - pattern  → exclude
//   + pattern  → include
//   # comment  → skip
//   blank line → skip
//   no prefix  → exclude (rsync default)
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()
	return c.ReadRules(f, path)
}

// ReadRules adds the rules read from r, in LoadFile's format. name is used
// in error messages.
func (c *Chain) ReadRules(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		add := c.AddExclude
		pattern := line
		switch {
		case strings.HasPrefix(line, "+ "):
			add = c.AddInclude
			pattern = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "- "):
			pattern = strings.TrimSpace(line[2:])
		}

		if err := add(pattern); err != nil {
			return fmt.Errorf("filter file %s line %d: %w", name, lineNum, err)
		}
	}
	return scanner.Err()
}
