package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledPattern is a glob compiled to a regexp over slash-separated paths
// relative to the tree root.
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	anchored bool // pattern starts with / or contains one
	dirOnly  bool // pattern ends with /
}

// compilePattern converts an rsync-style glob into a compiled matcher.
//
// A leading "/" anchors the pattern at the tree root, as does any "/"
// inside it. Unanchored patterns match the final name or any trailing run
// of components. A trailing "/" restricts the pattern to directories.
func compilePattern(pattern string) (*compiledPattern, error) {
	if pattern == "" || pattern == "/" {
		return nil, fmt.Errorf("empty pattern")
	}
	cp := &compiledPattern{original: pattern}

	body := pattern
	if strings.HasSuffix(body, "/") {
		cp.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}
	if strings.HasPrefix(body, "/") {
		cp.anchored = true
		body = strings.TrimPrefix(body, "/")
	} else if strings.Contains(body, "/") {
		cp.anchored = true
	}

	reStr := globToRegex(body)
	if cp.anchored {
		reStr = "^" + reStr + "$"
	} else {
		reStr = "(^|/)" + reStr + "$"
	}

	re, err := regexp.Compile(reStr)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	cp.re = re
	return cp, nil
}

func (cp *compiledPattern) String() string { return cp.original }

// match tests whether a root-relative path matches this pattern.
func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(relPath)
}

// globToRegex converts a glob to an unanchored regexp.
//
//	*    any run of characters except /
//	**   anything, including /; "**/" also matches nothing
//	?    one character except /
//	[..] character class, [!..] negated
//	\c   the literal character c
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if !strings.HasPrefix(glob[i:], "**") {
				b.WriteString("[^/]*")
				continue
			}
			if strings.HasPrefix(glob[i:], "**/") {
				b.WriteString("(.*/)?")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := classEnd(glob, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			cls := glob[i+1 : end]
			if strings.HasPrefix(cls, "!") {
				cls = "^" + cls[1:]
			}
			b.WriteString("[" + cls + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	return b.String()
}

// classEnd returns the index of the ']' closing the class that opens at
// glob[start], or -1 if it is unterminated. A ']' immediately after the
// opening bracket (or after "[!") is a literal member.
func classEnd(glob string, start int) int {
	j := start + 1
	if j < len(glob) && glob[j] == '!' {
		j++
	}
	if j < len(glob) && glob[j] == ']' {
		j++
	}
	for ; j < len(glob); j++ {
		if glob[j] == ']' {
			return j
		}
	}
	return -1
}
