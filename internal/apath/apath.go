// Package apath implements archive paths: platform-independent, slash
// separated paths relative to the root of a backed-up tree.
//
// Apaths are ordered so that all the direct children of a directory sort
// before anything inside its subdirectories. This is the order in which
// entries are written to, and read from, an archive index.
package apath

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Apath is a validated archive path. The zero value is not a valid path;
// use New, Parse, Root or Join to construct one. It sorts before the root
// and its Rel and Name are empty.
type Apath struct {
	s string
}

// IsValid reports whether s is a well-formed apath.
func IsValid(s string) bool {
	if !strings.HasPrefix(s, "/") {
		return false
	}
	if len(s) == 1 {
		return true
	}
	for part := range strings.SplitSeq(s[1:], "/") {
		if part == "" || part == "." || part == ".." || strings.IndexByte(part, 0) >= 0 {
			return false
		}
	}
	return true
}

// New returns s as an Apath. It panics if s is not valid: callers must only
// pass strings they built themselves or have already checked.
func New(s string) Apath {
	if !IsValid(s) {
		panic(fmt.Sprintf("invalid apath: %q", s))
	}
	return Apath{s: s}
}

// Parse returns s as an Apath, or an error if it is malformed.
func Parse(s string) (Apath, error) {
	if !IsValid(s) {
		return Apath{}, fmt.Errorf("invalid apath: %q", s)
	}
	return Apath{s: s}, nil
}

// Root returns the apath of the tree root, "/".
func Root() Apath {
	return Apath{s: "/"}
}

func (a Apath) String() string { return a.s }

// IsRoot reports whether a is "/".
func (a Apath) IsRoot() bool { return a.s == "/" }

// IsZero reports whether a is the zero Apath, which is not a valid path.
func (a Apath) IsZero() bool { return a.s == "" }

// Join returns the apath of the child called name inside a.
// The name must be a single non-empty path component of valid UTF-8.
func (a Apath) Join(name string) (Apath, error) {
	if !utf8.ValidString(name) {
		return Apath{}, fmt.Errorf("name %q is not valid UTF-8", name)
	}
	var s string
	if a.IsRoot() {
		s = "/" + name
	} else {
		s = a.s + "/" + name
	}
	if name == "" || strings.Contains(name, "/") || !IsValid(s) {
		return Apath{}, fmt.Errorf("invalid name %q in %s", name, a.s)
	}
	return Apath{s: s}, nil
}

// Name returns the last component, or "" for the root.
func (a Apath) Name() string {
	return a.s[strings.LastIndexByte(a.s, '/')+1:]
}

// Parent returns the directory containing a. The root is its own parent.
func (a Apath) Parent() Apath {
	i := strings.LastIndexByte(a.s, '/')
	if i <= 0 {
		return Root()
	}
	return Apath{s: a.s[:i]}
}

// Rel returns the path without its leading slash; "" for the root.
func (a Apath) Rel() string {
	if a.s == "" {
		return ""
	}
	return a.s[1:]
}

// Below returns the local filesystem path of a inside root.
func (a Apath) Below(root string) string {
	if a.IsRoot() {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(a.Rel()))
}

// Less reports whether a sorts before b.
func (a Apath) Less(b Apath) bool {
	return Compare(a, b) < 0
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b.
//
// Paths are compared one component at a time. If one path ends at a level
// where the other continues into a subdirectory, the one that ends is
// smaller, whatever the names: "/b/zz" < "/b/aa/cc".
func Compare(a, b Apath) int {
	if a.s == "" || b.s == "" {
		return strings.Compare(a.s, b.s)
	}
	as, bs := a.s[1:], b.s[1:]
	for {
		ahead, arest, amore := strings.Cut(as, "/")
		bhead, brest, bmore := strings.Cut(bs, "/")
		switch {
		case !amore && !bmore:
			return strings.Compare(ahead, bhead)
		case !amore:
			return -1
		case !bmore:
			return 1
		}
		if c := strings.Compare(ahead, bhead); c != 0 {
			return c
		}
		as, bs = arest, brest
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Apath) MarshalText() ([]byte, error) {
	return []byte(a.s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects invalid paths.
func (a *Apath) UnmarshalText(b []byte) error {
	p, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = p
	return nil
}
