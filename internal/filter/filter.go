// Package filter decides which paths a walk leaves out, from an ordered list
// of rsync-style include and exclude patterns.
package filter

import "strings"

// Matcher reports whether a path should be excluded from a walk. path is an
// apath such as "/a/b"; isDir is true for directories, whose whole subtree
// is then skipped.
type Matcher interface {
	IsMatch(path string, isDir bool) bool
}

// MatchFunc adapts an ordinary function to a Matcher.
type MatchFunc func(path string, isDir bool) bool

func (f MatchFunc) IsMatch(path string, isDir bool) bool { return f(path, isDir) }

// Rule represents a single include or exclude filter rule.
type Rule struct {
	Pattern *compiledPattern
	Include bool // true=include, false=exclude
}

// Chain holds an ordered list of filter rules. It implements Matcher.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: false})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: true})
	return nil
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0
}

// Len returns the number of rules.
func (c *Chain) Len() int {
	return len(c.rules)
}

// IsMatch returns true if the path should be EXCLUDED. Rules are tried in
// order and the first match wins; a path no rule matches is kept.
func (c *Chain) IsMatch(path string, isDir bool) bool {
	if c == nil {
		return false
	}
	relPath := strings.TrimPrefix(path, "/")
	if relPath == "" {
		return false
	}
	for _, rule := range c.rules {
		if rule.Pattern.match(relPath, isDir) {
			return !rule.Include
		}
	}
	return false
}
