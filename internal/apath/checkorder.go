package apath

import "fmt"

// CheckOrder asserts that a sequence of apaths is strictly increasing.
// The zero value is ready to use.
type CheckOrder struct {
	last    Apath
	started bool
}

// Check panics if a does not sort after the previously checked path.
func (c *CheckOrder) Check(a Apath) {
	if c.started && !c.last.Less(a) {
		panic(fmt.Sprintf("apaths out of order: %q should be before %q", c.last.s, a.s))
	}
	c.last = a
	c.started = true
}
