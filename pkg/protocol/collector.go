package protocol

import "strings"

// IsSentinel reports whether line carries the completion sentinel.
func IsSentinel(line string) bool {
	return strings.Contains(line, Sentinel)
}

// Collector accumulates reply lines up to the first sentinel.
// The zero value is ready to use.
type Collector struct {
	lines []string
	done  bool
}

// Add feeds one line (without its newline) and reports whether the reply is complete.
// Text preceding the sentinel on the same line is kept; the sentinel and anything
// after it is discarded, as are lines added once the reply is complete.
func (c *Collector) Add(line string) bool {
	if c.done {
		return true
	}
	line = strings.TrimRight(line, "\r\n")
	if idx := strings.Index(line, Sentinel); idx >= 0 {
		if head := strings.TrimSpace(line[:idx]); head != "" {
			c.lines = append(c.lines, head)
		}
		c.done = true
		return true
	}
	c.lines = append(c.lines, line)
	return false
}

// Done reports whether the sentinel was seen.
func (c *Collector) Done() bool {
	return c.done
}

// Lines returns the collected lines.
func (c *Collector) Lines() []string {
	return c.lines
}

// String returns the collected lines newline-joined and trimmed.
func (c *Collector) String() string {
	return strings.TrimSpace(strings.Join(c.lines, "\n"))
}

// Reset clears the collector for reuse.
func (c *Collector) Reset() {
	c.lines = c.lines[:0]
	c.done = false
}
