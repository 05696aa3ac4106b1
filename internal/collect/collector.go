// Package collect filters a decoded frame sequence down to per-sample rows.
package collect

import (
	"strings"

	"github.com/fitgrid/fitgrid/internal/fit"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// placeholderMarker flags fields the device profile could not decode.
// Matching is on substring presence anywhere in the name, which is how the
// profile names placeholders ("unknown", "unknown_87", ...).
const placeholderMarker = "unknown"

// Collector accumulates one row per "record" frame, the registry of known
// field names, and a diagnostic tally of every frame type seen.
//
// The tally and the registry are deliberately two independently owned
// containers: the tally counts frames of every type for operator
// visibility and never influences the table; the registry holds the
// non-placeholder field names that become the table's columns.
//
// A Collector is call-local state for one decode and is not safe for
// concurrent use.
type Collector struct {
	tally map[string]int

	registry []string
	known    map[string]struct{}

	rows []types.Row
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{
		tally: make(map[string]int),
		known: make(map[string]struct{}),
	}
}

// Observe consumes one frame. Every frame counts toward the tally; only
// "record" frames contribute a row. A record frame with zero usable fields
// still contributes one (all-absent) row, so row count always equals
// record frame count.
func (c *Collector) Observe(frame fit.Frame) {
	c.tally[frame.Name]++

	if frame.Name != fit.FrameRecord {
		return
	}

	row := make(types.Row, len(frame.Fields))
	for _, field := range frame.Fields {
		if strings.Contains(field.Name, placeholderMarker) {
			continue
		}
		if _, ok := c.known[field.Name]; !ok {
			c.known[field.Name] = struct{}{}
			c.registry = append(c.registry, field.Name)
		}
		// Duplicate names within one frame: last value wins, a row has
		// one slot per name.
		row[field.Name] = field.Value
	}
	c.rows = append(c.rows, row)
}

// Rows returns the accumulated rows in frame encounter order.
func (c *Collector) Rows() []types.Row {
	return c.rows
}

// Columns returns the known-field registry in first-seen order.
func (c *Collector) Columns() []string {
	out := make([]string, len(c.registry))
	copy(out, c.registry)
	return out
}

// Tally returns a copy of the frame-type occurrence counts.
func (c *Collector) Tally() map[string]int {
	out := make(map[string]int, len(c.tally))
	for k, v := range c.tally {
		out[k] = v
	}
	return out
}
