// Package observability aggregates decode diagnostics across a run for
// operator visibility. Aggregated numbers never feed back into decoding.
package observability

import (
	"sort"
	"sync"
	"time"
)

// DecodeStats aggregates frame tallies and column occurrence across the
// files decoded in one run. Per-decode tallies stay call-local inside the
// pipeline; this tracker folds their copies together after each file.
type DecodeStats struct {
	mu         sync.RWMutex
	frameFreq  map[string]*FrameStats
	columnFreq map[string]*ColumnStats
	files      int64
	rows       int64
}

// FrameStats holds aggregate counts for one frame type.
type FrameStats struct {
	Name     string
	Count    int64
	LastSeen time.Time
}

// ColumnStats holds aggregate occurrence for one table column.
type ColumnStats struct {
	Name     string
	Files    int64 // number of files whose table carried the column
	LastSeen time.Time
}

// NewDecodeStats creates an empty aggregator.
func NewDecodeStats() *DecodeStats {
	return &DecodeStats{
		frameFreq:  make(map[string]*FrameStats),
		columnFreq: make(map[string]*ColumnStats),
	}
}

// RecordDecode folds one file's frame tally and column set into the
// aggregate. Thread-safe.
func (d *DecodeStats) RecordDecode(tally map[string]int, columns []string, rowCount int) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.files++
	d.rows += int64(rowCount)

	for name, count := range tally {
		fs, ok := d.frameFreq[name]
		if !ok {
			fs = &FrameStats{Name: name}
			d.frameFreq[name] = fs
		}
		fs.Count += int64(count)
		fs.LastSeen = now
	}

	for _, name := range columns {
		cs, ok := d.columnFreq[name]
		if !ok {
			cs = &ColumnStats{Name: name}
			d.columnFreq[name] = cs
		}
		cs.Files++
		cs.LastSeen = now
	}
}

// Files returns the number of files recorded.
func (d *DecodeStats) Files() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.files
}

// Rows returns the total rows decoded across all files.
func (d *DecodeStats) Rows() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows
}

// TopFrames returns the n most frequent frame types, descending by count.
func (d *DecodeStats) TopFrames(n int) []FrameStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]FrameStats, 0, len(d.frameFreq))
	for _, fs := range d.frameFreq {
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopColumns returns the n most common columns, descending by file count.
func (d *DecodeStats) TopColumns(n int) []ColumnStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ColumnStats, 0, len(d.columnFreq))
	for _, cs := range d.columnFreq {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
