package partition

import (
	"github.com/fitgrid/fitgrid/pkg/types"
)

// timestampColumn is the per-sample time field used for partition time
// range metadata.
const timestampColumn = "timestamp"

// ColumnStats holds build-time statistics for one column.
type ColumnStats struct {
	NullCount int64
	Min       types.Value
	Max       types.Value
}

// StatsTracker accumulates per-column null counts and min/max values
// during a partition build.
type StatsTracker struct {
	rowCount int64
	columns  []string
	stats    map[string]*ColumnStats
}

// NewStatsTracker creates a tracker for the given column set.
func NewStatsTracker(columns []string) *StatsTracker {
	stats := make(map[string]*ColumnStats, len(columns))
	for _, name := range columns {
		stats[name] = &ColumnStats{}
	}
	return &StatsTracker{columns: columns, stats: stats}
}

// Update folds one row into the statistics.
func (s *StatsTracker) Update(row types.Row) {
	s.rowCount++
	for _, name := range s.columns {
		cs := s.stats[name]
		v, ok := row[name]
		if !ok || v.IsMissing() {
			cs.NullCount++
			continue
		}
		if cs.Min.IsMissing() || less(v, cs.Min) {
			cs.Min = v
		}
		if cs.Max.IsMissing() || less(cs.Max, v) {
			cs.Max = v
		}
	}
}

// Column returns the statistics for one column. Unknown columns return an
// empty ColumnStats.
func (s *StatsTracker) Column(name string) *ColumnStats {
	if cs, ok := s.stats[name]; ok {
		return cs
	}
	return &ColumnStats{}
}

// Columns returns the full per-column statistics map.
func (s *StatsTracker) Columns() map[string]*ColumnStats {
	return s.stats
}

// RowCount returns the number of rows tracked.
func (s *StatsTracker) RowCount() int64 {
	return s.rowCount
}

// TimeRange returns the min/max of the timestamp column as Unix
// nanoseconds, or nils when the partition carries no timestamps.
func (s *StatsTracker) TimeRange() (*int64, *int64) {
	cs, ok := s.stats[timestampColumn]
	if !ok || cs.Min.Kind() != types.KindTime || cs.Max.Kind() != types.KindTime {
		return nil, nil
	}
	minNanos := cs.Min.Time().UnixNano()
	maxNanos := cs.Max.Time().UnixNano()
	return &minNanos, &maxNanos
}

// less orders two non-missing values of the same column. Numeric kinds
// compare numerically, timestamps chronologically, everything else by
// string rendering.
func less(a, b types.Value) bool {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return a.Float() < b.Float()
	case a.Kind() == types.KindTime && b.Kind() == types.KindTime:
		return a.Time().Before(b.Time())
	default:
		return a.String() < b.String()
	}
}
