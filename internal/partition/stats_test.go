package partition

import (
	"testing"
	"time"

	"github.com/fitgrid/fitgrid/pkg/types"
)

func TestStatsTracker_MinMax(t *testing.T) {
	tracker := NewStatsTracker([]string{"heart_rate", "sport"})
	tracker.Update(types.Row{"heart_rate": types.IntValue(130), "sport": types.StringValue("run")})
	tracker.Update(types.Row{"heart_rate": types.IntValue(110)})
	tracker.Update(types.Row{"heart_rate": types.IntValue(150), "sport": types.StringValue("bike")})

	hr := tracker.Column("heart_rate")
	if !hr.Min.Equal(types.IntValue(110)) || !hr.Max.Equal(types.IntValue(150)) {
		t.Errorf("heart_rate min/max = %v/%v", hr.Min, hr.Max)
	}
	if hr.NullCount != 0 {
		t.Errorf("heart_rate null count = %d", hr.NullCount)
	}

	sport := tracker.Column("sport")
	if sport.NullCount != 1 {
		t.Errorf("sport null count = %d, want 1", sport.NullCount)
	}
	if !sport.Min.Equal(types.StringValue("bike")) || !sport.Max.Equal(types.StringValue("run")) {
		t.Errorf("sport min/max = %v/%v", sport.Min, sport.Max)
	}

	if tracker.RowCount() != 3 {
		t.Errorf("RowCount = %d, want 3", tracker.RowCount())
	}
}

func TestStatsTracker_TimeRange(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	tracker := NewStatsTracker([]string{timestampColumn})
	tracker.Update(types.Row{timestampColumn: types.TimeValue(base.Add(time.Minute))})
	tracker.Update(types.Row{timestampColumn: types.TimeValue(base)})

	minTime, maxTime := tracker.TimeRange()
	if minTime == nil || maxTime == nil {
		t.Fatal("time range missing")
	}
	if *minTime != base.UnixNano() {
		t.Errorf("min = %d, want %d", *minTime, base.UnixNano())
	}
	if *maxTime != base.Add(time.Minute).UnixNano() {
		t.Errorf("max = %d", *maxTime)
	}
}

func TestStatsTracker_TimeRangeAbsent(t *testing.T) {
	tracker := NewStatsTracker([]string{"heart_rate"})
	tracker.Update(types.Row{"heart_rate": types.IntValue(120)})

	if minTime, maxTime := tracker.TimeRange(); minTime != nil || maxTime != nil {
		t.Error("time range reported without a timestamp column")
	}
}
