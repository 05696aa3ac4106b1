package observability

import (
	"fmt"
	"sync"
	"testing"
)

func TestDecodeStats_Aggregation(t *testing.T) {
	stats := NewDecodeStats()

	stats.RecordDecode(
		map[string]int{"record": 100, "event": 3},
		[]string{"timestamp", "heart_rate"}, 100)
	stats.RecordDecode(
		map[string]int{"record": 50, "session": 1},
		[]string{"timestamp", "power"}, 50)

	if stats.Files() != 2 {
		t.Errorf("Files = %d, want 2", stats.Files())
	}
	if stats.Rows() != 150 {
		t.Errorf("Rows = %d, want 150", stats.Rows())
	}

	frames := stats.TopFrames(0)
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	if frames[0].Name != "record" || frames[0].Count != 150 {
		t.Errorf("top frame = %s/%d, want record/150", frames[0].Name, frames[0].Count)
	}

	columns := stats.TopColumns(0)
	if len(columns) != 3 {
		t.Fatalf("len(columns) = %d, want 3", len(columns))
	}
	if columns[0].Name != "timestamp" || columns[0].Files != 2 {
		t.Errorf("top column = %s/%d, want timestamp/2", columns[0].Name, columns[0].Files)
	}
}

func TestDecodeStats_TopNTruncatesAndBreaksTies(t *testing.T) {
	stats := NewDecodeStats()
	stats.RecordDecode(
		map[string]int{"lap": 2, "event": 2, "record": 9},
		nil, 9)

	frames := stats.TopFrames(2)
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if frames[0].Name != "record" {
		t.Errorf("frames[0] = %s, want record", frames[0].Name)
	}
	// Equal counts fall back to name order.
	if frames[1].Name != "event" {
		t.Errorf("frames[1] = %s, want event", frames[1].Name)
	}
}

func TestDecodeStats_Empty(t *testing.T) {
	stats := NewDecodeStats()

	if stats.Files() != 0 || stats.Rows() != 0 {
		t.Errorf("empty stats: Files=%d Rows=%d", stats.Files(), stats.Rows())
	}
	if frames := stats.TopFrames(5); len(frames) != 0 {
		t.Errorf("TopFrames on empty stats = %v", frames)
	}
}

func TestDecodeStats_Concurrent(t *testing.T) {
	stats := NewDecodeStats()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.RecordDecode(
					map[string]int{"record": 1},
					[]string{fmt.Sprintf("col_%d", i)}, 1)
			}
		}(i)
	}
	wg.Wait()

	if stats.Files() != 800 {
		t.Errorf("Files = %d, want 800", stats.Files())
	}
	frames := stats.TopFrames(1)
	if len(frames) != 1 || frames[0].Count != 800 {
		t.Errorf("record count = %v, want 800", frames)
	}
}
