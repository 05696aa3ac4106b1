package collect

import (
	"reflect"
	"testing"

	"github.com/fitgrid/fitgrid/internal/fit"
	"github.com/fitgrid/fitgrid/pkg/types"
)

func recordFrame(fields ...fit.Field) fit.Frame {
	return fit.Frame{Name: fit.FrameRecord, Fields: fields}
}

func field(name string, v types.Value) fit.Field {
	return fit.Field{Name: name, Value: v}
}

func TestCollector_OneRowPerRecordFrame(t *testing.T) {
	c := New()
	c.Observe(fit.Frame{Name: "file_id"})
	c.Observe(recordFrame(field("heart_rate", types.IntValue(120))))
	c.Observe(fit.Frame{Name: "event"})
	c.Observe(recordFrame(field("heart_rate", types.IntValue(125))))
	c.Observe(fit.Frame{Name: "session"})

	rows := c.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (one per record frame)", len(rows))
	}
	if !rows[0]["heart_rate"].Equal(types.IntValue(120)) {
		t.Errorf("row 0 heart_rate = %v", rows[0]["heart_rate"])
	}
	if !rows[1]["heart_rate"].Equal(types.IntValue(125)) {
		t.Errorf("row 1 heart_rate = %v", rows[1]["heart_rate"])
	}
}

func TestCollector_PlaceholderFieldsExcluded(t *testing.T) {
	c := New()
	c.Observe(recordFrame(
		field("unknown_87", types.IntValue(9)),
		field("heart_rate", types.IntValue(142)),
	))

	if got := c.Columns(); !reflect.DeepEqual(got, []string{"heart_rate"}) {
		t.Fatalf("Columns() = %v, want [heart_rate]", got)
	}

	row := c.Rows()[0]
	if _, ok := row["unknown_87"]; ok {
		t.Error("placeholder field leaked into the row")
	}
	if !row["heart_rate"].Equal(types.IntValue(142)) {
		t.Errorf("heart_rate = %v, want 142", row["heart_rate"])
	}
}

func TestCollector_PlaceholderMatchIsSubstring(t *testing.T) {
	c := New()
	// The marker is matched anywhere in the name, not only as a prefix.
	c.Observe(recordFrame(field("vendor_unknown_3", types.IntValue(1))))

	if cols := c.Columns(); len(cols) != 0 {
		t.Errorf("Columns() = %v, want none", cols)
	}
}

func TestCollector_RegistryFirstSeenOrder(t *testing.T) {
	c := New()
	c.Observe(recordFrame(
		field("timestamp", types.IntValue(1)),
		field("heart_rate", types.IntValue(120)),
	))
	c.Observe(recordFrame(
		field("cadence", types.IntValue(80)),
		field("timestamp", types.IntValue(2)),
	))

	want := []string{"timestamp", "heart_rate", "cadence"}
	if got := c.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestCollector_NoInheritanceBetweenRows(t *testing.T) {
	c := New()
	c.Observe(recordFrame(
		field("heart_rate", types.IntValue(120)),
		field("cadence", types.IntValue(80)),
	))
	c.Observe(recordFrame(field("heart_rate", types.IntValue(121))))

	row := c.Rows()[1]
	if _, ok := row["cadence"]; ok {
		t.Error("cadence carried forward into a frame that did not report it")
	}
}

func TestCollector_DuplicateFieldLastWins(t *testing.T) {
	c := New()
	c.Observe(recordFrame(
		field("heart_rate", types.IntValue(120)),
		field("heart_rate", types.IntValue(150)),
	))

	row := c.Rows()[0]
	if !row["heart_rate"].Equal(types.IntValue(150)) {
		t.Errorf("heart_rate = %v, want the later value 150", row["heart_rate"])
	}
	if got := c.Columns(); len(got) != 1 {
		t.Errorf("Columns() = %v, want one entry", got)
	}
}

func TestCollector_EmptyRecordFrameYieldsEmptyRow(t *testing.T) {
	c := New()
	c.Observe(recordFrame(field("unknown_5", types.IntValue(1))))

	rows := c.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if len(rows[0]) != 0 {
		t.Errorf("row = %v, want empty", rows[0])
	}
}

func TestCollector_TallyCountsEveryFrame(t *testing.T) {
	c := New()
	c.Observe(fit.Frame{Name: "session"})
	c.Observe(fit.Frame{Name: "lap"})
	c.Observe(fit.Frame{Name: "lap"})
	c.Observe(recordFrame())

	want := map[string]int{"session": 1, "lap": 2, "record": 1}
	if got := c.Tally(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tally() = %v, want %v", got, want)
	}

	// The tally is diagnostic only: non-record frames contribute no rows
	// and no columns.
	if len(c.Rows()) != 1 {
		t.Errorf("got %d rows, want 1", len(c.Rows()))
	}
	if len(c.Columns()) != 0 {
		t.Errorf("Columns() = %v, want none", c.Columns())
	}
}

func TestCollector_TallyIsACopy(t *testing.T) {
	c := New()
	c.Observe(fit.Frame{Name: "event"})

	tally := c.Tally()
	tally["event"] = 99

	if got := c.Tally()["event"]; got != 1 {
		t.Errorf("internal tally mutated through the returned copy: %d", got)
	}
}
