package partition

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"

	fgerrors "github.com/fitgrid/fitgrid/internal/errors"
	"github.com/fitgrid/fitgrid/pkg/types"
)

func newActivityTable() *types.Table {
	columns := []string{"timestamp", "heart_rate", "position_lat"}
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	rows := []types.Row{
		{
			"timestamp":    types.TimeValue(base),
			"heart_rate":   types.IntValue(120),
			"position_lat": types.FloatValue(48.1),
		},
		{
			"timestamp":    types.TimeValue(base.Add(time.Second)),
			"heart_rate":   types.IntValue(125),
			"position_lat": types.FloatValue(48.2),
		},
		{
			"timestamp":  types.TimeValue(base.Add(2 * time.Second)),
			"heart_rate": types.IntValue(130),
			// position dropped for this sample
		},
	}
	return types.NewTable(columns, rows)
}

func TestBuilder_Build(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fitgrid-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	builder := NewBuilder(tmpDir)
	table := newActivityTable()
	source := []byte("raw fit payload bytes")

	info, err := builder.Build(context.Background(), table, source, "morning_run")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if info.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", info.RowCount)
	}
	if info.ColumnCount != 3 {
		t.Errorf("ColumnCount = %d, want 3", info.ColumnCount)
	}
	if info.Fingerprint != Fingerprint(source) {
		t.Errorf("Fingerprint = %s", info.Fingerprint)
	}
	if info.MinTime == nil || info.MaxTime == nil {
		t.Fatal("time range missing despite timestamp column")
	}
	if *info.MaxTime-*info.MinTime != int64(2*time.Second) {
		t.Errorf("time range = %d ns, want 2s", *info.MaxTime-*info.MinTime)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d", info.SizeBytes)
	}

	db, err := sql.Open("sqlite3", info.SQLitePath)
	if err != nil {
		t.Fatalf("failed to open partition: %v", err)
	}
	defer db.Close()

	// Samples landed with NULL for the dropped position.
	var rowCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&rowCount); err != nil {
		t.Fatalf("count samples: %v", err)
	}
	if rowCount != 3 {
		t.Errorf("samples count = %d, want 3", rowCount)
	}

	var lat sql.NullFloat64
	if err := db.QueryRow(`SELECT "position_lat" FROM samples WHERE sample_id = 2`).Scan(&lat); err != nil {
		t.Fatalf("select position_lat: %v", err)
	}
	if lat.Valid {
		t.Errorf("sample 2 position_lat = %v, want NULL", lat.Float64)
	}

	// Stats table carries null counts.
	var nullCount int64
	if err := db.QueryRow(
		"SELECT null_count FROM _fitgrid_stats WHERE column_name = 'position_lat'").Scan(&nullCount); err != nil {
		t.Fatalf("select stats: %v", err)
	}
	if nullCount != 1 {
		t.Errorf("position_lat null_count = %d, want 1", nullCount)
	}

	// Source payload round-trips through snappy.
	var compressed []byte
	var rawSize int64
	if err := db.QueryRow(
		"SELECT compressed, raw_size FROM _fitgrid_source WHERE fingerprint = ?",
		info.Fingerprint).Scan(&compressed, &rawSize); err != nil {
		t.Fatalf("select source: %v", err)
	}
	decoded, err := snappy.Decode(nil, compressed)
	if err != nil {
		t.Fatalf("snappy decode: %v", err)
	}
	if string(decoded) != string(source) {
		t.Errorf("source payload corrupted: %q", decoded)
	}
	if rawSize != int64(len(source)) {
		t.Errorf("raw_size = %d, want %d", rawSize, len(source))
	}
}

func TestBuilder_Sidecar(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fitgrid-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	builder := NewBuilder(tmpDir)
	info, err := builder.Build(context.Background(), newActivityTable(), []byte("payload"), "ride")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sidecar, err := ReadSidecar(info.MetadataPath)
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if sidecar.PartitionID != info.PartitionID {
		t.Errorf("sidecar partition = %s, want %s", sidecar.PartitionID, info.PartitionID)
	}
	if sidecar.RowCount != 3 {
		t.Errorf("sidecar rows = %d, want 3", sidecar.RowCount)
	}
	if len(sidecar.Columns) != 3 {
		t.Fatalf("sidecar columns = %d, want 3", len(sidecar.Columns))
	}
	if sidecar.Columns[0].Name != "timestamp" {
		t.Errorf("first sidecar column = %s, want timestamp (first seen)", sidecar.Columns[0].Name)
	}
}

func TestBuilder_EmptyTableRefused(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fitgrid-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	builder := NewBuilder(tmpDir)
	_, err = builder.Build(context.Background(), types.NewTable(nil, nil), []byte("x"), "empty")
	if err == nil {
		t.Fatal("building an empty partition must fail")
	}
	target := fgerrors.New(fgerrors.ErrCategoryExport, fgerrors.CodeEmptyTable, "")
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want EMPTY_TABLE", err)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint([]byte("activity"))
	b := Fingerprint([]byte("activity"))
	c := Fingerprint([]byte("activity2"))

	if a != b {
		t.Error("fingerprint not deterministic")
	}
	if a == c {
		t.Error("distinct payloads collided")
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a))
	}
}
