// Package partition materializes decoded activity tables into immutable
// SQLite micro-partitions suitable for upload to object storage.
package partition

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fitgrid/fitgrid/internal/errors"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// Info contains metadata about a built partition.
type Info struct {
	PartitionID  string
	Activity     string
	Fingerprint  string
	SQLitePath   string
	MetadataPath string
	RowCount     int64
	ColumnCount  int
	SizeBytes    int64
	Schema       []types.ColumnSchema
	ColumnStats  map[string]*ColumnStats
	MinTime      *int64 // Unix nanoseconds, from the timestamp column
	MaxTime      *int64
	CreatedAt    time.Time
}

// Builder creates SQLite micro-partitions from activity tables.
type Builder struct {
	outputDir string
}

// NewBuilder creates a new partition builder writing under outputDir.
func NewBuilder(outputDir string) *Builder {
	return &Builder{outputDir: outputDir}
}

// Build materializes one decoded activity into a SQLite partition plus a
// JSON metadata sidecar. source is the raw FIT payload the table was
// decoded from; it is embedded snappy-compressed for provenance. activity
// is a caller-chosen label (typically the source file stem).
func (b *Builder) Build(ctx context.Context, table *types.Table, source []byte, activity string) (*Info, error) {
	if table.NumRows() == 0 {
		return nil, errors.NewExportError(errors.CodeEmptyTable,
			fmt.Sprintf("activity %q decoded to an empty table", activity), nil)
	}

	schema := types.DeriveSchema(table)
	fingerprint := Fingerprint(source)
	partitionID := fmt.Sprintf("activity:%s:%s", activity, uuid.New().String()[:8])
	createdAt := time.Now()

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("partition: failed to create output directory: %w", err)
	}

	sqlitePath := filepath.Clean(filepath.Join(b.outputDir, fmt.Sprintf("%s.sqlite", partitionID)))

	db, err := sql.Open("sqlite3", sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("partition: failed to create SQLite database: %w", err)
	}
	defer db.Close()

	// WAL during the build for write throughput; switched back to DELETE
	// before close so the partition is a single immutable file.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("partition: failed to set journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, samplesDDL(schema)); err != nil {
		return nil, fmt.Errorf("partition: failed to create samples table: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertSQL(schema))
	if err != nil {
		return nil, fmt.Errorf("partition: failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	stats := NewStatsTracker(table.Columns())

	for i := 0; i < table.NumRows(); i++ {
		args := make([]interface{}, 0, len(schema)+1)
		args = append(args, int64(i))
		for _, col := range schema {
			args = append(args, sqlArg(table.Cell(i, col.Name)))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("partition: failed to insert sample %d: %w", i, err)
		}
		stats.Update(table.Row(i))
	}

	if err := writeStatsTable(ctx, db, schema, stats); err != nil {
		return nil, err
	}
	if err := writeSourceTable(ctx, db, fingerprint, source); err != nil {
		return nil, err
	}

	// Checkpoint WAL and switch to DELETE mode for immutability.
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("partition: failed to checkpoint WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		return nil, fmt.Errorf("partition: failed to set journal mode to DELETE: %w", err)
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("partition: failed to close database: %w", err)
	}

	fileInfo, err := os.Stat(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("partition: failed to stat partition file: %w", err)
	}

	minTime, maxTime := stats.TimeRange()
	info := &Info{
		PartitionID: partitionID,
		Activity:    activity,
		Fingerprint: fingerprint,
		SQLitePath:  sqlitePath,
		RowCount:    int64(table.NumRows()),
		ColumnCount: table.NumColumns(),
		SizeBytes:   fileInfo.Size(),
		Schema:      schema,
		ColumnStats: stats.Columns(),
		MinTime:     minTime,
		MaxTime:     maxTime,
		CreatedAt:   createdAt,
	}

	metadataPath, err := writeSidecar(b.outputDir, info)
	if err != nil {
		return nil, err
	}
	info.MetadataPath = metadataPath

	return info, nil
}

// samplesDDL builds the CREATE TABLE statement for the dynamic column set.
func samplesDDL(schema []types.ColumnSchema) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE samples (\n\tsample_id INTEGER PRIMARY KEY")
	for _, col := range schema {
		sb.WriteString(",\n\t")
		sb.WriteString(quoteIdent(col.Name))
		sb.WriteString(" ")
		sb.WriteString(col.SQLType)
		if !col.Nullable {
			sb.WriteString(" NOT NULL")
		}
	}
	sb.WriteString("\n) WITHOUT ROWID")
	return sb.String()
}

func insertSQL(schema []types.ColumnSchema) string {
	cols := make([]string, 0, len(schema)+1)
	cols = append(cols, "sample_id")
	marks := make([]string, 0, len(schema)+1)
	marks = append(marks, "?")
	for _, col := range schema {
		cols = append(cols, quoteIdent(col.Name))
		marks = append(marks, "?")
	}
	return fmt.Sprintf("INSERT INTO samples (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// writeStatsTable persists per-column null counts and min/max values so
// readers can prune without scanning samples.
func writeStatsTable(ctx context.Context, db *sql.DB, schema []types.ColumnSchema, stats *StatsTracker) error {
	ddl := `
		CREATE TABLE _fitgrid_stats (
			column_name TEXT PRIMARY KEY,
			sql_type TEXT NOT NULL,
			null_count INTEGER NOT NULL,
			min_value TEXT,
			max_value TEXT
		) WITHOUT ROWID
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("partition: failed to create stats table: %w", err)
	}

	stmt, err := db.PrepareContext(ctx,
		"INSERT INTO _fitgrid_stats (column_name, sql_type, null_count, min_value, max_value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("partition: failed to prepare stats insert: %w", err)
	}
	defer stmt.Close()

	for _, col := range schema {
		cs := stats.Column(col.Name)
		var minVal, maxVal interface{}
		if !cs.Min.IsMissing() {
			minVal = cs.Min.String()
		}
		if !cs.Max.IsMissing() {
			maxVal = cs.Max.String()
		}
		if _, err := stmt.ExecContext(ctx, col.Name, col.SQLType, cs.NullCount, minVal, maxVal); err != nil {
			return fmt.Errorf("partition: failed to insert stats for %s: %w", col.Name, err)
		}
	}
	return nil
}

// writeSourceTable embeds the snappy-compressed raw FIT payload for
// provenance, keyed by its fingerprint.
func writeSourceTable(ctx context.Context, db *sql.DB, fingerprint string, source []byte) error {
	ddl := `
		CREATE TABLE _fitgrid_source (
			fingerprint TEXT PRIMARY KEY,
			raw_size INTEGER NOT NULL,
			compressed BLOB NOT NULL
		) WITHOUT ROWID
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("partition: failed to create source table: %w", err)
	}

	compressed := snappy.Encode(nil, source)
	if _, err := db.ExecContext(ctx,
		"INSERT INTO _fitgrid_source (fingerprint, raw_size, compressed) VALUES (?, ?, ?)",
		fingerprint, int64(len(source)), compressed); err != nil {
		return fmt.Errorf("partition: failed to insert source payload: %w", err)
	}
	return nil
}

// sqlArg converts a cell to a driver argument. Missing cells become NULL;
// timestamps are stored as Unix nanoseconds.
func sqlArg(v types.Value) interface{} {
	switch v.Kind() {
	case types.KindInt:
		return v.Int()
	case types.KindFloat:
		return v.Float()
	case types.KindString:
		return v.Str()
	case types.KindTime:
		return v.Time().UnixNano()
	default:
		return nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
