// Package catalog tracks exported activities in a local SQLite manifest.
// The catalog backs idempotent export: an activity whose fingerprint is
// already registered is skipped instead of decoded and uploaded again.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fitgrid/fitgrid/internal/errors"
)

// Record represents one exported activity in the catalog.
type Record struct {
	Fingerprint string
	PartitionID string
	Activity    string
	ObjectPath  string
	RowCount    int64
	ColumnCount int64
	SizeBytes   int64
	MinTime     *int64
	MaxTime     *int64
	CreatedAt   time.Time
}

// Catalog is a SQLite-backed activity manifest. Reads are concurrent;
// writes are serialized behind a single connection.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS activities (
		fingerprint TEXT PRIMARY KEY,
		partition_id TEXT NOT NULL,
		activity TEXT NOT NULL,
		object_path TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		column_count INTEGER NOT NULL,
		size_bytes INTEGER NOT NULL,
		min_time INTEGER,
		max_time INTEGER,
		created_at INTEGER NOT NULL
	) WITHOUT ROWID
`

// Open opens (creating if needed) the catalog database at dbPath.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, errors.NewCatalogError(errors.CodeCatalogCorrupt,
			"failed to initialize catalog schema", err)
	}

	return &Catalog{db: db, dbPath: dbPath}, nil
}

// Register adds an exported activity. Registering a fingerprint that
// already exists returns a DUPLICATE_ACTIVITY error; callers are expected
// to Lookup first.
func (c *Catalog) Register(ctx context.Context, rec *Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO activities
			(fingerprint, partition_id, activity, object_path,
			 row_count, column_count, size_bytes, min_time, max_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Fingerprint, rec.PartitionID, rec.Activity, rec.ObjectPath,
		rec.RowCount, rec.ColumnCount, rec.SizeBytes,
		rec.MinTime, rec.MaxTime, rec.CreatedAt.UnixNano())
	if err != nil {
		if existing, lookupErr := c.lookup(ctx, rec.Fingerprint); lookupErr == nil && existing != nil {
			return errors.NewCatalogError(errors.CodeDuplicateActivity,
				fmt.Sprintf("fingerprint %s already registered as %s", rec.Fingerprint, existing.PartitionID), err)
		}
		return fmt.Errorf("catalog: failed to register activity: %w", err)
	}
	return nil
}

// Lookup returns the record for a fingerprint, or nil when the activity
// has not been exported.
func (c *Catalog) Lookup(ctx context.Context, fingerprint string) (*Record, error) {
	return c.lookup(ctx, fingerprint)
}

func (c *Catalog) lookup(ctx context.Context, fingerprint string) (*Record, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT fingerprint, partition_id, activity, object_path,
		       row_count, column_count, size_bytes, min_time, max_time, created_at
		FROM activities WHERE fingerprint = ?`, fingerprint)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to look up fingerprint: %w", err)
	}
	return rec, nil
}

// List returns all exported activities, newest first.
func (c *Catalog) List(ctx context.Context) ([]*Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT fingerprint, partition_id, activity, object_path,
		       row_count, column_count, size_bytes, min_time, max_time, created_at
		FROM activities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list activities: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed to scan activity: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: failed to iterate activities: %w", err)
	}
	return records, nil
}

// Close closes the catalog database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s rowScanner) (*Record, error) {
	var rec Record
	var createdAt int64
	if err := s.Scan(
		&rec.Fingerprint, &rec.PartitionID, &rec.Activity, &rec.ObjectPath,
		&rec.RowCount, &rec.ColumnCount, &rec.SizeBytes,
		&rec.MinTime, &rec.MaxTime, &createdAt); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, createdAt)
	return &rec, nil
}
