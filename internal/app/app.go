// Package app wires the fitgrid pipeline components into one run:
// decode FIT files, build partitions, upload them, and track them in the
// activity catalog.
package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/fitgrid/fitgrid/internal/catalog"
	"github.com/fitgrid/fitgrid/internal/config"
	"github.com/fitgrid/fitgrid/internal/decode"
	"github.com/fitgrid/fitgrid/internal/observability"
	"github.com/fitgrid/fitgrid/internal/partition"
	"github.com/fitgrid/fitgrid/internal/storage"
	"github.com/fitgrid/fitgrid/internal/tabular"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// inspectHeadRows is how many leading rows inspect mode prints.
const inspectHeadRows = 5

// App holds the wired components for one fitgrid run.
type App struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	storage storage.ObjectStorage
	builder *partition.Builder
	catalog *catalog.Catalog
	stats   *observability.DecodeStats
}

// New creates an App with the given configuration.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	var store storage.ObjectStorage
	var err error
	switch cfg.Storage.Type {
	case "s3":
		store, err = storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
	default:
		store, err = storage.NewLocalStorage(cfg.Storage.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Infof("storage initialized: type=%s", cfg.Storage.Type)

	cat, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	return &App{
		cfg:     cfg,
		log:     log,
		storage: store,
		builder: partition.NewBuilder(cfg.Export.PartitionDir),
		catalog: cat,
		stats:   observability.NewDecodeStats(),
	}, nil
}

// Close releases the catalog connection.
func (a *App) Close() error {
	return a.catalog.Close()
}

// Run executes the configured mode over the given FIT files.
func (a *App) Run(ctx context.Context, files []string) error {
	switch a.cfg.Mode {
	case config.ModeList:
		return a.runList(ctx)
	case config.ModeInspect:
		return a.runEach(ctx, files, a.inspectFile)
	default:
		return a.runEach(ctx, files, a.exportFile)
	}
}

// runEach applies fn per file, continuing past per-file failures so one
// corrupt download does not abort a batch.
func (a *App) runEach(ctx context.Context, files []string, fn func(context.Context, string) error) error {
	if len(files) == 0 {
		return fmt.Errorf("no FIT files given")
	}

	var failed int
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, file); err != nil {
			a.log.Errorw("file failed", "file", file, "error", err)
			failed++
		}
	}

	a.logRunSummary()
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// exportFile decodes one FIT file, builds its partition, uploads it, and
// registers it in the catalog. Activities already in the catalog are
// skipped by fingerprint.
func (a *App) exportFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	fingerprint := partition.Fingerprint(source)
	if existing, err := a.catalog.Lookup(ctx, fingerprint); err != nil {
		return err
	} else if existing != nil {
		a.log.Infow("already exported, skipping",
			"file", path, "partition", existing.PartitionID)
		return nil
	}

	table, stats, err := a.decodeBytes(ctx, source)
	if err != nil {
		return err
	}
	a.observe(path, table, stats)

	if table.NumRows() == 0 {
		a.log.Warnw("no record frames, nothing to export", "file", path)
		return nil
	}

	info, err := a.builder.Build(ctx, table, source, activityName(path))
	if err != nil {
		return err
	}

	objectPath := fmt.Sprintf("%s/%s.sqlite", a.cfg.Export.Prefix, info.PartitionID)
	if err := a.storage.Upload(ctx, info.SQLitePath, objectPath); err != nil {
		return fmt.Errorf("failed to upload partition: %w", err)
	}
	if err := a.storage.Upload(ctx, info.MetadataPath, objectPath+".meta.json"); err != nil {
		return fmt.Errorf("failed to upload sidecar: %w", err)
	}

	rec := &catalog.Record{
		Fingerprint: info.Fingerprint,
		PartitionID: info.PartitionID,
		Activity:    info.Activity,
		ObjectPath:  objectPath,
		RowCount:    info.RowCount,
		ColumnCount: int64(info.ColumnCount),
		SizeBytes:   info.SizeBytes,
		MinTime:     info.MinTime,
		MaxTime:     info.MaxTime,
		CreatedAt:   info.CreatedAt,
	}
	if err := a.catalog.Register(ctx, rec); err != nil {
		return err
	}

	a.log.Infow("exported",
		"file", path,
		"partition", info.PartitionID,
		"rows", info.RowCount,
		"columns", info.ColumnCount,
		"bytes", info.SizeBytes)
	return nil
}

// inspectFile decodes one FIT file and prints its shape to stdout.
func (a *App) inspectFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	table, stats, err := a.decodeBytes(ctx, source)
	if err != nil {
		return err
	}
	a.observe(path, table, stats)

	fmt.Printf("%s: %d rows, %d columns (%s)\n",
		path, table.NumRows(), table.NumColumns(), stats.Elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(stats.FrameTally))
	for name := range stats.FrameTally {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, stats.FrameTally[name])
	}

	printTableHead(table)
	return nil
}

// runList prints the catalog of exported activities.
func (a *App) runList(ctx context.Context) error {
	records, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tACTIVITY\tPARTITION\tROWS\tBYTES")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			rec.CreatedAt.Format(time.RFC3339), rec.Activity,
			rec.PartitionID, rec.RowCount, rec.SizeBytes)
	}
	return w.Flush()
}

func (a *App) decodeBytes(ctx context.Context, source []byte) (*types.Table, *decode.Stats, error) {
	table, stats, err := decode.Decode(ctx, bytes.NewReader(source), decode.Options{
		Normalize: tabular.Policy(a.cfg.Normalize),
	})
	if err != nil {
		return nil, nil, err
	}
	for _, column := range stats.SkippedColumns {
		a.log.Warnw("position column absent, left untransformed", "column", column)
	}
	return table, stats, nil
}

func (a *App) observe(path string, table *types.Table, stats *decode.Stats) {
	a.stats.RecordDecode(stats.FrameTally, table.Columns(), table.NumRows())
	a.log.Debugw("decoded",
		"file", path,
		"frames", stats.FrameTally,
		"rows", table.NumRows())
}

// logRunSummary reports aggregate diagnostics for the whole run.
func (a *App) logRunSummary() {
	frames := a.stats.TopFrames(5)
	parts := make([]string, 0, len(frames))
	for _, fs := range frames {
		parts = append(parts, fmt.Sprintf("%s=%d", fs.Name, fs.Count))
	}
	a.log.Infow("run complete",
		"files", a.stats.Files(),
		"rows", a.stats.Rows(),
		"top_frames", strings.Join(parts, " "))
}

// printTableHead writes the leading rows of a table to stdout.
func printTableHead(table *types.Table) {
	columns := table.Columns()
	if len(columns) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(columns, "\t"))

	n := table.NumRows()
	if n > inspectHeadRows {
		n = inspectHeadRows
	}
	for i := 0; i < n; i++ {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = table.Cell(i, col).String()
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

// activityName derives the activity label from the source file name.
func activityName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
