// Package decode runs the FIT-to-table pipeline: frame stream consumption,
// record filtering and field collection, table assembly, and unit
// normalization. One call consumes one byte stream end-to-end and returns
// one table; all accumulator state is call-local and discarded on return.
package decode

import (
	"context"
	"io"
	"time"

	"github.com/fitgrid/fitgrid/internal/collect"
	"github.com/fitgrid/fitgrid/internal/fit"
	"github.com/fitgrid/fitgrid/internal/tabular"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// Options configures one decode call.
type Options struct {
	// Normalize selects the GPS normalization policy. Empty means
	// tabular.PolicySkip.
	Normalize tabular.Policy
}

// Stats carries per-decode diagnostics out of the pipeline. It has no
// effect on the table's contents.
type Stats struct {
	// FrameTally counts every frame by name, records and non-records alike.
	FrameTally map[string]int

	// RecordFrames is the number of "record" frames, which equals the
	// table's row count.
	RecordFrames int

	// SkippedColumns names GPS columns left untransformed because they
	// were absent (skip policy only).
	SkippedColumns []string

	// Elapsed is the wall time of the whole decode.
	Elapsed time.Duration
}

// Decode parses one complete FIT byte stream and returns its normalized
// table. A failure at any stage aborts the decode with no partial table.
func Decode(ctx context.Context, r io.Reader, opts Options) (*types.Table, *Stats, error) {
	start := time.Now()

	frames, err := fit.Decode(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	table, stats, err := FromFrames(frames, opts)
	if err != nil {
		return nil, nil, err
	}
	stats.Elapsed = time.Since(start)
	return table, stats, nil
}

// FromFrames runs the collect/assemble/normalize stages over an
// already-decoded frame sequence.
func FromFrames(frames []fit.Frame, opts Options) (*types.Table, *Stats, error) {
	policy := opts.Normalize
	if policy == "" {
		policy = tabular.PolicySkip
	}

	collector := collect.New()
	for _, frame := range frames {
		collector.Observe(frame)
	}

	table := tabular.Assemble(collector.Columns(), collector.Rows())

	skipped, err := tabular.NormalizePositions(table, policy)
	if err != nil {
		return nil, nil, err
	}

	tally := collector.Tally()
	return table, &Stats{
		FrameTally:     tally,
		RecordFrames:   tally[fit.FrameRecord],
		SkippedColumns: skipped,
	}, nil
}
