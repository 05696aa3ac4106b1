package tabular

import (
	"fmt"

	"github.com/fitgrid/fitgrid/internal/errors"
	"github.com/fitgrid/fitgrid/pkg/types"
)

// GPS position columns recorded in the device's fixed-point semicircle
// encoding.
const (
	ColumnLatitude  = "position_lat"
	ColumnLongitude = "position_long"
)

// semicirclesPerDegree converts semicircles to degrees: 2^32 / 360.
const semicirclesPerDegree = (1 << 32) / 360.0

// Policy controls what happens when a GPS column is absent from a table
// with rows (e.g. an indoor activity with no position samples).
type Policy string

const (
	// PolicySkip leaves absent GPS columns untransformed and reports them
	// to the caller. This is the default.
	PolicySkip Policy = "skip"

	// PolicyStrict fails the decode with a missing-column error when
	// either GPS column is absent. Matches the legacy tool, which assumed
	// every activity carried position samples.
	PolicyStrict Policy = "strict"
)

// ValidPolicy reports whether p names a known policy.
func ValidPolicy(p Policy) bool {
	return p == PolicySkip || p == PolicyStrict
}

// NormalizePositions rescales the semicircle GPS columns to standard
// degrees, element-wise, exactly once per decode. Missing cells stay
// missing. The returned slice names the columns skipped under PolicySkip.
//
// The precondition on column presence is evaluated only when the table has
// rows: an empty table has nothing to normalize and succeeds under either
// policy.
func NormalizePositions(table *types.Table, policy Policy) ([]string, error) {
	if table.NumRows() == 0 {
		return nil, nil
	}

	var skipped []string
	for _, column := range []string{ColumnLatitude, ColumnLongitude} {
		if !table.HasColumn(column) {
			if policy == PolicyStrict {
				return nil, errors.NewNormalizeError(errors.CodeMissingColumn,
					fmt.Sprintf("column %q absent from decoded table", column))
			}
			skipped = append(skipped, column)
			continue
		}
		table.Transform(column, func(v types.Value) types.Value {
			return types.FloatValue(v.Float() / semicirclesPerDegree)
		})
	}
	return skipped, nil
}
