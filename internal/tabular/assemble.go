// Package tabular materializes and post-processes activity tables.
package tabular

import (
	"github.com/fitgrid/fitgrid/pkg/types"
)

// Assemble materializes a table from the collected row sequence and the
// first-seen column registry. Rows stay sparse; absent cells render as the
// explicit missing marker on access. Zero rows with zero columns is a
// well-formed (empty) table, not an error.
func Assemble(columns []string, rows []types.Row) *types.Table {
	return types.NewTable(columns, rows)
}
