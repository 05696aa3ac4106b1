package types

// Table is the ordered tabular form of one decoded activity.
//
// Columns are the union of non-placeholder field names across all record
// frames, in first-seen order. Rows preserve frame encounter order. Rows
// are sparse: a cell whose column is absent from the underlying row reads
// as the explicit Missing marker.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable builds a table from an ordered column set and row sequence.
// The inputs are owned by the table after the call.
func NewTable(columns []string, rows []Row) *Table {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return &Table{
		columns: columns,
		index:   index,
		rows:    rows,
	}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Empty reports whether the table has no rows and no columns.
func (t *Table) Empty() bool {
	return len(t.rows) == 0 && len(t.columns) == 0
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value at the given row for the given column. Cells
// outside the table, and cells whose column is absent from that row,
// return Missing.
func (t *Table) Cell(row int, column string) Value {
	if row < 0 || row >= len(t.rows) {
		return Missing
	}
	if _, ok := t.index[column]; !ok {
		return Missing
	}
	if v, ok := t.rows[row][column]; ok {
		return v
	}
	return Missing
}

// Column returns the full column as a value slice, one entry per row, with
// Missing in every row that lacks the field. A column not present in the
// table returns nil.
func (t *Table) Column(name string) []Value {
	if _, ok := t.index[name]; !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		if v, ok := row[name]; ok {
			out[i] = v
		} else {
			out[i] = Missing
		}
	}
	return out
}

// Row returns the sparse row at index i. The returned map is the table's
// own storage; callers must not mutate it.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Transform applies fn to every present cell of the named column, in row
// order. Missing cells stay missing. It reports whether the column exists
// in the table.
func (t *Table) Transform(column string, fn func(Value) Value) bool {
	if _, ok := t.index[column]; !ok {
		return false
	}
	for _, row := range t.rows {
		if v, ok := row[column]; ok {
			row[column] = fn(v)
		}
	}
	return true
}
