package types

// ColumnSchema describes the on-disk typing of one table column.
type ColumnSchema struct {
	// Name is the column name as decoded from the device profile.
	Name string `json:"name"`

	// SQLType is the SQLite storage type: INTEGER, REAL, or TEXT.
	// Timestamps are stored as INTEGER Unix nanoseconds.
	SQLType string `json:"sql_type"`

	// Nullable indicates the column has at least one missing cell.
	Nullable bool `json:"nullable"`
}

// DeriveSchema infers a storage schema from table contents. The first
// non-missing value in a column decides its type; a column that is missing
// in any row is marked nullable. An entirely-missing column falls back to
// nullable TEXT.
func DeriveSchema(t *Table) []ColumnSchema {
	schema := make([]ColumnSchema, 0, t.NumColumns())
	for _, name := range t.Columns() {
		col := ColumnSchema{Name: name, SQLType: "TEXT", Nullable: true}
		typed := false
		missing := false
		for i := 0; i < t.NumRows(); i++ {
			v := t.Cell(i, name)
			if v.IsMissing() {
				missing = true
				continue
			}
			if !typed {
				col.SQLType = sqlTypeFor(v.Kind())
				typed = true
			}
		}
		if typed {
			col.Nullable = missing
		}
		schema = append(schema, col)
	}
	return schema
}

func sqlTypeFor(k Kind) string {
	switch k {
	case KindInt, KindTime:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
