package types

// Row maps field names to decoded values for one "record" frame. Each row
// is built fresh from its own frame: a field absent in the frame is absent
// in the row, never carried forward from a prior row or defaulted.
type Row map[string]Value

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
