package domain

// SheetColumn is the synthetic provenance column injected when more than
// one workbook sheet contributes rows. It is always the first header.
const SheetColumn = "_sheet"

// Row maps a column header to its cell value. Every key is a member of the
// owning table's header list.
type Row map[string]Cell

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParsedTable is the uniform tabular form every supported file kind is
// reduced to. Headers keep first-seen order across sheets.
type ParsedTable struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// RowCount returns the number of data rows.
func (t *ParsedTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasHeader reports whether name is one of the table's headers.
func (t *ParsedTable) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}
