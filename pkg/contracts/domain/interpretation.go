package domain

// ColumnType is the inferred data type of a spreadsheet column.
type ColumnType string

const (
	ColumnTypeDate    ColumnType = "date"
	ColumnTypeNumber  ColumnType = "number"
	ColumnTypeText    ColumnType = "text"
	ColumnTypeBoolean ColumnType = "boolean"
)

// ColumnInterpretation is the inferred semantic meaning of a single column
// whose original header may be non-standard.
type ColumnInterpretation struct {
	Header       string     `json:"header"`
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	Description  string     `json:"description,omitempty"`
	KeyMetric    bool       `json:"key_metric"`
	SampleValues []string   `json:"sample_values,omitempty"`
}

// ColumnInterpretationResult is produced once per file and treated as
// ground truth for every downstream stage; there is no re-interpretation.
type ColumnInterpretationResult struct {
	Domain            string                 `json:"domain"`
	Confidence        float64                `json:"confidence"`
	Columns           []ColumnInterpretation `json:"columns"`
	DerivedMetrics    []string               `json:"derived_metrics,omitempty"`
	DataQualityNotes  []string               `json:"data_quality_notes,omitempty"`
	SuggestedSections []string               `json:"suggested_sections,omitempty"`
}

// Column returns the interpretation for the given original header, or nil.
func (r *ColumnInterpretationResult) Column(header string) *ColumnInterpretation {
	if r == nil {
		return nil
	}
	for i := range r.Columns {
		if r.Columns[i].Header == header {
			return &r.Columns[i]
		}
	}
	return nil
}

// DateColumn returns the original header of the first date-typed column,
// or "" when none was detected.
func (r *ColumnInterpretationResult) DateColumn() string {
	if r == nil {
		return ""
	}
	for _, c := range r.Columns {
		if c.Type == ColumnTypeDate {
			return c.Header
		}
	}
	return ""
}

// ColumnNames returns the inferred semantic names in column order.
func (r *ColumnInterpretationResult) ColumnNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		names = append(names, c.Name)
	}
	return names
}
