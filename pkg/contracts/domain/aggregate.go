package domain

// Classification describes the value population of one column.
type Classification string

const (
	// ClassNumeric means every non-null value is a finite number.
	ClassNumeric Classification = "numeric"
	// ClassText means every non-null value is a string.
	ClassText Classification = "text"
	// ClassMixed is everything else; only counts are reported.
	ClassMixed Classification = "mixed"
)

// AggregateStat is the per-column descriptive statistic. The invariant
// Count+NullCount == total row count holds for every column. Min/Max/Sum/Avg
// are meaningful only for numeric columns, DistinctCount only for text.
type AggregateStat struct {
	Classification Classification `json:"classification"`
	Count          int            `json:"count"`
	NullCount      int            `json:"null_count"`
	Min            float64        `json:"min,omitempty"`
	Max            float64        `json:"max,omitempty"`
	Sum            float64        `json:"sum,omitempty"`
	Avg            float64        `json:"avg,omitempty"`
	DistinctCount  int            `json:"distinct_count,omitempty"`
}
