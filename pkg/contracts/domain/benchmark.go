package domain

// Assessment is the benchmark-relative performance band.
type Assessment string

const (
	AssessmentElite        Assessment = "elite"
	AssessmentAboveAverage Assessment = "above_average"
	AssessmentAverage      Assessment = "average"
	AssessmentBelowAverage Assessment = "below_average"
	AssessmentNeedsWork    Assessment = "needs_work"
)

// BenchmarkComparison positions one observed metric against a static
// domain-average table. Percentile is always within [1, 99].
type BenchmarkComparison struct {
	Metric         string     `json:"metric"`
	Observed       float64    `json:"observed"`
	DomainAverage  float64    `json:"domain_average"`
	Percentile     int        `json:"percentile"`
	Assessment     Assessment `json:"assessment"`
	HigherIsBetter bool       `json:"higher_is_better"`
}
