package ai

import "scoutlens/pkg/contracts/domain"

// InterpretRequest carries everything the column-interpretation call
// needs. SampleRows is truncated to a small fixed count before prompting.
type InterpretRequest struct {
	Headers     []string
	SampleRows  []domain.Row
	Category    domain.Category
	SubjectName string
}

// InsightRequest carries the inputs of the insight-generation call.
type InsightRequest struct {
	Aggregates     map[string]domain.AggregateStat
	Interpretation *domain.ColumnInterpretationResult
	Benchmarks     []domain.BenchmarkComparison
	SampleRows     []domain.Row
	Category       domain.Category
	SubjectName    string
	RowCount       int
}

// ReportRequest carries the inputs of the report-drafting call.
type ReportRequest struct {
	Aggregates     map[string]domain.AggregateStat
	Interpretation *domain.ColumnInterpretationResult
	Insights       []domain.Insight
	Category       domain.Category
	SubjectName    string
	DateRange      string
	FocusAreas     []string
}
