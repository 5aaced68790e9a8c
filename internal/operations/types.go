package operations

import (
	"context"
	"time"

	"scoutlens/internal/ai"
	"scoutlens/pkg/contracts/domain"
)

// Pipeline step names, in execution order.
const (
	StepLoadFile       = "load_file"
	StepParse          = "parse"
	StepInterpret      = "interpret_columns"
	StepPersistColumns = "persist_interpretation"
	StepInsertMetrics  = "insert_metrics"
	StepAggregate      = "aggregate"
	StepInsights       = "generate_insights"
	StepFinalize       = "finalize"
)

// StepStatus is the outcome of one pipeline step.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusDegraded  StepStatus = "degraded"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult records how one step of a run went.
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is what a pipeline run reports back.
type RunSummary struct {
	FileID       string            `json:"file_id"`
	Success      bool              `json:"success"`
	Status       domain.FileStatus `json:"status"`
	RowCount     int               `json:"row_count"`
	InsightCount int               `json:"insight_count"`
	Errors       []string          `json:"errors,omitempty"`
	Steps        []StepResult      `json:"steps,omitempty"`
}

// FileStore is the slice of file persistence the pipeline needs.
type FileStore interface {
	Get(ctx context.Context, id string) (*domain.SourceFile, error)
	MarkProcessing(ctx context.Context, id string) error
	SetInterpretation(ctx context.Context, id string, result *domain.ColumnInterpretationResult, rowCount int) error
	MarkCompleted(ctx context.Context, id string, aggregates map[string]domain.AggregateStat, errs []string) error
	MarkFailed(ctx context.Context, id string, errs []string) error
}

// MetricStore persists parsed rows in batches.
type MetricStore interface {
	InsertBatch(ctx context.Context, fileID string, rows []domain.Row, dateColumn string) error
}

// InsightStore persists generated insights.
type InsightStore interface {
	InsertAll(ctx context.Context, insights []domain.Insight) error
}

// BlobStore hands back the bytes of an uploaded file.
type BlobStore interface {
	Read(storagePath string) ([]byte, error)
}

// AIService is the generative dependency of the pipeline. Tests
// substitute a fake.
type AIService interface {
	InterpretColumns(ctx context.Context, req ai.InterpretRequest) (*domain.ColumnInterpretationResult, error)
	GenerateInsights(ctx context.Context, req ai.InsightRequest) ([]domain.Insight, error)
}
