package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scoutlens/internal/ai"
	"scoutlens/internal/benchmark"
	"scoutlens/internal/dataprocessing"
	"scoutlens/internal/store"
	"scoutlens/pkg/contracts/domain"
)

// DefaultBatchSize is how many metric rows go in one insert batch.
const DefaultBatchSize = 1000

// Orchestrator runs the analysis pipeline for one file at a time. Runs
// on different files share no mutable state and may execute
// concurrently.
type Orchestrator struct {
	files      FileStore
	metrics    MetricStore
	insights   InsightStore
	blobs      BlobStore
	aiService  AIService
	parser     *dataprocessing.Parser
	comparator *benchmark.Comparator
	batchSize  int
	logger     *slog.Logger
	telemetry  *Telemetry
}

// OrchestratorConfig wires an Orchestrator's dependencies.
type OrchestratorConfig struct {
	Files      FileStore
	Metrics    MetricStore
	Insights   InsightStore
	Blobs      BlobStore
	AI         AIService
	Parser     *dataprocessing.Parser
	Comparator *benchmark.Comparator
	BatchSize  int
	Logger     *slog.Logger
	Telemetry  *Telemetry
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Parser == nil {
		cfg.Parser = dataprocessing.NewParser(cfg.Logger)
	}
	if cfg.Comparator == nil {
		cfg.Comparator = benchmark.NewComparator()
	}
	return &Orchestrator{
		files:      cfg.Files,
		metrics:    cfg.Metrics,
		insights:   cfg.Insights,
		blobs:      cfg.Blobs,
		aiService:  cfg.AI,
		parser:     cfg.Parser,
		comparator: cfg.Comparator,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
		telemetry:  cfg.Telemetry,
	}
}

// run carries the mutable state of one pipeline execution.
type run struct {
	summary RunSummary
	logger  *slog.Logger
}

func (r *run) recordError(msg string) {
	r.summary.Errors = append(r.summary.Errors, msg)
}

func (r *run) step(name string, status StepStatus, started time.Time, errMsg string) {
	r.summary.Steps = append(r.summary.Steps, StepResult{
		Name:     name,
		Status:   status,
		Duration: time.Since(started),
		Error:    errMsg,
	})
}

// Run executes the full pipeline for one file. The file must be pending;
// Run claims it and a lost claim is rejected without touching the
// record. The returned summary is always non-nil; the error is non-nil
// only when the run did not complete.
func (o *Orchestrator) Run(ctx context.Context, fileID string) (*RunSummary, error) {
	return o.runPipeline(ctx, fileID, false)
}

// Resume continues a run over a file this process claimed before a crash
// or shutdown. Only job recovery uses it; it accepts the processing
// status that Run rejects.
func (o *Orchestrator) Resume(ctx context.Context, fileID string) (*RunSummary, error) {
	return o.runPipeline(ctx, fileID, true)
}

func (o *Orchestrator) runPipeline(ctx context.Context, fileID string, resume bool) (*RunSummary, error) {
	started := time.Now()
	r := &run{
		summary: RunSummary{FileID: fileID, Status: domain.FileStatusFailed},
		logger:  o.logger.With(slog.String("file_id", fileID)),
	}
	r.logger.InfoContext(ctx, "pipeline run started")

	summary, err := o.execute(ctx, fileID, resume, r)
	o.telemetry.recordRun(ctx, summary, time.Since(started))

	if err != nil {
		r.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(started)))
		return summary, err
	}

	r.logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("rows", summary.RowCount),
		slog.Int("insights", summary.InsightCount),
		slog.Int("non_fatal_errors", len(summary.Errors)),
		slog.Duration("duration", time.Since(started)))
	return summary, nil
}

func (o *Orchestrator) execute(ctx context.Context, fileID string, resume bool, r *run) (*RunSummary, error) {
	// Step 1: load the file record and claim it.
	file, opErr := o.loadFile(ctx, fileID, resume, r)
	if opErr != nil {
		return o.fail(ctx, fileID, r, opErr)
	}

	// Step 2: download bytes and parse.
	table, opErr := o.parse(ctx, file, r)
	if opErr != nil {
		return o.fail(ctx, fileID, r, opErr)
	}

	// Step 3: AI column interpretation. The single fatal external
	// dependency: nothing downstream has a semantic frame without it.
	interp, opErr := o.interpret(ctx, file, table, r)
	if opErr != nil {
		return o.fail(ctx, fileID, r, opErr)
	}

	// Step 4: persist the interpretation and row count.
	if opErr := o.persistInterpretation(ctx, fileID, interp, table.RowCount(), r); opErr != nil {
		return o.fail(ctx, fileID, r, opErr)
	}
	r.summary.RowCount = table.RowCount()

	// Step 5: batch-insert one metric row per parsed row.
	o.insertMetrics(ctx, fileID, table, interp, r)

	// Step 6: compute aggregates.
	stepStart := time.Now()
	aggregates := dataprocessing.Aggregate(table)
	r.step(StepAggregate, StepStatusCompleted, stepStart, "")

	// Step 7: benchmarks and insights, both additive value.
	o.generateInsights(ctx, file, table, interp, aggregates, r)

	// Step 8: mark completed with aggregates and the error list.
	stepStart = time.Now()
	if err := o.files.MarkCompleted(ctx, fileID, aggregates, r.summary.Errors); err != nil {
		r.step(StepFinalize, StepStatusFailed, stepStart, err.Error())
		return o.fail(ctx, fileID, r, NewFatalError(StepFinalize, "failed to finalize file", err))
	}
	r.step(StepFinalize, StepStatusCompleted, stepStart, "")

	r.summary.Success = true
	r.summary.Status = domain.FileStatusCompleted
	return &r.summary, nil
}

func (o *Orchestrator) loadFile(ctx context.Context, fileID string, resume bool, r *run) (*domain.SourceFile, *OperationError) {
	started := time.Now()

	file, err := o.files.Get(ctx, fileID)
	if err != nil {
		r.step(StepLoadFile, StepStatusFailed, started, err.Error())
		return nil, NewFatalError(StepLoadFile, fmt.Sprintf("failed to load file record: %v", err), err)
	}
	if file.Status.Terminal() {
		msg := fmt.Sprintf("file is already %s; re-processing requires a new file record", file.Status)
		r.step(StepLoadFile, StepStatusFailed, started, msg)
		return nil, NewValidationError(StepLoadFile, msg)
	}
	if file.Status == domain.FileStatusProcessing && !resume {
		// Already claimed; only crash recovery may pick it up.
		msg := "file is already claimed by another run"
		r.step(StepLoadFile, StepStatusFailed, started, msg)
		return nil, NewValidationError(StepLoadFile, msg)
	}
	if file.Status == domain.FileStatusPending {
		if err := o.files.MarkProcessing(ctx, fileID); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// Lost the claim to a concurrent run. The rival owns
				// the record now; leave it alone.
				msg := "file was claimed by a concurrent run"
				r.step(StepLoadFile, StepStatusFailed, started, msg)
				return nil, NewValidationError(StepLoadFile, msg)
			}
			r.step(StepLoadFile, StepStatusFailed, started, err.Error())
			return nil, NewFatalError(StepLoadFile, "failed to claim file for processing", err)
		}
	}

	r.step(StepLoadFile, StepStatusCompleted, started, "")
	return file, nil
}

func (o *Orchestrator) parse(ctx context.Context, file *domain.SourceFile, r *run) (*domain.ParsedTable, *OperationError) {
	started := time.Now()

	data, err := o.blobs.Read(file.StoragePath)
	if err != nil {
		r.step(StepParse, StepStatusFailed, started, err.Error())
		return nil, NewFatalError(StepParse, fmt.Sprintf("failed to download file bytes: %v", err), err)
	}

	result, err := o.parser.Parse(data, file.Kind)
	if err != nil {
		r.step(StepParse, StepStatusFailed, started, err.Error())
		return nil, NewFatalError(StepParse, fmt.Sprintf("failed to parse file: %v", err), err)
	}
	for _, w := range result.Warnings {
		r.recordError("parse warning: " + w)
	}
	if result.Table.RowCount() == 0 {
		msg := "file produced no data rows"
		r.step(StepParse, StepStatusFailed, started, msg)
		return nil, NewFatalError(StepParse, msg, nil)
	}

	r.step(StepParse, StepStatusCompleted, started, "")
	return result.Table, nil
}

func (o *Orchestrator) interpret(ctx context.Context, file *domain.SourceFile, table *domain.ParsedTable, r *run) (*domain.ColumnInterpretationResult, *OperationError) {
	started := time.Now()

	interp, err := o.aiService.InterpretColumns(ctx, ai.InterpretRequest{
		Headers:     table.Headers,
		SampleRows:  table.Rows,
		Category:    file.Category,
		SubjectName: file.SubjectName,
	})
	if err != nil {
		r.step(StepInterpret, StepStatusFailed, started, err.Error())
		return nil, NewFatalError(StepInterpret, err.Error(), err)
	}

	r.step(StepInterpret, StepStatusCompleted, started, "")
	return interp, nil
}

func (o *Orchestrator) persistInterpretation(ctx context.Context, fileID string, interp *domain.ColumnInterpretationResult, rowCount int, r *run) *OperationError {
	started := time.Now()

	if err := o.files.SetInterpretation(ctx, fileID, interp, rowCount); err != nil {
		r.step(StepPersistColumns, StepStatusFailed, started, err.Error())
		return NewFatalError(StepPersistColumns, "failed to persist column interpretation", err)
	}

	r.step(StepPersistColumns, StepStatusCompleted, started, "")
	return nil
}

// insertMetrics writes rows in batches. Each batch is independent:
// at-least-once semantics, a failed batch is recorded and skipped while
// the rest continue.
func (o *Orchestrator) insertMetrics(ctx context.Context, fileID string, table *domain.ParsedTable, interp *domain.ColumnInterpretationResult, r *run) {
	started := time.Now()
	dateColumn := interp.DateColumn()

	failures := 0
	for start := 0; start < len(table.Rows); start += o.batchSize {
		end := start + o.batchSize
		if end > len(table.Rows) {
			end = len(table.Rows)
		}
		if err := o.metrics.InsertBatch(ctx, fileID, table.Rows[start:end], dateColumn); err != nil {
			failures++
			r.recordError(fmt.Sprintf("metric batch %d-%d failed: %v", start, end-1, err))
			r.logger.WarnContext(ctx, "metric batch insert failed",
				slog.Int("batch_start", start),
				slog.Int("batch_end", end-1),
				slog.String("error", err.Error()))
		}
	}

	status := StepStatusCompleted
	if failures > 0 {
		status = StepStatusDegraded
	}
	r.step(StepInsertMetrics, status, started, "")
}

// generateInsights computes benchmark comparisons when the detected
// domain is recognized, asks the AI for insights, and persists whatever
// comes back. Every failure here is non-fatal.
func (o *Orchestrator) generateInsights(ctx context.Context, file *domain.SourceFile, table *domain.ParsedTable, interp *domain.ColumnInterpretationResult, aggregates map[string]domain.AggregateStat, r *run) {
	started := time.Now()

	var comparisons []domain.BenchmarkComparison
	if o.comparator.KnownDomain(interp.Domain) {
		comparisons = o.comparator.Compare(interp.Domain,
			benchmark.ParseLevel(file.Level), numericAverages(aggregates))
		// Comparisons come back keyed by raw column header; surface the
		// interpreted metric name instead.
		for i := range comparisons {
			if col := interp.Column(comparisons[i].Metric); col != nil && col.Name != "" {
				comparisons[i].Metric = col.Name
			}
		}
	}

	insights, err := o.aiService.GenerateInsights(ctx, ai.InsightRequest{
		Aggregates:     aggregates,
		Interpretation: interp,
		Benchmarks:     comparisons,
		SampleRows:     table.Rows,
		Category:       file.Category,
		SubjectName:    file.SubjectName,
		RowCount:       table.RowCount(),
	})
	if err != nil {
		r.recordError("insight generation failed: " + err.Error())
		r.step(StepInsights, StepStatusDegraded, started, err.Error())
		return
	}

	now := time.Now().UTC()
	for i := range insights {
		insights[i].ID = uuid.New().String()
		insights[i].FileID = file.ID
		insights[i].CreatedAt = now
	}
	if err := o.insights.InsertAll(ctx, insights); err != nil {
		r.recordError("failed to persist insights: " + err.Error())
		r.step(StepInsights, StepStatusDegraded, started, err.Error())
		return
	}

	r.summary.InsightCount = len(insights)
	o.telemetry.recordInsights(ctx, len(insights))
	r.step(StepInsights, StepStatusCompleted, started, "")
}

// fail lands the file in its failed terminal state with the error list.
// Validation rejections never claimed the file, so its record is left
// untouched.
func (o *Orchestrator) fail(ctx context.Context, fileID string, r *run, opErr *OperationError) (*RunSummary, error) {
	r.recordError(opErr.Message)
	r.summary.Success = false
	r.summary.Status = domain.FileStatusFailed

	if opErr.Type == ErrorTypeValidation {
		return &r.summary, opErr
	}
	if err := o.files.MarkFailed(ctx, fileID, r.summary.Errors); err != nil {
		r.logger.ErrorContext(ctx, "failed to mark file failed",
			slog.String("error", err.Error()))
		r.recordError("failed to persist failed status: " + err.Error())
	}
	return &r.summary, opErr
}

// numericAverages extracts the averages of numeric columns for
// benchmarking.
func numericAverages(aggregates map[string]domain.AggregateStat) map[string]float64 {
	averages := make(map[string]float64)
	for header, stat := range aggregates {
		if stat.Classification == domain.ClassNumeric && header != domain.SheetColumn {
			averages[header] = stat.Avg
		}
	}
	return averages
}
