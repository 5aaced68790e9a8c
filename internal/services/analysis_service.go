package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scoutlens/internal/ai"
	"scoutlens/internal/store"
	"scoutlens/internal/validation"
	"scoutlens/pkg/contracts/domain"
)

// ErrFileNotCompleted is returned when a report is requested for a file
// whose pipeline run has not reached the completed state.
var ErrFileNotCompleted = errors.New("file analysis is not completed")

// FileStore is the file persistence the service needs.
type FileStore interface {
	Create(ctx context.Context, f *domain.SourceFile) error
	Get(ctx context.Context, id string) (*domain.SourceFile, error)
	List(ctx context.Context, limit int) ([]*domain.SourceFile, error)
}

// InsightStore is the insight persistence the service needs.
type InsightStore interface {
	ListByFile(ctx context.Context, fileID string) ([]domain.Insight, error)
	CountByFile(ctx context.Context, fileID string) (int, error)
	Dismiss(ctx context.Context, id string) error
}

// ReportStore is the report persistence the service needs.
type ReportStore interface {
	Insert(ctx context.Context, rec *store.ReportRecord) error
	LatestByFile(ctx context.Context, fileID string) (*store.ReportRecord, error)
}

// SubjectStore resolves subject identifiers to display names.
type SubjectStore interface {
	Upsert(ctx context.Context, id, displayName string) error
	DisplayName(ctx context.Context, id string) (string, error)
}

// BlobStore persists uploaded file bytes.
type BlobStore interface {
	Save(id, filename string, data []byte) (string, error)
}

// PipelineQueue accepts asynchronous analysis runs.
type PipelineQueue interface {
	Enqueue(ctx context.Context, fileID string) (string, error)
}

// ReportAI drafts and enhances scouting reports.
type ReportAI interface {
	GenerateReport(ctx context.Context, req ai.ReportRequest) (*domain.Report, error)
	EnhanceProse(ctx context.Context, draft *domain.Report) (*domain.Report, error)
}

// AnalysisService is the application service behind the upload, status,
// insight and report endpoints.
type AnalysisService struct {
	files     FileStore
	insights  InsightStore
	reports   ReportStore
	subjects  SubjectStore
	blobs     BlobStore
	queue     PipelineQueue
	reportAI  ReportAI
	validator *validation.UploadValidator
	logger    *slog.Logger
}

// AnalysisServiceConfig wires an AnalysisService's dependencies.
type AnalysisServiceConfig struct {
	Files     FileStore
	Insights  InsightStore
	Reports   ReportStore
	Subjects  SubjectStore
	Blobs     BlobStore
	Queue     PipelineQueue
	ReportAI  ReportAI
	Validator *validation.UploadValidator
	Logger    *slog.Logger
}

// NewAnalysisService creates the analysis application service.
func NewAnalysisService(cfg AnalysisServiceConfig) *AnalysisService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.NewUploadValidator(0)
	}
	return &AnalysisService{
		files:     cfg.Files,
		insights:  cfg.Insights,
		reports:   cfg.Reports,
		subjects:  cfg.Subjects,
		blobs:     cfg.Blobs,
		queue:     cfg.Queue,
		reportAI:  cfg.ReportAI,
		validator: cfg.Validator,
		logger:    cfg.Logger.With(slog.String("service", "analysis")),
	}
}

// UploadParams carries one upload request.
type UploadParams struct {
	Filename    string
	Size        int64
	Category    string
	SubjectID   string
	SubjectName string
	Level       string
	Data        []byte
}

// UploadResult is what the upload endpoint returns: the created file
// record and the durable job that will process it.
type UploadResult struct {
	File  *domain.SourceFile `json:"file"`
	JobID string             `json:"job_id"`
}

// CreateUpload validates and stores an uploaded file, creates its
// pending record, and enqueues the analysis run.
func (s *AnalysisService) CreateUpload(ctx context.Context, p UploadParams) (*UploadResult, error) {
	kind, category, err := s.validator.ValidateUpload(p.Filename, p.Size, p.Category)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	storagePath, err := s.blobs.Save(id, validation.SanitizeFilename(p.Filename), p.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	if p.SubjectID != "" && p.SubjectName != "" {
		if err := s.subjects.Upsert(ctx, p.SubjectID, p.SubjectName); err != nil {
			return nil, fmt.Errorf("failed to record subject: %w", err)
		}
	}

	file := &domain.SourceFile{
		ID:           id,
		OriginalName: p.Filename,
		StoragePath:  storagePath,
		Kind:         kind,
		Category:     category,
		SubjectID:    p.SubjectID,
		SubjectName:  p.SubjectName,
		Level:        p.Level,
		Status:       domain.FileStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	jobID, err := s.queue.Enqueue(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue analysis: %w", err)
	}

	s.logger.InfoContext(ctx, "upload accepted",
		slog.String("file_id", file.ID),
		slog.String("job_id", jobID),
		slog.String("kind", string(kind)),
		slog.String("category", string(category)),
		slog.Int64("size", p.Size))

	return &UploadResult{File: file, JobID: jobID}, nil
}

// FileStatusResponse is the polling view of one file's progress.
type FileStatusResponse struct {
	ID              string                             `json:"id"`
	OriginalName    string                             `json:"original_name"`
	Status          domain.FileStatus                  `json:"status"`
	RowCount        int                                `json:"row_count"`
	InsightCount    int                                `json:"insight_count"`
	DetectedColumns *domain.ColumnInterpretationResult `json:"detected_columns,omitempty"`
	Aggregates      map[string]domain.AggregateStat    `json:"aggregates,omitempty"`
	Errors          []string                           `json:"errors,omitempty"`
	CreatedAt       time.Time                          `json:"created_at"`
}

// Status returns the current state of one file.
func (s *AnalysisService) Status(ctx context.Context, fileID string) (*FileStatusResponse, error) {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	insightCount, err := s.insights.CountByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to count insights: %w", err)
	}

	return &FileStatusResponse{
		ID:              file.ID,
		OriginalName:    file.OriginalName,
		Status:          file.Status,
		RowCount:        file.RowCount,
		InsightCount:    insightCount,
		DetectedColumns: file.DetectedColumns,
		Aggregates:      file.Aggregates,
		Errors:          file.Errors,
		CreatedAt:       file.CreatedAt,
	}, nil
}

// ListFiles returns recent file records, newest first.
func (s *AnalysisService) ListFiles(ctx context.Context, limit int) ([]*domain.SourceFile, error) {
	return s.files.List(ctx, limit)
}

// Insights returns the insights generated for a file.
func (s *AnalysisService) Insights(ctx context.Context, fileID string) ([]domain.Insight, error) {
	if _, err := s.files.Get(ctx, fileID); err != nil {
		return nil, err
	}
	return s.insights.ListByFile(ctx, fileID)
}

// DismissInsight marks one insight as dismissed.
func (s *AnalysisService) DismissInsight(ctx context.Context, insightID string) error {
	return s.insights.Dismiss(ctx, insightID)
}

// ReportOptions carries the optional knobs of report composition.
type ReportOptions struct {
	DateRange  string   `json:"date_range,omitempty"`
	FocusAreas []string `json:"focus_areas,omitempty"`
}

// ComposeReport drafts, enhances and persists a scouting report for a
// completed file. Enhancement failure degrades to the draft; the report
// always comes back usable.
func (s *AnalysisService) ComposeReport(ctx context.Context, fileID string, opts ReportOptions) (*store.ReportRecord, error) {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status != domain.FileStatusCompleted {
		return nil, fmt.Errorf("%w: file is %s", ErrFileNotCompleted, file.Status)
	}

	insights, err := s.insights.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load insights: %w", err)
	}

	draft, err := s.reportAI.GenerateReport(ctx, ai.ReportRequest{
		Aggregates:     file.Aggregates,
		Interpretation: file.DetectedColumns,
		Insights:       insights,
		Category:       file.Category,
		SubjectName:    s.subjectName(ctx, file),
		DateRange:      opts.DateRange,
		FocusAreas:     opts.FocusAreas,
	})
	if err != nil {
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	final, err := s.reportAI.EnhanceProse(ctx, draft)
	if err != nil {
		// Degraded but usable: EnhanceProse hands the draft back.
		s.logger.WarnContext(ctx, "prose enhancement failed, keeping draft",
			slog.String("file_id", fileID),
			slog.Bool("malformed_response", errors.Is(err, ai.ErrEnhancementMalformed)),
			slog.String("error", err.Error()))
	}

	rec := &store.ReportRecord{
		ID:     uuid.New().String(),
		FileID: fileID,
		Report: final,
	}
	if err := s.reports.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	s.logger.InfoContext(ctx, "report composed",
		slog.String("file_id", fileID),
		slog.String("report_id", rec.ID),
		slog.Int("sections", len(final.Sections)))
	return rec, nil
}

// Report returns the most recent report composed for a file.
func (s *AnalysisService) Report(ctx context.Context, fileID string) (*store.ReportRecord, error) {
	if _, err := s.files.Get(ctx, fileID); err != nil {
		return nil, err
	}
	return s.reports.LatestByFile(ctx, fileID)
}

// subjectName resolves the best display name for the file's subject.
func (s *AnalysisService) subjectName(ctx context.Context, file *domain.SourceFile) string {
	if file.SubjectName != "" {
		return file.SubjectName
	}
	if file.SubjectID == "" {
		return ""
	}
	name, err := s.subjects.DisplayName(ctx, file.SubjectID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to resolve subject name",
				slog.String("subject_id", file.SubjectID),
				slog.String("error", err.Error()))
		}
		return ""
	}
	return name
}
