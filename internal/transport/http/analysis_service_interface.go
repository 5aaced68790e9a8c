package http

import (
	"context"

	"scoutlens/internal/services"
	"scoutlens/internal/store"
	"scoutlens/pkg/contracts/domain"
)

// AnalysisServiceInterface is the application surface the handlers
// drive. It is satisfied by services.AnalysisService and stubbed in
// tests.
type AnalysisServiceInterface interface {
	CreateUpload(ctx context.Context, p services.UploadParams) (*services.UploadResult, error)
	Status(ctx context.Context, fileID string) (*services.FileStatusResponse, error)
	ListFiles(ctx context.Context, limit int) ([]*domain.SourceFile, error)
	Insights(ctx context.Context, fileID string) ([]domain.Insight, error)
	DismissInsight(ctx context.Context, insightID string) error
	ComposeReport(ctx context.Context, fileID string, opts services.ReportOptions) (*store.ReportRecord, error)
	Report(ctx context.Context, fileID string) (*store.ReportRecord, error)
}
