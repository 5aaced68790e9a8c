package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutlens/internal/ai"
	"scoutlens/internal/store"
	"scoutlens/internal/validation"
	"scoutlens/pkg/contracts/domain"
)

type stubFiles struct {
	created []*domain.SourceFile
	files   map[string]*domain.SourceFile
	getErr  error
}

func (s *stubFiles) Create(_ context.Context, f *domain.SourceFile) error {
	s.created = append(s.created, f)
	if s.files == nil {
		s.files = make(map[string]*domain.SourceFile)
	}
	s.files[f.ID] = f
	return nil
}

func (s *stubFiles) Get(_ context.Context, id string) (*domain.SourceFile, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	f, ok := s.files[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (s *stubFiles) List(_ context.Context, _ int) ([]*domain.SourceFile, error) {
	out := make([]*domain.SourceFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	return out, nil
}

type stubInsights struct {
	insights  []domain.Insight
	listErr   error
	dismissed []string
}

func (s *stubInsights) ListByFile(_ context.Context, _ string) ([]domain.Insight, error) {
	return s.insights, s.listErr
}

func (s *stubInsights) CountByFile(_ context.Context, _ string) (int, error) {
	return len(s.insights), nil
}

func (s *stubInsights) Dismiss(_ context.Context, id string) error {
	if id == "missing" {
		return store.ErrNotFound
	}
	s.dismissed = append(s.dismissed, id)
	return nil
}

type stubReports struct {
	inserted []*store.ReportRecord
	latest   *store.ReportRecord
}

func (s *stubReports) Insert(_ context.Context, rec *store.ReportRecord) error {
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *stubReports) LatestByFile(_ context.Context, _ string) (*store.ReportRecord, error) {
	if s.latest == nil {
		return nil, store.ErrNotFound
	}
	return s.latest, nil
}

type stubSubjects struct {
	upserts map[string]string
	names   map[string]string
}

func (s *stubSubjects) Upsert(_ context.Context, id, name string) error {
	if s.upserts == nil {
		s.upserts = make(map[string]string)
	}
	s.upserts[id] = name
	return nil
}

func (s *stubSubjects) DisplayName(_ context.Context, id string) (string, error) {
	name, ok := s.names[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return name, nil
}

type stubBlobs struct {
	saved map[string][]byte
	err   error
}

func (s *stubBlobs) Save(id, filename string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	path := id + "/" + filename
	s.saved[path] = data
	return path, nil
}

type stubQueue struct {
	enqueued []string
	err      error
}

func (s *stubQueue) Enqueue(_ context.Context, fileID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.enqueued = append(s.enqueued, fileID)
	return "job-" + fileID, nil
}

type stubReportAI struct {
	draft      *domain.Report
	draftErr   error
	enhanced   *domain.Report
	enhanceErr error
	lastReq    ai.ReportRequest
}

func (s *stubReportAI) GenerateReport(_ context.Context, req ai.ReportRequest) (*domain.Report, error) {
	s.lastReq = req
	return s.draft, s.draftErr
}

func (s *stubReportAI) EnhanceProse(_ context.Context, draft *domain.Report) (*domain.Report, error) {
	if s.enhanceErr != nil {
		return draft, s.enhanceErr
	}
	if s.enhanced != nil {
		return s.enhanced, nil
	}
	return draft, nil
}

type serviceFixture struct {
	svc      *AnalysisService
	files    *stubFiles
	insights *stubInsights
	reports  *stubReports
	subjects *stubSubjects
	blobs    *stubBlobs
	queue    *stubQueue
	reportAI *stubReportAI
}

func newServiceFixture() *serviceFixture {
	fx := &serviceFixture{
		files:    &stubFiles{files: make(map[string]*domain.SourceFile)},
		insights: &stubInsights{},
		reports:  &stubReports{},
		subjects: &stubSubjects{},
		blobs:    &stubBlobs{},
		queue:    &stubQueue{},
		reportAI: &stubReportAI{},
	}
	fx.svc = NewAnalysisService(AnalysisServiceConfig{
		Files:     fx.files,
		Insights:  fx.insights,
		Reports:   fx.reports,
		Subjects:  fx.subjects,
		Blobs:     fx.blobs,
		Queue:     fx.queue,
		ReportAI:  fx.reportAI,
		Validator: validation.NewUploadValidator(1 << 20),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return fx
}

func completedFile(id string) *domain.SourceFile {
	return &domain.SourceFile{
		ID:          id,
		Category:    domain.CategoryOwnTeam,
		SubjectName: "Jordan Lee",
		Status:      domain.FileStatusCompleted,
		RowCount:    40,
		Aggregates: map[string]domain.AggregateStat{
			"hits": {Classification: domain.ClassNumeric, Count: 40, Avg: 1.8},
		},
		DetectedColumns: &domain.ColumnInterpretationResult{Domain: "baseball", Confidence: 0.9},
	}
}

func TestCreateUpload(t *testing.T) {
	fx := newServiceFixture()

	result, err := fx.svc.CreateUpload(context.Background(), UploadParams{
		Filename:    "spring stats.csv",
		Size:        128,
		Category:    "own_team",
		SubjectID:   "player-9",
		SubjectName: "Jordan Lee",
		Level:       "collegiate",
		Data:        []byte("date,hits\n2024-05-01,2\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FileStatusPending, result.File.Status)
	assert.Equal(t, domain.FileKindCSV, result.File.Kind)
	assert.Equal(t, domain.CategoryOwnTeam, result.File.Category)
	assert.Equal(t, "spring stats.csv", result.File.OriginalName)
	assert.Equal(t, "job-"+result.File.ID, result.JobID)

	// Blob saved under the sanitized name, record points at it.
	assert.Contains(t, result.File.StoragePath, "spring_stats.csv")
	assert.Len(t, fx.blobs.saved, 1)
	assert.Equal(t, "Jordan Lee", fx.subjects.upserts["player-9"])
	assert.Equal(t, []string{result.File.ID}, fx.queue.enqueued)
}

func TestCreateUpload_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params UploadParams
	}{
		{
			name:   "unsupported extension",
			params: UploadParams{Filename: "notes.pdf", Size: 10, Category: "own_team"},
		},
		{
			name:   "oversize",
			params: UploadParams{Filename: "big.csv", Size: 2 << 20, Category: "own_team"},
		},
		{
			name:   "bad category",
			params: UploadParams{Filename: "stats.csv", Size: 10, Category: "rivals"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newServiceFixture()
			_, err := fx.svc.CreateUpload(context.Background(), tt.params)
			require.Error(t, err)

			var uploadErr *validation.UploadError
			assert.ErrorAs(t, err, &uploadErr)
			// Nothing was stored or enqueued for a rejected upload.
			assert.Empty(t, fx.blobs.saved)
			assert.Empty(t, fx.files.created)
			assert.Empty(t, fx.queue.enqueued)
		})
	}
}

func TestCreateUpload_EnqueueFailure(t *testing.T) {
	fx := newServiceFixture()
	fx.queue.err = errors.New("queue is full")

	_, err := fx.svc.CreateUpload(context.Background(), UploadParams{
		Filename: "stats.csv", Size: 10, Category: "own_team", Data: []byte("a,b\n1,2\n"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}

func TestStatus(t *testing.T) {
	fx := newServiceFixture()
	file := completedFile("f1")
	file.Errors = []string{"insight generation failed: model overloaded"}
	fx.files.files["f1"] = file
	fx.insights.insights = []domain.Insight{
		{ID: "i1", Type: domain.InsightStrength},
		{ID: "i2", Type: domain.InsightWeakness},
	}

	status, err := fx.svc.Status(context.Background(), "f1")
	require.NoError(t, err)

	assert.Equal(t, domain.FileStatusCompleted, status.Status)
	assert.Equal(t, 40, status.RowCount)
	assert.Equal(t, 2, status.InsightCount)
	assert.Equal(t, file.Errors, status.Errors)
	assert.NotNil(t, status.DetectedColumns)
}

func TestStatus_NotFound(t *testing.T) {
	fx := newServiceFixture()
	_, err := fx.svc.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsightsAndDismiss(t *testing.T) {
	fx := newServiceFixture()
	fx.files.files["f1"] = completedFile("f1")
	fx.insights.insights = []domain.Insight{{ID: "i1"}}

	insights, err := fx.svc.Insights(context.Background(), "f1")
	require.NoError(t, err)
	assert.Len(t, insights, 1)

	_, err = fx.svc.Insights(context.Background(), "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, fx.svc.DismissInsight(context.Background(), "i1"))
	assert.Equal(t, []string{"i1"}, fx.insights.dismissed)
	assert.ErrorIs(t, fx.svc.DismissInsight(context.Background(), "missing"), store.ErrNotFound)
}

func TestComposeReport(t *testing.T) {
	fx := newServiceFixture()
	fx.files.files["f1"] = completedFile("f1")
	fx.insights.insights = []domain.Insight{{ID: "i1", Title: "Contact hitter"}}
	fx.reportAI.draft = &domain.Report{ExecutiveSummary: "draft summary"}
	fx.reportAI.enhanced = &domain.Report{ExecutiveSummary: "polished summary"}

	rec, err := fx.svc.ComposeReport(context.Background(), "f1", ReportOptions{DateRange: "2024 season"})
	require.NoError(t, err)

	assert.Equal(t, "polished summary", rec.Report.ExecutiveSummary)
	require.Len(t, fx.reports.inserted, 1)
	assert.Equal(t, "f1", fx.reports.inserted[0].FileID)

	assert.Equal(t, "Jordan Lee", fx.reportAI.lastReq.SubjectName)
	assert.Equal(t, "2024 season", fx.reportAI.lastReq.DateRange)
	assert.Len(t, fx.reportAI.lastReq.Insights, 1)
}

func TestComposeReport_EnhancementFailureKeepsDraft(t *testing.T) {
	fx := newServiceFixture()
	fx.files.files["f1"] = completedFile("f1")
	fx.reportAI.draft = &domain.Report{ExecutiveSummary: "draft summary"}
	fx.reportAI.enhanceErr = fmt.Errorf("%w: bad payload", ai.ErrEnhancementMalformed)

	rec, err := fx.svc.ComposeReport(context.Background(), "f1", ReportOptions{})
	require.NoError(t, err)

	// The draft is persisted as final when enhancement degrades.
	assert.Equal(t, "draft summary", rec.Report.ExecutiveSummary)
	require.Len(t, fx.reports.inserted, 1)
}

func TestComposeReport_RequiresCompletedFile(t *testing.T) {
	for _, status := range []domain.FileStatus{
		domain.FileStatusPending,
		domain.FileStatusProcessing,
		domain.FileStatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			fx := newServiceFixture()
			file := completedFile("f1")
			file.Status = status
			fx.files.files["f1"] = file

			_, err := fx.svc.ComposeReport(context.Background(), "f1", ReportOptions{})
			assert.ErrorIs(t, err, ErrFileNotCompleted)
			assert.Empty(t, fx.reports.inserted)
		})
	}
}

func TestComposeReport_GenerationFailureIsFatal(t *testing.T) {
	fx := newServiceFixture()
	fx.files.files["f1"] = completedFile("f1")
	fx.reportAI.draftErr = errors.New("model unavailable")

	_, err := fx.svc.ComposeReport(context.Background(), "f1", ReportOptions{})
	require.Error(t, err)
	assert.Empty(t, fx.reports.inserted)
}

func TestComposeReport_ResolvesSubjectFromStore(t *testing.T) {
	fx := newServiceFixture()
	file := completedFile("f1")
	file.SubjectName = ""
	file.SubjectID = "player-9"
	fx.files.files["f1"] = file
	fx.subjects.names = map[string]string{"player-9": "Alex Rivera"}
	fx.reportAI.draft = &domain.Report{ExecutiveSummary: "draft"}

	_, err := fx.svc.ComposeReport(context.Background(), "f1", ReportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Alex Rivera", fx.reportAI.lastReq.SubjectName)
}

func TestReport(t *testing.T) {
	fx := newServiceFixture()
	fx.files.files["f1"] = completedFile("f1")

	_, err := fx.svc.Report(context.Background(), "f1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	fx.reports.latest = &store.ReportRecord{ID: "r1", FileID: "f1"}
	rec, err := fx.svc.Report(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
}
