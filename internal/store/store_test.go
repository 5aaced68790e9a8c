package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutlens/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "scoutlens_test.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestFile(t *testing.T, s *Store) *domain.SourceFile {
	t.Helper()

	f := &domain.SourceFile{
		ID:           uuid.New().String(),
		OriginalName: "batting.csv",
		StoragePath:  "uploads/batting.csv",
		Kind:         domain.FileKindCSV,
		Category:     domain.CategoryOwnTeam,
		SubjectName:  "Jordan Lee",
	}
	require.NoError(t, s.Files.Create(context.Background(), f))
	return f
}

func TestFileLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	loaded, err := s.Files.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusPending, loaded.Status)
	assert.Equal(t, "Jordan Lee", loaded.SubjectName)
	assert.Equal(t, "amateur", loaded.Level)

	require.NoError(t, s.Files.MarkProcessing(ctx, f.ID))

	// A second transition attempt must be rejected.
	err = s.Files.MarkProcessing(ctx, f.ID)
	assert.ErrorIs(t, err, ErrConflict)

	interp := &domain.ColumnInterpretationResult{
		Domain:     "baseball",
		Confidence: 0.9,
		Columns: []domain.ColumnInterpretation{
			{Header: "hits", Name: "Hits", Type: domain.ColumnTypeNumber, KeyMetric: true},
		},
	}
	require.NoError(t, s.Files.SetInterpretation(ctx, f.ID, interp, 42))

	aggregates := map[string]domain.AggregateStat{
		"hits": {Classification: domain.ClassNumeric, Count: 42, Avg: 2.5},
	}
	require.NoError(t, s.Files.MarkCompleted(ctx, f.ID, aggregates, []string{"batch 3 failed"}))

	loaded, err = s.Files.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusCompleted, loaded.Status)
	assert.Equal(t, 42, loaded.RowCount)
	require.NotNil(t, loaded.DetectedColumns)
	assert.Equal(t, "baseball", loaded.DetectedColumns.Domain)
	assert.Equal(t, 2.5, loaded.Aggregates["hits"].Avg)
	assert.Equal(t, []string{"batch 3 failed"}, loaded.Errors)
}

func TestFileGet_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Files.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileMarkFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	require.NoError(t, s.Files.MarkProcessing(ctx, f.ID))
	require.NoError(t, s.Files.MarkFailed(ctx, f.ID, []string{"column interpretation call failed"}))

	loaded, err := s.Files.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusFailed, loaded.Status)
	assert.True(t, loaded.Status.Terminal())
}

func TestFileFinalizeRequiresProcessing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	// Still pending: nobody has claimed the file, so neither terminal
	// transition is allowed.
	err := s.Files.MarkCompleted(ctx, f.ID, nil, nil)
	assert.ErrorIs(t, err, ErrConflict)
	err = s.Files.MarkFailed(ctx, f.ID, []string{"boom"})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.Files.MarkProcessing(ctx, f.ID))
	require.NoError(t, s.Files.MarkCompleted(ctx, f.ID, nil, nil))

	// Terminal states are final.
	err = s.Files.MarkFailed(ctx, f.ID, []string{"late failure"})
	assert.ErrorIs(t, err, ErrConflict)

	loaded, err := s.Files.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusCompleted, loaded.Status)
}

func TestMetricBatchInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	rows := []domain.Row{
		{"date": domain.TextCell("2024-05-01"), "hits": domain.NumberCell(2)},
		{"date": domain.TextCell("2024-05-02"), "hits": domain.NumberCell(3)},
	}
	require.NoError(t, s.Metrics.InsertBatch(ctx, f.ID, rows, "date"))

	count, err := s.Metrics.CountByFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := s.Metrics.ListByFile(ctx, f.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-05-01", records[0].MetricDate)
	assert.Equal(t, 2.0, records[0].RawData["hits"].Number)
}

func TestMetricBatchInsert_NumericDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	// Spreadsheet serial dates arrive as numbers, not text.
	rows := []domain.Row{
		{"date": domain.NumberCell(45413), "hits": domain.NumberCell(2)},
		{"date": domain.NullCell(), "hits": domain.NumberCell(1)},
	}
	require.NoError(t, s.Metrics.InsertBatch(ctx, f.ID, rows, "date"))

	records, err := s.Metrics.ListByFile(ctx, f.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "45413", records[0].MetricDate)
	assert.Empty(t, records[1].MetricDate)
}

func TestMetricBatchInsert_Empty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Metrics.InsertBatch(context.Background(), "any", nil, ""))
}

func TestInsightInsertListDismiss(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	insights := []domain.Insight{
		{
			ID:          uuid.New().String(),
			FileID:      f.ID,
			Type:        domain.InsightStrength,
			Title:       "Strong contact hitter",
			Confidence:  0.9,
			ActionItems: []string{"keep batting second"},
			CreatedAt:   time.Now().UTC(),
		},
		{
			ID:         uuid.New().String(),
			FileID:     f.ID,
			Type:       domain.InsightWeakness,
			Title:      "Struggles against lefties",
			Confidence: 0.6,
			CreatedAt:  time.Now().UTC(),
		},
	}
	require.NoError(t, s.Insights.InsertAll(ctx, insights))

	listed, err := s.Insights.ListByFile(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	// Highest confidence first.
	assert.Equal(t, "Strong contact hitter", listed[0].Title)
	assert.Equal(t, []string{"keep batting second"}, listed[0].ActionItems)

	count, err := s.Insights.CountByFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.Insights.Dismiss(ctx, insights[1].ID))
	listed, err = s.Insights.ListByFile(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, listed[1].Dismissed)

	assert.ErrorIs(t, s.Insights.Dismiss(ctx, "missing"), ErrNotFound)
}

func TestReportInsertAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	_, err := s.Reports.LatestByFile(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	report := &domain.Report{
		ExecutiveSummary: "Solid season with room to grow.",
		Sections: []domain.ReportSection{
			{Type: "hitting", Title: "Hitting", Content: "...", KeyPoints: []string{"contact"}},
		},
		KeyMetrics: []domain.ReportMetric{
			{Name: "batting_average", Value: "0.310", Assessment: "above_average"},
		},
	}
	require.NoError(t, s.Reports.Insert(ctx, &ReportRecord{
		ID:     uuid.New().String(),
		FileID: f.ID,
		Report: report,
	}))

	latest, err := s.Reports.LatestByFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ExecutiveSummary, latest.Report.ExecutiveSummary)
	require.Len(t, latest.Report.KeyMetrics, 1)
	assert.Equal(t, "0.310", latest.Report.KeyMetrics[0].Value)
}

func TestSubjectUpsertAndResolve(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Subjects.Upsert(ctx, "player-1", "Jordan Lee"))
	require.NoError(t, s.Subjects.Upsert(ctx, "player-1", "Jordan A. Lee"))

	name, err := s.Subjects.DisplayName(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, "Jordan A. Lee", name)

	_, err = s.Subjects.DisplayName(ctx, "player-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobLifecycleAndRecovery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	f := createTestFile(t, s)

	job := &Job{ID: uuid.New().String(), FileID: f.ID}
	require.NoError(t, s.Jobs.Enqueue(ctx, job))

	unfinished, err := s.Jobs.Unfinished(ctx)
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, JobStatusQueued, unfinished[0].Status)

	require.NoError(t, s.Jobs.MarkRunning(ctx, job.ID))

	// A job still running after a crash is also recoverable.
	unfinished, err = s.Jobs.Unfinished(ctx)
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, JobStatusRunning, unfinished[0].Status)
	assert.Equal(t, 1, unfinished[0].Attempts)

	require.NoError(t, s.Jobs.MarkCompleted(ctx, job.ID))

	unfinished, err = s.Jobs.Unfinished(ctx)
	require.NoError(t, err)
	assert.Empty(t, unfinished)

	loaded, err := s.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, loaded.Status)

	failed := &Job{ID: uuid.New().String(), FileID: f.ID}
	require.NoError(t, s.Jobs.Enqueue(ctx, failed))
	require.NoError(t, s.Jobs.MarkRunning(ctx, failed.ID))
	require.NoError(t, s.Jobs.MarkFailed(ctx, failed.ID, "pipeline exploded"))

	loaded, err = s.Jobs.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, loaded.Status)
	assert.Equal(t, "pipeline exploded", loaded.Error)
}
