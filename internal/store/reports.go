package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scoutlens/pkg/contracts/domain"
)

// ReportRepository persists composed reports.
type ReportRepository struct {
	db *sql.DB
}

// ReportRecord wraps a persisted report with its identity.
type ReportRecord struct {
	ID        string         `json:"id"`
	FileID    string         `json:"file_id"`
	Report    *domain.Report `json:"report"`
	CreatedAt time.Time      `json:"created_at"`
}

// Insert stores a final report for a file.
func (r *ReportRepository) Insert(ctx context.Context, rec *ReportRecord) error {
	rec.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (id, file_id, executive_summary, content_sections, key_metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileID, rec.Report.ExecutiveSummary,
		mustMarshal(rec.Report), mustMarshal(rec.Report.KeyMetrics), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// LatestByFile returns the most recent report for a file.
func (r *ReportRepository) LatestByFile(ctx context.Context, fileID string) (*ReportRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, file_id, content_sections, created_at
		FROM reports WHERE file_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, fileID)

	var (
		rec ReportRecord
		raw string
	)
	err := row.Scan(&rec.ID, &rec.FileID, &raw, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &rec.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report content: %w", err)
	}
	return &rec, nil
}
