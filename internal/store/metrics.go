package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scoutlens/pkg/contracts/domain"
)

// MetricRepository persists one metric record per parsed source row.
type MetricRepository struct {
	db *sql.DB
}

// MetricRecord is one persisted observation row.
type MetricRecord struct {
	ID         int64
	FileID     string
	RawData    domain.Row
	MetricDate string
	CreatedAt  time.Time
}

// InsertBatch writes a batch of rows for one file in a single
// multi-value insert inside a transaction. The caller slices rows into
// batches; a failed batch affects only itself.
func (r *MetricRepository) InsertBatch(ctx context.Context, fileID string, rows []domain.Row, dateColumn string) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin metric batch: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*4)
	for _, row := range rows {
		var metricDate interface{}
		if dateColumn != "" {
			// Dates arrive as text or as spreadsheet serial numbers;
			// render either form.
			if cell, ok := row[dateColumn]; ok && !cell.IsNull() {
				metricDate = cell.String()
			}
		}
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, fileID, mustMarshal(row), metricDate, now)
	}

	query := "INSERT INTO metrics (file_id, raw_data, metric_date, created_at) VALUES " +
		strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert metric batch: %w", err)
	}

	return tx.Commit()
}

// CountByFile returns the number of metric rows persisted for a file.
func (r *MetricRepository) CountByFile(ctx context.Context, fileID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM metrics WHERE file_id = ?`, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count metrics: %w", err)
	}
	return count, nil
}

// ListByFile returns the persisted rows for a file in insertion order.
func (r *MetricRepository) ListByFile(ctx context.Context, fileID string, limit int) ([]MetricRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, raw_data, COALESCE(metric_date, ''), created_at
		FROM metrics WHERE file_id = ? ORDER BY id LIMIT ?`, fileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer rows.Close()

	var records []MetricRecord
	for rows.Next() {
		var (
			rec MetricRecord
			raw string
		)
		if err := rows.Scan(&rec.ID, &rec.FileID, &raw, &rec.MetricDate, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		if err := unmarshalRow(raw, &rec.RawData); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func unmarshalRow(raw string, row *domain.Row) error {
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), row); err != nil {
		return fmt.Errorf("failed to decode metric raw data: %w", err)
	}
	return nil
}
