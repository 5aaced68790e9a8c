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

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a conditional update matched no rows,
// meaning the record was not in the expected state.
var ErrConflict = errors.New("record not in expected state")

// FileRepository persists source file records.
type FileRepository struct {
	db *sql.DB
}

const fileColumns = `id, original_name, storage_path, kind, category,
	COALESCE(subject_id, ''), COALESCE(subject_name, ''), level, status,
	row_count, detected_columns, aggregates, errors, created_at, updated_at`

// Create inserts a new file record in pending status.
func (r *FileRepository) Create(ctx context.Context, f *domain.SourceFile) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = domain.FileStatusPending
	}
	if f.Level == "" {
		f.Level = "amateur"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO source_files (id, original_name, storage_path, kind, category,
			subject_id, subject_name, level, status, row_count, errors, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OriginalName, f.StoragePath, f.Kind, f.Category,
		f.SubjectID, f.SubjectName, f.Level, f.Status, f.RowCount,
		mustMarshal(f.Errors), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert source file: %w", err)
	}
	return nil
}

// Get loads a file record by id.
func (r *FileRepository) Get(ctx context.Context, id string) (*domain.SourceFile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM source_files WHERE id = ?`, id)
	return scanFile(row)
}

// MarkProcessing transitions a pending file to processing. Returns
// ErrConflict when the file is not pending, which rejects duplicate
// pipeline invocations.
func (r *FileRepository) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE source_files SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		domain.FileStatusProcessing, time.Now().UTC(), id, domain.FileStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark file processing: %w", err)
	}
	return requireRowAffected(res)
}

// SetInterpretation persists the immutable interpretation result and the
// parsed row count.
func (r *FileRepository) SetInterpretation(ctx context.Context, id string, result *domain.ColumnInterpretationResult, rowCount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE source_files SET detected_columns = ?, row_count = ?, updated_at = ?
		WHERE id = ?`,
		mustMarshal(result), rowCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to persist interpretation: %w", err)
	}
	return requireRowAffected(res)
}

// MarkCompleted finalizes a file with its aggregates and the accumulated
// non-fatal error list. Only a claimed (processing) file can be
// finalized; ErrConflict otherwise, so terminal states stay final.
func (r *FileRepository) MarkCompleted(ctx context.Context, id string, aggregates map[string]domain.AggregateStat, errs []string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE source_files SET status = ?, aggregates = ?, errors = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		domain.FileStatusCompleted, mustMarshal(aggregates), mustMarshal(errs),
		time.Now().UTC(), id, domain.FileStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark file completed: %w", err)
	}
	return requireRowAffected(res)
}

// MarkFailed moves a file to its failed terminal state with the captured
// error list. Like MarkCompleted it requires the processing status, so a
// run that never claimed the file cannot overwrite another run's record.
func (r *FileRepository) MarkFailed(ctx context.Context, id string, errs []string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE source_files SET status = ?, errors = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		domain.FileStatusFailed, mustMarshal(errs), time.Now().UTC(), id,
		domain.FileStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark file failed: %w", err)
	}
	return requireRowAffected(res)
}

// List returns file records ordered by creation time, newest first.
func (r *FileRepository) List(ctx context.Context, limit int) ([]*domain.SourceFile, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM source_files ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	defer rows.Close()

	var files []*domain.SourceFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*domain.SourceFile, error) {
	var (
		f                          domain.SourceFile
		detected, aggregates, errs sql.NullString
	)
	err := row.Scan(&f.ID, &f.OriginalName, &f.StoragePath, &f.Kind, &f.Category,
		&f.SubjectID, &f.SubjectName, &f.Level, &f.Status, &f.RowCount,
		&detected, &aggregates, &errs, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan source file: %w", err)
	}

	if detected.Valid && detected.String != "" {
		if err := json.Unmarshal([]byte(detected.String), &f.DetectedColumns); err != nil {
			return nil, fmt.Errorf("failed to decode detected columns: %w", err)
		}
	}
	if aggregates.Valid && aggregates.String != "" {
		if err := json.Unmarshal([]byte(aggregates.String), &f.Aggregates); err != nil {
			return nil, fmt.Errorf("failed to decode aggregates: %w", err)
		}
	}
	if errs.Valid && errs.String != "" {
		if err := json.Unmarshal([]byte(errs.String), &f.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode error list: %w", err)
		}
	}
	return &f, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func mustMarshal(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
