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

// InsightRepository persists generated insights.
type InsightRepository struct {
	db *sql.DB
}

// InsertAll writes the given insights in one transaction.
func (r *InsightRepository) InsertAll(ctx context.Context, insights []domain.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insight insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO insights (id, file_id, insight_type, title, description,
			confidence, supporting_data, action_items, dismissed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insight insert: %w", err)
	}
	defer stmt.Close()

	for _, ins := range insights {
		if _, err := stmt.ExecContext(ctx, ins.ID, ins.FileID, ins.Type, ins.Title,
			ins.Description, ins.Confidence, mustMarshal(ins.SupportingData),
			mustMarshal(ins.ActionItems), ins.Dismissed, ins.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert insight %s: %w", ins.ID, err)
		}
	}
	return tx.Commit()
}

// ListByFile returns a file's insights, most confident first.
func (r *InsightRepository) ListByFile(ctx context.Context, fileID string) ([]domain.Insight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, insight_type, title, COALESCE(description, ''),
			confidence, supporting_data, action_items, dismissed, created_at
		FROM insights WHERE file_id = ?
		ORDER BY confidence DESC, created_at`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var insights []domain.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, *ins)
	}
	return insights, rows.Err()
}

// CountByFile returns the number of insights stored for a file.
func (r *InsightRepository) CountByFile(ctx context.Context, fileID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM insights WHERE file_id = ?`, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}
	return count, nil
}

// Dismiss soft-flags an insight as reviewed and set aside.
func (r *InsightRepository) Dismiss(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE insights SET dismissed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to dismiss insight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInsight(row rowScanner) (*domain.Insight, error) {
	var (
		ins                        domain.Insight
		supportingData, actionItem sql.NullString
		created                    time.Time
	)
	err := row.Scan(&ins.ID, &ins.FileID, &ins.Type, &ins.Title, &ins.Description,
		&ins.Confidence, &supportingData, &actionItem, &ins.Dismissed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan insight: %w", err)
	}
	ins.CreatedAt = created

	if supportingData.Valid && supportingData.String != "" && supportingData.String != "null" {
		if err := json.Unmarshal([]byte(supportingData.String), &ins.SupportingData); err != nil {
			return nil, fmt.Errorf("failed to decode supporting data: %w", err)
		}
	}
	if actionItem.Valid && actionItem.String != "" && actionItem.String != "null" {
		if err := json.Unmarshal([]byte(actionItem.String), &ins.ActionItems); err != nil {
			return nil, fmt.Errorf("failed to decode action items: %w", err)
		}
	}
	return &ins, nil
}
