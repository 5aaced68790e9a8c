package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SubjectRepository persists the players and opponents files are about.
type SubjectRepository struct {
	db *sql.DB
}

// Upsert creates or renames a subject.
func (r *SubjectRepository) Upsert(ctx context.Context, id, displayName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (id, display_name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name`,
		id, displayName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert subject: %w", err)
	}
	return nil
}

// DisplayName resolves a subject id to its display name. Returns
// ErrNotFound for unknown subjects.
func (r *SubjectRepository) DisplayName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name FROM subjects WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve subject: %w", err)
	}
	return name, nil
}
