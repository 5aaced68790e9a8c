package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a durable pipeline job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is a durable record of one pipeline run. Jobs survive process
// restarts so interrupted runs can be recovered instead of silently lost.
type Job struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobRepository persists pipeline jobs.
type JobRepository struct {
	db *sql.DB
}

// Enqueue inserts a new queued job.
func (r *JobRepository) Enqueue(ctx context.Context, job *Job) error {
	now := time.Now().UTC()
	job.Status = JobStatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, file_id, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		job.ID, job.FileID, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// MarkRunning transitions a job to running and counts the attempt.
func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, JobStatusRunning, "", true)
}

// MarkCompleted finalizes a successful job.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, JobStatusCompleted, "", false)
}

// MarkFailed finalizes a failed job with its error message.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.setStatus(ctx, id, JobStatusFailed, errMsg, false)
}

func (r *JobRepository) setStatus(ctx context.Context, id string, status JobStatus, errMsg string, countAttempt bool) error {
	query := `UPDATE jobs SET status = ?, error = NULLIF(?, ''), updated_at = ?`
	if countAttempt {
		query += `, attempts = attempts + 1`
	}
	query += ` WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return requireRowAffected(res)
}

// Unfinished returns jobs that were queued or running, oldest first.
// Called at startup to recover work interrupted by a crash.
func (r *JobRepository) Unfinished(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_id, status, attempts, COALESCE(error, ''), created_at, updated_at
		FROM jobs WHERE status IN (?, ?) ORDER BY created_at`,
		JobStatusQueued, JobStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.FileID, &job.Status, &job.Attempts,
			&job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// Get loads one job by id.
func (r *JobRepository) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := r.db.QueryRowContext(ctx, `
		SELECT id, file_id, status, attempts, COALESCE(error, ''), created_at, updated_at
		FROM jobs WHERE id = ?`, id).
		Scan(&job.ID, &job.FileID, &job.Status, &job.Attempts,
			&job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	return &job, nil
}
