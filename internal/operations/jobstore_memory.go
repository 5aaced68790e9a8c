package operations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scoutlens/internal/store"
)

// MemoryJobStore is an in-memory JobStore for tests and local runs
// where durability is not required.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*store.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*store.Job)}
}

// Enqueue stores a new queued job.
func (m *MemoryJobStore) Enqueue(_ context.Context, job *store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	job.Status = store.JobStatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

// MarkRunning transitions a job to running and counts the attempt.
func (m *MemoryJobStore) MarkRunning(_ context.Context, id string) error {
	return m.update(id, func(job *store.Job) {
		job.Status = store.JobStatusRunning
		job.Attempts++
	})
}

// MarkCompleted finalizes a successful job.
func (m *MemoryJobStore) MarkCompleted(_ context.Context, id string) error {
	return m.update(id, func(job *store.Job) {
		job.Status = store.JobStatusCompleted
	})
}

// MarkFailed finalizes a failed job.
func (m *MemoryJobStore) MarkFailed(_ context.Context, id string, errMsg string) error {
	return m.update(id, func(job *store.Job) {
		job.Status = store.JobStatusFailed
		job.Error = errMsg
	})
}

// Unfinished returns queued and running jobs.
func (m *MemoryJobStore) Unfinished(_ context.Context) ([]*store.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var jobs []*store.Job
	for _, job := range m.jobs {
		if job.Status == store.JobStatusQueued || job.Status == store.JobStatusRunning {
			cp := *job
			jobs = append(jobs, &cp)
		}
	}
	return jobs, nil
}

// Get returns one job by id.
func (m *MemoryJobStore) Get(_ context.Context, id string) (*store.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	cp := *job
	return &cp, nil
}

func (m *MemoryJobStore) update(id string, fn func(*store.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}
