package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"scoutlens/internal/store"
	"scoutlens/pkg/contracts/domain"
)

// ErrFileNotPending is returned when a pipeline run is requested for a
// file that is not in the pending state. Duplicate invocations are
// rejected here, at the enqueue boundary, instead of racing on status
// writes mid-run.
var ErrFileNotPending = errors.New("file is not pending")

// ErrQueueFull is returned when the queue cannot accept more jobs.
var ErrQueueFull = errors.New("job queue is full")

// JobStore is the durable job persistence the queue needs. Jobs survive
// restarts so interrupted runs can be recovered.
type JobStore interface {
	Enqueue(ctx context.Context, job *store.Job) error
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Unfinished(ctx context.Context) ([]*store.Job, error)
}

// queuedJob pairs a durable job with how it entered the queue. Recovered
// jobs may resume a file this process already claimed; fresh jobs must
// claim it themselves.
type queuedJob struct {
	job       *store.Job
	recovered bool
}

// Queue executes pipeline runs asynchronously on a bounded worker pool.
// Upload handlers enqueue and return immediately; callers observe
// progress by polling the file's status.
type Queue struct {
	jobs         chan queuedJob
	workers      int
	wg           sync.WaitGroup
	jobStore     JobStore
	files        FileStore
	orchestrator *Orchestrator
	logger       *slog.Logger
	shutdown     chan struct{}
	stopOnce     sync.Once
}

// NewQueue creates a job queue.
func NewQueue(workers, queueSize int, jobStore JobStore, files FileStore, orchestrator *Orchestrator, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		jobs:         make(chan queuedJob, queueSize),
		workers:      workers,
		jobStore:     jobStore,
		files:        files,
		orchestrator: orchestrator,
		logger:       logger.With(slog.String("component", "jobqueue")),
		shutdown:     make(chan struct{}),
	}
}

// Start launches the workers and recovers jobs interrupted by a
// previous shutdown or crash.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	go q.recoverJobs(ctx)
}

// Stop drains the workers, waiting up to timeout.
func (q *Queue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	q.stopOnce.Do(func() { close(q.shutdown) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("job queue did not drain within %s", timeout)
	}
}

// Enqueue creates a durable job for a pending file and queues it.
// Returns the job id.
func (q *Queue) Enqueue(ctx context.Context, fileID string) (string, error) {
	file, err := q.files.Get(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("failed to load file for enqueue: %w", err)
	}
	if file.Status != domain.FileStatusPending {
		return "", fmt.Errorf("%w: file %s is %s", ErrFileNotPending, fileID, file.Status)
	}

	job := &store.Job{ID: uuid.New().String(), FileID: fileID}
	if err := q.jobStore.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}

	select {
	case q.jobs <- queuedJob{job: job}:
		q.logger.InfoContext(ctx, "job enqueued",
			slog.String("job_id", job.ID),
			slog.String("file_id", fileID))
		return job.ID, nil
	default:
		if err := q.jobStore.MarkFailed(ctx, job.ID, ErrQueueFull.Error()); err != nil {
			q.logger.ErrorContext(ctx, "failed to mark overflowed job",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()))
		}
		return "", ErrQueueFull
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", id))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.shutdown:
			return
		case qj := <-q.jobs:
			q.processJob(ctx, qj, logger)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, qj queuedJob, logger *slog.Logger) {
	job := qj.job
	logger = logger.With(
		slog.String("job_id", job.ID),
		slog.String("file_id", job.FileID))

	defer func() {
		if rvr := recover(); rvr != nil {
			msg := fmt.Sprintf("pipeline panic: %v", rvr)
			logger.Error("recovered from pipeline panic",
				slog.Any("panic", rvr),
				slog.String("stack", string(debug.Stack())))
			if err := q.jobStore.MarkFailed(ctx, job.ID, msg); err != nil {
				logger.Error("failed to mark panicked job", slog.String("error", err.Error()))
			}
			// The file must not be left stuck in processing.
			if err := q.files.MarkFailed(ctx, job.FileID, []string{msg}); err != nil {
				logger.Error("failed to mark file after panic", slog.String("error", err.Error()))
			}
		}
	}()

	if err := q.jobStore.MarkRunning(ctx, job.ID); err != nil {
		logger.Error("failed to mark job running", slog.String("error", err.Error()))
		return
	}

	run := q.orchestrator.Run
	if qj.recovered {
		run = q.orchestrator.Resume
	}
	summary, err := run(ctx, job.FileID)
	if err != nil {
		if markErr := q.jobStore.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			logger.Error("failed to mark job failed", slog.String("error", markErr.Error()))
		}
		return
	}

	if err := q.jobStore.MarkCompleted(ctx, job.ID); err != nil {
		logger.Error("failed to mark job completed", slog.String("error", err.Error()))
	}
	logger.Info("job finished",
		slog.Int("rows", summary.RowCount),
		slog.Int("insights", summary.InsightCount))
}

// recoverJobs re-queues jobs that were queued or running when the
// process last stopped.
func (q *Queue) recoverJobs(ctx context.Context) {
	jobs, err := q.jobStore.Unfinished(ctx)
	if err != nil {
		q.logger.Error("failed to list unfinished jobs", slog.String("error", err.Error()))
		return
	}
	if len(jobs) == 0 {
		return
	}

	q.logger.Info("recovering interrupted jobs", slog.Int("count", len(jobs)))
	for _, job := range jobs {
		select {
		case q.jobs <- queuedJob{job: job, recovered: true}:
			q.logger.Info("recovered job",
				slog.String("job_id", job.ID),
				slog.String("file_id", job.FileID))
		default:
			q.logger.Warn("could not recover job, queue full",
				slog.String("job_id", job.ID))
		}
	}
}
