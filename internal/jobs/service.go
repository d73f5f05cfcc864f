package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/pressbox/internal/ingest"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateJob(ctx context.Context, job *Job) (*Job, error)
	ClaimNextJob(ctx context.Context) (*Job, error)
	RecordResult(ctx context.Context, id uuid.UUID, result *ingest.Result) error
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr error) error
	CancelJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ResetStuckJobs(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	ListRecent(ctx context.Context, limit int) ([]*Job, error)
}

const pollInterval = 3 * time.Second

// Service coordinates job persistence and execution. Call Start to
// launch workers.
type Service struct {
	store   Store
	runner  Runner
	workers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewService constructs a Service with the given worker count.
func NewService(store Store, runner Runner, workers int, logger *log.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[jobs] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		store:   store,
		runner:  runner,
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Start re-queues jobs orphaned by a previous process and launches the
// worker loops.
func (s *Service) Start() {
	requeued, err := s.store.ResetStuckJobs(s.ctx)
	if err != nil {
		s.logger.Printf("⚠️  Failed to reset stuck jobs: %v", err)
	} else if requeued > 0 {
		s.logger.Printf("Re-queued %d job(s) from previous run", requeued)
	}

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Shutdown stops claiming new jobs and waits for in-flight ones until
// the context deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates the request and inserts a queued job.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job, err := s.store.CreateJob(ctx, newJob(req))
	if err != nil {
		return nil, err
	}

	s.logger.Printf("Enqueued %s job %s (%s/%s)", job.JobType, job.ID, job.Sport, job.League)
	return job, nil
}

// GetJob returns a job by id.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.store.GetByID(ctx, id)
}

// CancelJob cancels a job that is still waiting in the queue. Jobs that
// have started are left to finish.
func (s *Service) CancelJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := s.store.CancelJob(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("Cancelled %s job %s (%s/%s)", job.JobType, job.ID, job.Sport, job.League)
	return job, nil
}

// ListJobs returns the most recently enqueued jobs.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.store.ListRecent(ctx, limit)
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.store.ClaimNextJob(s.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				s.logger.Printf("⚠️  Claim job error: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

// executeJob runs a claimed job to completion. The background context
// lets in-flight work finish during shutdown.
func (s *Service) executeJob(job *Job) {
	ctx := context.Background()

	s.logger.Printf("Running %s job %s (%s/%s)", job.JobType, job.ID, job.Sport, job.League)

	result, err := s.runner.Run(ctx, job)
	if err != nil {
		s.logger.Printf("❌ Job %s failed: %v", job.ID, err)
		if markErr := s.store.MarkFailed(ctx, job.ID, err); markErr != nil {
			s.logger.Printf("⚠️  Failed to record job failure: %v", markErr)
		}
		return
	}

	if err := s.store.RecordResult(ctx, job.ID, result); err != nil {
		s.logger.Printf("⚠️  Failed to record job result: %v", err)
		return
	}

	s.logger.Printf("✓ Job %s completed: %d created, %d updated, %d errors",
		job.ID, result.Created, result.Updated, len(result.Errors))
}
