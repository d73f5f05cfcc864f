package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/store"
)

// Repository handles persistence for ingestion jobs.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

const jobColumns = `id, job_type, sport, league, event_date, team_espn_id, status,
	created_count, updated_count, error_count, last_error,
	enqueued_at, started_at, finished_at, updated_at`

// CreateJob inserts a new queued job row and returns the stored record.
func (r *Repository) CreateJob(ctx context.Context, job *Job) (*Job, error) {
	query := `
		INSERT INTO ingest_jobs (id, job_type, sport, league, event_date, team_espn_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + jobColumns

	row := r.db.DB().QueryRowContext(ctx, query,
		job.ID, job.JobType, job.Sport, job.League, job.EventDate, job.TeamESPNID, job.Status,
	)

	stored, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return stored, nil
}

// ClaimNextJob atomically claims the oldest queued job, or returns nil
// when the queue is empty. Concurrent workers never claim the same row.
func (r *Repository) ClaimNextJob(ctx context.Context) (*Job, error) {
	query := `
		WITH next_job AS (
			SELECT id
			FROM ingest_jobs
			WHERE status = 'queued'
			ORDER BY enqueued_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE ingest_jobs
		SET status = 'running',
			started_at = COALESCE(started_at, NOW()),
			updated_at = NOW()
		FROM next_job
		WHERE ingest_jobs.id = next_job.id
		RETURNING ingest_jobs.id, ingest_jobs.job_type, ingest_jobs.sport, ingest_jobs.league,
			ingest_jobs.event_date, ingest_jobs.team_espn_id, ingest_jobs.status,
			ingest_jobs.created_count, ingest_jobs.updated_count, ingest_jobs.error_count,
			ingest_jobs.last_error, ingest_jobs.enqueued_at, ingest_jobs.started_at,
			ingest_jobs.finished_at, ingest_jobs.updated_at
	`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// RecordResult marks a job completed with its ingestion counts.
func (r *Repository) RecordResult(ctx context.Context, id uuid.UUID, result *ingest.Result) error {
	query := `
		UPDATE ingest_jobs
		SET status = 'completed',
			created_count = $2,
			updated_count = $3,
			error_count = $4,
			last_error = $5,
			finished_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	var lastError sql.NullString
	if len(result.Errors) > 0 {
		lastError = sql.NullString{String: result.Errors[len(result.Errors)-1], Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, id,
		result.Created, result.Updated, len(result.Errors), lastError); err != nil {
		return fmt.Errorf("record job result: %w", err)
	}
	return nil
}

// MarkFailed marks a job failed with the error text.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, jobErr error) error {
	query := `
		UPDATE ingest_jobs
		SET status = 'failed',
			last_error = $2,
			finished_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	var errText sql.NullString
	if jobErr != nil {
		errText = sql.NullString{String: jobErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, id, errText); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// CancelJob moves a queued job to cancelled. Jobs a worker has already
// claimed run to completion; cancelling those returns ErrNotCancellable.
func (r *Repository) CancelJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		UPDATE ingest_jobs
		SET status = 'cancelled',
			finished_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = 'queued'
		RETURNING ` + jobColumns

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the job never existed or it already left the queue.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("job %s: %w", id, ErrNotCancellable)
	}
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	return job, nil
}

// ResetStuckJobs moves running jobs back to queued. Used during service
// restarts so jobs orphaned by a dead process run again.
func (r *Repository) ResetStuckJobs(ctx context.Context) (int64, error) {
	result, err := r.db.DB().ExecContext(ctx, `
		UPDATE ingest_jobs
		SET status = 'queued',
			started_at = NULL,
			updated_at = NOW()
		WHERE status = 'running'
	`)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

// GetByID finds a job by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ingest_jobs WHERE id = $1`

	job, err := scanJob(r.db.DB().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}
	return job, nil
}

// ListRecent returns the most recently enqueued jobs.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ingest_jobs ORDER BY enqueued_at DESC LIMIT $1`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (*Job, error) {
	job := &Job{}
	err := scanner.Scan(
		&job.ID,
		&job.JobType,
		&job.Sport,
		&job.League,
		&job.EventDate,
		&job.TeamESPNID,
		&job.Status,
		&job.CreatedCount,
		&job.UpdatedCount,
		&job.ErrorCount,
		&job.LastError,
		&job.EnqueuedAt,
		&job.StartedAt,
		&job.FinishedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}
