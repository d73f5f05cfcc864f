package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType enumerates the supported ingestion job variants.
type JobType string

const (
	JobTypeTeams      JobType = "ingest_teams"
	JobTypeScoreboard JobType = "ingest_scoreboard"
	JobTypeRoster     JobType = "ingest_roster"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ErrInvalidRequest marks enqueue requests that fail validation.
// Callers classify with errors.Is.
var ErrInvalidRequest = errors.New("invalid job request")

// ErrNotCancellable marks cancel attempts on jobs that already left the
// queue. Callers classify with errors.Is.
var ErrNotCancellable = errors.New("job is not queued")

// Job models the database representation of an ingestion job.
type Job struct {
	ID           uuid.UUID
	JobType      JobType
	Sport        string
	League       string
	EventDate    sql.NullTime
	TeamESPNID   sql.NullString
	Status       JobStatus
	CreatedCount int
	UpdatedCount int
	ErrorCount   int
	LastError    sql.NullString
	EnqueuedAt   time.Time
	StartedAt    sql.NullTime
	FinishedAt   sql.NullTime
	UpdatedAt    time.Time
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// Request describes a job to enqueue.
type Request struct {
	Type       JobType
	Sport      string
	League     string
	Date       time.Time
	TeamESPNID string
}

// Validate checks the request fields against the job type.
func (r Request) Validate() error {
	switch r.Type {
	case JobTypeTeams, JobTypeScoreboard, JobTypeRoster:
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrInvalidRequest, r.Type)
	}

	if r.Sport == "" || r.League == "" {
		return fmt.Errorf("%w: sport and league are required", ErrInvalidRequest)
	}
	if r.Type == JobTypeRoster && r.TeamESPNID == "" {
		return fmt.Errorf("%w: roster jobs require team_espn_id", ErrInvalidRequest)
	}

	return nil
}

// newJob builds the queued row for a validated request.
func newJob(req Request) *Job {
	job := &Job{
		ID:      uuid.New(),
		JobType: req.Type,
		Sport:   req.Sport,
		League:  req.League,
		Status:  JobStatusQueued,
	}

	if !req.Date.IsZero() {
		job.EventDate = sql.NullTime{Time: req.Date, Valid: true}
	}
	if req.TeamESPNID != "" {
		job.TeamESPNID = sql.NullString{String: req.TeamESPNID, Valid: true}
	}

	return job
}
