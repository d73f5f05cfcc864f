package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/pressbox/internal/ingest"
)

// Runner executes one claimed job and returns its ingestion result.
type Runner interface {
	Run(ctx context.Context, job *Job) (*ingest.Result, error)
}

// IngestRunner dispatches claimed jobs to the ingester.
type IngestRunner struct {
	ingester *ingest.Ingester
}

// NewIngestRunner constructs an IngestRunner.
func NewIngestRunner(ingester *ingest.Ingester) *IngestRunner {
	return &IngestRunner{ingester: ingester}
}

// Run executes the job against the ESPN APIs.
func (r *IngestRunner) Run(ctx context.Context, job *Job) (*ingest.Result, error) {
	switch job.JobType {
	case JobTypeTeams:
		return r.ingester.IngestTeams(ctx, job.Sport, job.League)
	case JobTypeScoreboard:
		var date time.Time
		if job.EventDate.Valid {
			date = job.EventDate.Time
		}
		return r.ingester.IngestScoreboard(ctx, job.Sport, job.League, date)
	case JobTypeRoster:
		if !job.TeamESPNID.Valid {
			return nil, fmt.Errorf("roster job %s missing team_espn_id", job.ID)
		}
		return r.ingester.IngestRoster(ctx, job.Sport, job.League, job.TeamESPNID.String)
	default:
		return nil, fmt.Errorf("unknown job type %s", job.JobType)
	}
}
