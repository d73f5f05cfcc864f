package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/jobs"
	"github.com/fortuna/pressbox/internal/store"
	"github.com/fortuna/pressbox/internal/store/repository"
)

// Warn once live polling has failed this many times in a row.
const failureWarningThreshold = 5

// Pair identifies one sport/league combination to refresh.
type Pair struct {
	Sport  string
	League string
}

// Config holds scheduler configuration
type Config struct {
	ScoreboardInterval time.Duration // Default: 1h
	TeamsInterval      time.Duration // Default: 168h (weekly)
	LivePollInterval   time.Duration // Default: 1m
	EnableLivePolling  bool          // Default: true
	LivePairs          []Pair        // scoreboard refresh and live polling
	TeamPairs          []Pair        // weekly team refresh
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		ScoreboardInterval: time.Hour,
		TeamsInterval:      168 * time.Hour,
		LivePollInterval:   time.Minute,
		EnableLivePolling:  true,
		LivePairs: []Pair{
			{Sport: "basketball", League: "nba"},
			{Sport: "football", League: "nfl"},
		},
		TeamPairs: []Pair{
			{Sport: "basketball", League: "nba"},
			{Sport: "basketball", League: "wnba"},
			{Sport: "football", League: "nfl"},
			{Sport: "baseball", League: "mlb"},
			{Sport: "hockey", League: "nhl"},
		},
	}
}

// Enqueuer inserts ingestion jobs for the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, req jobs.Request) (*jobs.Job, error)
}

// ScoreboardIngester re-ingests a live scoreboard directly, bypassing
// the job queue.
type ScoreboardIngester interface {
	IngestScoreboard(ctx context.Context, sport, league string, date time.Time) (*ingest.Result, error)
}

// EventCounter counts stored events.
type EventCounter interface {
	Count(ctx context.Context, filter repository.EventFilter) (int, error)
}

// Orchestrator manages scheduled refresh tasks
type Orchestrator struct {
	jobs     Enqueuer
	ingester ScoreboardIngester
	events   EventCounter
	config   *Config
	cancel   context.CancelFunc
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(queue Enqueuer, ingester ScoreboardIngester, events EventCounter, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		jobs:     queue,
		ingester: ingester,
		events:   events,
		config:   config,
	}
}

// Start begins all scheduled tasks and blocks until the context is
// cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║    Pressbox Scheduler Orchestrator     ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Scoreboard refresh: every %v for %d league(s)", o.config.ScoreboardInterval, len(o.config.LivePairs))
	log.Printf("Teams refresh: every %v for %d league(s)", o.config.TeamsInterval, len(o.config.TeamPairs))
	log.Printf("Live polling: %v (interval: %v)", o.config.EnableLivePolling, o.config.LivePollInterval)

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	go o.runScoreboardRefresh(ctx)
	go o.runTeamsRefresh(ctx)

	if o.config.EnableLivePolling {
		go o.runLivePolling(ctx)
	}

	<-ctx.Done()
	log.Println("[scheduler] Orchestrator stopping...")
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// runScoreboardRefresh enqueues scoreboard jobs on a fixed cadence. The
// first round runs immediately so a fresh deploy has data.
func (o *Orchestrator) runScoreboardRefresh(ctx context.Context) {
	log.Printf("[scheduler] → Scoreboard refresh started (interval: %v)", o.config.ScoreboardInterval)

	ticker := time.NewTicker(o.config.ScoreboardInterval)
	defer ticker.Stop()

	o.enqueueForPairs(ctx, jobs.JobTypeScoreboard, o.config.LivePairs)

	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] → Scoreboard refresh stopped")
			return
		case <-ticker.C:
			o.enqueueForPairs(ctx, jobs.JobTypeScoreboard, o.config.LivePairs)
		}
	}
}

// runTeamsRefresh enqueues team jobs on a weekly cadence, starting with
// an immediate round.
func (o *Orchestrator) runTeamsRefresh(ctx context.Context) {
	log.Printf("[scheduler] → Teams refresh started (interval: %v)", o.config.TeamsInterval)

	ticker := time.NewTicker(o.config.TeamsInterval)
	defer ticker.Stop()

	o.enqueueForPairs(ctx, jobs.JobTypeTeams, o.config.TeamPairs)

	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] → Teams refresh stopped")
			return
		case <-ticker.C:
			o.enqueueForPairs(ctx, jobs.JobTypeTeams, o.config.TeamPairs)
		}
	}
}

func (o *Orchestrator) enqueueForPairs(ctx context.Context, jobType jobs.JobType, pairs []Pair) {
	for _, pair := range pairs {
		_, err := o.jobs.Enqueue(ctx, jobs.Request{
			Type:   jobType,
			Sport:  pair.Sport,
			League: pair.League,
		})
		if err != nil {
			log.Printf("[scheduler] ⚠️  Failed to enqueue %s for %s/%s: %v", jobType, pair.Sport, pair.League, err)
		}
	}
}

// runLivePolling re-ingests scoreboards while games are in progress so
// scores stay fresh between hourly refreshes.
func (o *Orchestrator) runLivePolling(ctx context.Context) {
	log.Printf("[scheduler] → Live polling started (interval: %v)", o.config.LivePollInterval)

	ticker := time.NewTicker(o.config.LivePollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	for {
		select {
		case <-ctx.Done():
			log.Println("[scheduler] → Live polling stopped")
			return
		case <-ticker.C:
			o.pollLiveScoreboards(ctx, &consecutiveFailures)
		}
	}
}

// pollLiveScoreboards refreshes every pair with at least one in-progress
// event today. A failing run leaves stored rows untouched.
func (o *Orchestrator) pollLiveScoreboards(ctx context.Context, consecutiveFailures *int) {
	failed := false

	for _, pair := range o.config.LivePairs {
		live, err := o.countLiveEvents(ctx, pair)
		if err != nil {
			log.Printf("[scheduler] ⚠️  Live count failed for %s/%s: %v", pair.Sport, pair.League, err)
			failed = true
			continue
		}
		if live == 0 {
			continue
		}

		log.Printf("[scheduler] %d live event(s) in %s/%s, refreshing scoreboard", live, pair.Sport, pair.League)
		if _, err := o.ingester.IngestScoreboard(ctx, pair.Sport, pair.League, time.Time{}); err != nil {
			log.Printf("[scheduler] ⚠️  Live refresh failed for %s/%s: %v", pair.Sport, pair.League, err)
			failed = true
		}
	}

	if failed {
		*consecutiveFailures++
		if *consecutiveFailures >= failureWarningThreshold {
			log.Printf("[scheduler] ❌ Live polling has failed %d times in a row", *consecutiveFailures)
		}
		return
	}

	*consecutiveFailures = 0
}

func (o *Orchestrator) countLiveEvents(ctx context.Context, pair Pair) (int, error) {
	today := time.Now().UTC()

	return o.events.Count(ctx, repository.EventFilter{
		Sport:  pair.Sport,
		League: pair.League,
		Status: store.EventStatusInProgress,
		Date:   &today,
	})
}
