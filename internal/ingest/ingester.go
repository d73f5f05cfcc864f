package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/store"
)

// Stream message types emitted after ingestion runs.
const (
	MessageIngestionCompleted = "ingestion.completed"
	MessageEventUpdated       = "event.updated"
)

// ReferenceStore resolves sport and league reference rows.
type ReferenceStore interface {
	GetLeague(ctx context.Context, sportSlug, leagueSlug string) (*store.League, error)
	GetOrCreateLeague(ctx context.Context, sportSlug, sportName, leagueSlug, leagueName, abbreviation string) (*store.League, error)
}

// TeamStore persists team rows.
type TeamStore interface {
	Upsert(ctx context.Context, team *store.Team) (bool, error)
	GetByLeagueAndESPNID(ctx context.Context, leagueID int, espnID string) (*store.Team, error)
}

// VenueStore persists venue rows.
type VenueStore interface {
	Upsert(ctx context.Context, venue *store.Venue) error
}

// EventStore persists event and competitor rows.
type EventStore interface {
	Upsert(ctx context.Context, event *store.Event) (bool, error)
	GetByESPNID(ctx context.Context, espnID string) (*store.Event, error)
	ListCompetitors(ctx context.Context, eventID int) ([]*store.Competitor, error)
	ReplaceCompetitors(ctx context.Context, eventID int, competitors []*store.Competitor) error
}

// AthleteStore persists athlete rows.
type AthleteStore interface {
	Upsert(ctx context.Context, athlete *store.Athlete) (bool, error)
}

// Publisher pushes update messages onto the stream. A nil Publisher
// disables publishing; publish failures never fail an ingestion run.
type Publisher interface {
	Publish(ctx context.Context, msgType string, data interface{}) error
}

// Result reports the outcome of one ingestion run. Item-level failures
// land in Errors while the rest of the batch proceeds.
type Result struct {
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Errors         []string `json:"errors"`
	TotalProcessed int      `json:"total_processed"`
}

func newResult() *Result {
	return &Result{Errors: []string{}}
}

func (r *Result) count(created bool) {
	if created {
		r.Created++
	} else {
		r.Updated++
	}
	r.TotalProcessed++
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Ingester pulls ESPN payloads and upserts them into the store. All
// operations are idempotent and safe to run on any cadence.
type Ingester struct {
	client    *espn.Client
	reference ReferenceStore
	teams     TeamStore
	venues    VenueStore
	events    EventStore
	athletes  AthleteStore
	publisher Publisher
}

// Config wires an Ingester. Publisher is optional.
type Config struct {
	Client    *espn.Client
	Reference ReferenceStore
	Teams     TeamStore
	Venues    VenueStore
	Events    EventStore
	Athletes  AthleteStore
	Publisher Publisher
}

// New creates an Ingester.
func New(cfg Config) *Ingester {
	return &Ingester{
		client:    cfg.Client,
		reference: cfg.Reference,
		teams:     cfg.Teams,
		venues:    cfg.Venues,
		events:    cfg.Events,
		athletes:  cfg.Athletes,
		publisher: cfg.Publisher,
	}
}

// IngestTeams fetches the team directory for a league and upserts every
// entry. A bad entry is recorded and skipped, never aborts the batch.
func (i *Ingester) IngestTeams(ctx context.Context, sport, league string) (*Result, error) {
	log.Printf("[ingest] Fetching teams for %s/%s", sport, league)

	lg, err := i.ensureLeague(ctx, sport, league)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Teams(ctx, sport, league)
	if err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	result := newResult()
	for _, t := range resp.Teams() {
		if t.ID == "" {
			log.Printf("[ingest] Skipping team with no ESPN id (%s)", t.DisplayName)
			result.addError("team missing espn id")
			continue
		}

		created, err := i.teams.Upsert(ctx, mapTeam(lg.ID, t))
		if err != nil {
			log.Printf("[ingest] Error upserting team %s: %v", t.ID, err)
			result.addError(fmt.Sprintf("team %s: %v", t.ID, err))
			continue
		}
		result.count(created)
	}

	log.Printf("[ingest] ✓ Teams %s/%s: %d created, %d updated, %d errors",
		sport, league, result.Created, result.Updated, len(result.Errors))
	i.publishCompletion(ctx, "teams", sport, league, result)
	return result, nil
}

// IngestScoreboard fetches the scoreboard for a league (current day when
// date is zero) and upserts each event with its venue and competitors.
// Zero events is a success with zero counts.
func (i *Ingester) IngestScoreboard(ctx context.Context, sport, league string, date time.Time) (*Result, error) {
	day := "today"
	if !date.IsZero() {
		day = date.Format("2006-01-02")
	}
	log.Printf("[ingest] Fetching scoreboard for %s/%s (%s)", sport, league, day)

	lg, err := i.ensureLeague(ctx, sport, league)
	if err != nil {
		return nil, err
	}

	scoreboard, err := i.client.Scoreboard(ctx, sport, league, date)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}

	result := newResult()
	for _, ev := range scoreboard.Events {
		if ev.ID == "" {
			result.addError("event missing espn id")
			continue
		}

		created, err := i.ingestEvent(ctx, lg, ev)
		if err != nil {
			log.Printf("[ingest] Error upserting event %s: %v", ev.ID, err)
			result.addError(fmt.Sprintf("event %s: %v", ev.ID, err))
			continue
		}
		result.count(created)
	}

	log.Printf("[ingest] ✓ Scoreboard %s/%s (%s): %d created, %d updated, %d errors",
		sport, league, day, result.Created, result.Updated, len(result.Errors))
	i.publishCompletion(ctx, "scoreboard", sport, league, result)
	return result, nil
}

// IngestEvent fetches a single event summary and upserts it, refreshing
// one game without pulling the whole scoreboard.
func (i *Ingester) IngestEvent(ctx context.Context, sport, league, eventID string) (*Result, error) {
	log.Printf("[ingest] Fetching event %s for %s/%s", eventID, sport, league)

	lg, err := i.ensureLeague(ctx, sport, league)
	if err != nil {
		return nil, err
	}

	summary, err := i.client.EventSummary(ctx, sport, league, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch event summary: %w", err)
	}

	ev := summary.Event()
	if ev.ID == "" || len(ev.Competitions) == 0 {
		return nil, fmt.Errorf("summary missing header data for event %s", eventID)
	}

	created, err := i.ingestEvent(ctx, lg, ev)
	if err != nil {
		return nil, err
	}

	result := newResult()
	result.count(created)
	i.publishCompletion(ctx, "event", sport, league, result)
	return result, nil
}

// IngestRoster fetches a team roster and upserts each athlete, attaching
// them to the local team row (created as a minimal row when unseen).
func (i *Ingester) IngestRoster(ctx context.Context, sport, league, teamESPNID string) (*Result, error) {
	log.Printf("[ingest] Fetching roster for team %s in %s/%s", teamESPNID, sport, league)

	lg, err := i.ensureLeague(ctx, sport, league)
	if err != nil {
		return nil, err
	}

	roster, err := i.client.TeamRoster(ctx, sport, league, teamESPNID)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}

	// Some roster payloads omit the team id; the request already named it.
	team := roster.Team
	if team.ID == "" {
		team.ID = teamESPNID
	}
	teamID, err := i.resolveTeam(ctx, lg, team)
	if err != nil {
		return nil, fmt.Errorf("resolve team %s: %w", teamESPNID, err)
	}

	result := newResult()
	for _, a := range roster.Athletes {
		if a.ID == "" {
			result.addError("athlete missing espn id")
			continue
		}

		created, err := i.athletes.Upsert(ctx, mapAthlete(teamID, a))
		if err != nil {
			log.Printf("[ingest] Error upserting athlete %s: %v", a.ID, err)
			result.addError(fmt.Sprintf("athlete %s: %v", a.ID, err))
			continue
		}
		result.count(created)
	}

	log.Printf("[ingest] ✓ Roster %s/%s team %s: %d created, %d updated, %d errors",
		sport, league, teamESPNID, result.Created, result.Updated, len(result.Errors))
	i.publishCompletion(ctx, "roster", sport, league, result)
	return result, nil
}

// ingestEvent upserts one scoreboard event with its venue and competitor
// rows, publishing an update message when an existing event's status or
// score changed.
func (i *Ingester) ingestEvent(ctx context.Context, lg *store.League, ev espn.Event) (bool, error) {
	prev, prevScores, err := i.loadPreviousState(ctx, ev.ID)
	if err != nil {
		return false, err
	}

	event := mapEvent(lg.ID, ev)

	comp := primaryCompetition(ev)
	if comp != nil && comp.Venue != nil && comp.Venue.ID != "" {
		venue := mapVenue(comp.Venue)
		if err := i.venues.Upsert(ctx, venue); err != nil {
			return false, fmt.Errorf("upsert venue: %w", err)
		}
		event.VenueID = sql.NullInt32{Int32: int32(venue.ID), Valid: true}
	}

	created, err := i.events.Upsert(ctx, event)
	if err != nil {
		return false, err
	}

	if comp != nil {
		competitors, err := i.resolveCompetitors(ctx, lg, event.ID, comp.Competitors)
		if err != nil {
			return false, err
		}
		if err := i.events.ReplaceCompetitors(ctx, event.ID, competitors); err != nil {
			return false, fmt.Errorf("replace competitors: %w", err)
		}
	}

	if prev != nil {
		i.publishEventUpdate(ctx, prev, prevScores, event)
	}

	return created, nil
}

// loadPreviousState fetches the stored event and a team→score map so a
// re-ingest can tell whether anything consumers care about changed. Only
// needed when a publisher is attached.
func (i *Ingester) loadPreviousState(ctx context.Context, espnID string) (*store.Event, map[int]string, error) {
	if i.publisher == nil {
		return nil, nil, nil
	}

	prev, err := i.events.GetByESPNID(ctx, espnID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load existing event: %w", err)
	}

	competitors, err := i.events.ListCompetitors(ctx, prev.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load existing competitors: %w", err)
	}

	scores := make(map[int]string, len(competitors))
	for _, c := range competitors {
		scores[c.TeamID] = c.Score.String
	}
	return prev, scores, nil
}

// resolveCompetitors maps each side of a competition to a competitor row,
// creating minimal team rows for espn ids not seen before.
func (i *Ingester) resolveCompetitors(ctx context.Context, lg *store.League, eventID int, sides []espn.Competitor) ([]*store.Competitor, error) {
	competitors := make([]*store.Competitor, 0, len(sides))
	for idx, side := range sides {
		teamID, err := i.resolveTeam(ctx, lg, side.Team)
		if err != nil {
			return nil, fmt.Errorf("resolve team %q: %w", side.Team.ID, err)
		}
		competitors = append(competitors, mapCompetitor(eventID, teamID, side, idx))
	}
	return competitors, nil
}

// resolveTeam finds the local row for a team block, creating a minimal
// one on first sight. Existing rows are never overwritten from the thin
// scoreboard data; the directory ingest owns the full fields.
func (i *Ingester) resolveTeam(ctx context.Context, lg *store.League, t espn.Team) (int, error) {
	if t.ID == "" {
		return 0, errors.New("missing espn id")
	}

	team, err := i.teams.GetByLeagueAndESPNID(ctx, lg.ID, t.ID)
	if err == nil {
		return team.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	minimal := minimalTeam(lg.ID, t)
	if _, err := i.teams.Upsert(ctx, minimal); err != nil {
		return 0, err
	}
	return minimal.ID, nil
}

// ensureLeague resolves the league row for a sport/league pair, creating
// reference rows on first use. Unknown league names come from the core
// API, then fall back to the upper-cased slug.
func (i *Ingester) ensureLeague(ctx context.Context, sport, league string) (*store.League, error) {
	lg, err := i.reference.GetLeague(ctx, sport, league)
	if err == nil {
		return lg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	sportName, ok := sportNames[sport]
	if !ok {
		sportName = titleCase(sport)
	}

	name, abbreviation := strings.ToUpper(league), strings.ToUpper(league)
	if known, ok := leagueNames[league]; ok {
		name, abbreviation = known.Name, known.Abbreviation
	} else if info, err := i.client.LeagueInfo(ctx, sport, league); err == nil && info.DisplayName != "" {
		name = info.DisplayName
		if info.Abbreviation != "" {
			abbreviation = info.Abbreviation
		}
	}

	return i.reference.GetOrCreateLeague(ctx, sport, sportName, league, name, abbreviation)
}

type completionMessage struct {
	Operation string  `json:"operation"`
	Sport     string  `json:"sport"`
	League    string  `json:"league"`
	Result    *Result `json:"result"`
}

type eventUpdateMessage struct {
	Event       *store.Event        `json:"event"`
	Competitors []*store.Competitor `json:"competitors"`
}

func (i *Ingester) publishCompletion(ctx context.Context, operation, sport, league string, result *Result) {
	if i.publisher == nil {
		return
	}

	msg := completionMessage{Operation: operation, Sport: sport, League: league, Result: result}
	if err := i.publisher.Publish(ctx, MessageIngestionCompleted, msg); err != nil {
		log.Printf("[ingest] ⚠️  Failed to publish completion: %v", err)
	}
}

// publishEventUpdate emits an update message when the stored status or
// any competitor score changed across a re-ingest.
func (i *Ingester) publishEventUpdate(ctx context.Context, prev *store.Event, prevScores map[int]string, event *store.Event) {
	if i.publisher == nil {
		return
	}

	competitors, err := i.events.ListCompetitors(ctx, event.ID)
	if err != nil {
		log.Printf("[ingest] ⚠️  Failed to load competitors for update check: %v", err)
		return
	}

	changed := prev.Status != event.Status || len(competitors) != len(prevScores)
	if !changed {
		for _, c := range competitors {
			if prevScores[c.TeamID] != c.Score.String {
				changed = true
				break
			}
		}
	}
	if !changed {
		return
	}

	msg := eventUpdateMessage{Event: event, Competitors: competitors}
	if err := i.publisher.Publish(ctx, MessageEventUpdated, msg); err != nil {
		log.Printf("[ingest] ⚠️  Failed to publish event update: %v", err)
	}
}
