package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/pressbox/internal/store"
)

// EventRepository handles event and competitor data access
type EventRepository struct {
	db *store.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *store.Database) *EventRepository {
	return &EventRepository{db: db}
}

// EventFilter narrows List and Count results. Zero values mean the
// dimension is not filtered. Date filters match whole UTC calendar days.
type EventFilter struct {
	Sport      string
	League     string
	Status     string
	Team       string
	Date       *time.Time
	DateFrom   *time.Time
	DateTo     *time.Time
	SeasonYear int
	SeasonType int
}

// dayStart truncates a time to midnight UTC.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (f EventFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Sport != "" {
		args = append(args, f.Sport)
		clauses = append(clauses, fmt.Sprintf("LOWER(s.slug) = LOWER($%d)", len(args)))
	}
	if f.League != "" {
		args = append(args, f.League)
		clauses = append(clauses, fmt.Sprintf("LOWER(l.slug) = LOWER($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if f.Date != nil {
		start := dayStart(*f.Date)
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("e.date >= $%d", len(args)))
		args = append(args, start.Add(24*time.Hour))
		clauses = append(clauses, fmt.Sprintf("e.date < $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, dayStart(*f.DateFrom))
		clauses = append(clauses, fmt.Sprintf("e.date >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, dayStart(*f.DateTo).Add(24*time.Hour))
		clauses = append(clauses, fmt.Sprintf("e.date < $%d", len(args)))
	}
	if f.SeasonYear != 0 {
		args = append(args, f.SeasonYear)
		clauses = append(clauses, fmt.Sprintf("e.season_year = $%d", len(args)))
	}
	if f.SeasonType != 0 {
		args = append(args, f.SeasonType)
		clauses = append(clauses, fmt.Sprintf("e.season_type = $%d", len(args)))
	}
	if f.Team != "" {
		args = append(args, f.Team)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM competitors c JOIN teams ct ON ct.id = c.team_id WHERE c.event_id = e.id AND (ct.espn_id = $%d OR LOWER(ct.abbreviation) = LOWER($%d)))",
			n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Upsert creates or updates an event by its ESPN id within a league.
// The returned flag is true when a new row was inserted.
func (r *EventRepository) Upsert(ctx context.Context, event *store.Event) (bool, error) {
	query := `
		INSERT INTO events (league_id, venue_id, espn_id, uid, date, name, short_name,
			season_year, season_type, week, status, status_detail, clock, period, attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (league_id, espn_id) DO UPDATE SET
			venue_id = EXCLUDED.venue_id,
			uid = EXCLUDED.uid,
			date = EXCLUDED.date,
			name = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			season_year = EXCLUDED.season_year,
			season_type = EXCLUDED.season_type,
			week = EXCLUDED.week,
			status = EXCLUDED.status,
			status_detail = EXCLUDED.status_detail,
			clock = EXCLUDED.clock,
			period = EXCLUDED.period,
			attendance = EXCLUDED.attendance,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.DB().QueryRowContext(ctx, query,
		event.LeagueID, event.VenueID, event.ESPNID, event.UID, event.Date,
		event.Name, event.ShortName, event.SeasonYear, event.SeasonType, event.Week,
		event.Status, event.StatusDetail, event.Clock, event.Period, event.Attendance,
	).Scan(&event.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upserting event: %w", err)
	}

	return inserted, nil
}

const eventSelect = `
	SELECT e.id, e.league_id, e.venue_id, e.espn_id, e.uid, e.date, e.name, e.short_name,
		e.season_year, e.season_type, e.week, e.status, e.status_detail, e.clock,
		e.period, e.attendance, e.created_at, e.updated_at,
		l.slug, s.slug, v.name
	FROM events e
	JOIN leagues l ON l.id = e.league_id
	JOIN sports s ON s.id = l.sport_id
	LEFT JOIN venues v ON v.id = e.venue_id`

func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (*store.Event, error) {
	event := &store.Event{}
	var venueName sql.NullString
	err := row.Scan(
		&event.ID, &event.LeagueID, &event.VenueID, &event.ESPNID, &event.UID,
		&event.Date, &event.Name, &event.ShortName, &event.SeasonYear, &event.SeasonType,
		&event.Week, &event.Status, &event.StatusDetail, &event.Clock, &event.Period,
		&event.Attendance, &event.CreatedAt, &event.UpdatedAt,
		&event.LeagueSlug, &event.SportSlug, &venueName,
	)
	if err != nil {
		return nil, err
	}
	if venueName.Valid {
		event.VenueName = venueName.String
	}
	return event, nil
}

// GetByID finds an event by ID
func (r *EventRepository) GetByID(ctx context.Context, eventID int) (*store.Event, error) {
	query := eventSelect + `
	WHERE e.id = $1`

	event, err := scanEvent(r.db.DB().QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", eventID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}

	return event, nil
}

// GetByESPNID finds an event by its ESPN id.
func (r *EventRepository) GetByESPNID(ctx context.Context, espnID string) (*store.Event, error) {
	query := eventSelect + `
	WHERE e.espn_id = $1
	ORDER BY e.id
	LIMIT 1`

	event, err := scanEvent(r.db.DB().QueryRowContext(ctx, query, espnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event espn_id %s: %w", espnID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}

	return event, nil
}

// List returns events matching the filter, ordered by date.
func (r *EventRepository) List(ctx context.Context, filter EventFilter, limit, offset int) ([]*store.Event, error) {
	where, args := filter.where()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`%s%s
	ORDER BY e.date, e.id
	LIMIT $%d OFFSET $%d`, eventSelect, where, len(args)-1, len(args))

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []*store.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// Count returns the number of events matching the filter.
func (r *EventRepository) Count(ctx context.Context, filter EventFilter) (int, error) {
	where, args := filter.where()

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM events e
		JOIN leagues l ON l.id = e.league_id
		JOIN sports s ON s.id = l.sport_id%s
	`, where)

	var count int
	if err := r.db.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}

	return count, nil
}

// ListCompetitors returns an event's competitors with their teams,
// home side first.
func (r *EventRepository) ListCompetitors(ctx context.Context, eventID int) ([]*store.Competitor, error) {
	query := `
		SELECT c.id, c.event_id, c.team_id, c.home_away, c.score, c.winner, c.display_order,
			c.created_at, c.updated_at,
			t.id, t.league_id, t.espn_id, t.uid, t.slug, t.abbreviation, t.display_name,
			t.short_display_name, t.name, t.nickname, t.location, t.color, t.alternate_color,
			t.logo_url, t.is_active, t.created_at, t.updated_at
		FROM competitors c
		JOIN teams t ON t.id = c.team_id
		WHERE c.event_id = $1
		ORDER BY c.display_order, c.id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying competitors: %w", err)
	}
	defer rows.Close()

	competitors := []*store.Competitor{}
	for rows.Next() {
		comp := &store.Competitor{Team: &store.Team{}}
		if err := rows.Scan(
			&comp.ID, &comp.EventID, &comp.TeamID, &comp.HomeAway, &comp.Score,
			&comp.Winner, &comp.DisplayOrder, &comp.CreatedAt, &comp.UpdatedAt,
			&comp.Team.ID, &comp.Team.LeagueID, &comp.Team.ESPNID, &comp.Team.UID,
			&comp.Team.Slug, &comp.Team.Abbreviation, &comp.Team.DisplayName,
			&comp.Team.ShortDisplayName, &comp.Team.Name, &comp.Team.Nickname,
			&comp.Team.Location, &comp.Team.Color, &comp.Team.AlternateColor,
			&comp.Team.LogoURL, &comp.Team.IsActive, &comp.Team.CreatedAt, &comp.Team.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning competitor: %w", err)
		}
		competitors = append(competitors, comp)
	}

	return competitors, rows.Err()
}

// ReplaceCompetitors swaps an event's competitor rows for the given set
// in one transaction. Re-ingesting an event never accumulates rows.
func (r *EventRepository) ReplaceCompetitors(ctx context.Context, eventID int, competitors []*store.Competitor) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM competitors WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("clearing competitors: %w", err)
	}

	query := `
		INSERT INTO competitors (event_id, team_id, home_away, score, winner, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, comp := range competitors {
		if _, err := tx.ExecContext(ctx, query,
			eventID, comp.TeamID, comp.HomeAway, comp.Score, comp.Winner, comp.DisplayOrder,
		); err != nil {
			if store.IsUniqueViolation(err) {
				return fmt.Errorf("team %d listed twice for event %d: %w", comp.TeamID, eventID, err)
			}
			return fmt.Errorf("inserting competitor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing competitors: %w", err)
	}

	return nil
}
