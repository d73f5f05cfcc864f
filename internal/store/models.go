package store

import (
	"database/sql"
	"time"
)

// Sport is append-only reference data (e.g. basketball, football).
type Sport struct {
	ID        int       `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// League belongs to a sport; unique per (sport, slug).
type League struct {
	ID           int       `json:"id" db:"id"`
	SportID      int       `json:"sport_id" db:"sport_id"`
	Slug         string    `json:"slug" db:"slug"`
	Name         string    `json:"name" db:"name"`
	Abbreviation string    `json:"abbreviation" db:"abbreviation"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Populated from the joined sports row for API responses
	SportSlug string `json:"sport_slug,omitempty" db:"-"`
}

// Venue is attached to events; upserted by ESPN id.
type Venue struct {
	ID        int            `json:"id" db:"id"`
	ESPNID    string         `json:"espn_id" db:"espn_id"`
	Name      string         `json:"name" db:"name"`
	City      sql.NullString `json:"city,omitempty" db:"city"`
	State     sql.NullString `json:"state,omitempty" db:"state"`
	Country   string         `json:"country" db:"country"`
	IsIndoor  bool           `json:"is_indoor" db:"is_indoor"`
	Capacity  sql.NullInt32  `json:"capacity,omitempty" db:"capacity"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Team is upserted by espn_id within its league.
type Team struct {
	ID               int            `json:"id" db:"id"`
	LeagueID         int            `json:"league_id" db:"league_id"`
	ESPNID           string         `json:"espn_id" db:"espn_id"`
	UID              sql.NullString `json:"uid,omitempty" db:"uid"`
	Slug             sql.NullString `json:"slug,omitempty" db:"slug"`
	Abbreviation     string         `json:"abbreviation" db:"abbreviation"`
	DisplayName      string         `json:"display_name" db:"display_name"`
	ShortDisplayName sql.NullString `json:"short_display_name,omitempty" db:"short_display_name"`
	Name             sql.NullString `json:"name,omitempty" db:"name"`
	Nickname         sql.NullString `json:"nickname,omitempty" db:"nickname"`
	Location         sql.NullString `json:"location,omitempty" db:"location"`
	Color            sql.NullString `json:"color,omitempty" db:"color"`
	AlternateColor   sql.NullString `json:"alternate_color,omitempty" db:"alternate_color"`
	LogoURL          sql.NullString `json:"logo_url,omitempty" db:"logo_url"`
	Logos            sql.NullString `json:"logos,omitempty" db:"logos"`
	IsActive         bool           `json:"is_active" db:"is_active"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`

	// Populated from joined league/sport rows for API responses
	LeagueSlug string `json:"league_slug,omitempty" db:"-"`
	SportSlug  string `json:"sport_slug,omitempty" db:"-"`
}

// Event statuses. ESPN's own states are normalized to these at ingest time.
const (
	EventStatusScheduled  = "scheduled"
	EventStatusInProgress = "in_progress"
	EventStatusFinal      = "final"
	EventStatusPostponed  = "postponed"
	EventStatusCancelled  = "cancelled"
)

// Event is a game; upserted by espn_id within its league.
type Event struct {
	ID           int            `json:"id" db:"id"`
	LeagueID     int            `json:"league_id" db:"league_id"`
	VenueID      sql.NullInt32  `json:"venue_id,omitempty" db:"venue_id"`
	ESPNID       string         `json:"espn_id" db:"espn_id"`
	UID          sql.NullString `json:"uid,omitempty" db:"uid"`
	Date         time.Time      `json:"date" db:"date"`
	Name         string         `json:"name" db:"name"`
	ShortName    sql.NullString `json:"short_name,omitempty" db:"short_name"`
	SeasonYear   int            `json:"season_year" db:"season_year"`
	SeasonType   int            `json:"season_type" db:"season_type"`
	Week         sql.NullInt32  `json:"week,omitempty" db:"week"`
	Status       string         `json:"status" db:"status"`
	StatusDetail sql.NullString `json:"status_detail,omitempty" db:"status_detail"`
	Clock        sql.NullString `json:"clock,omitempty" db:"clock"`
	Period       sql.NullInt32  `json:"period,omitempty" db:"period"`
	Attendance   sql.NullInt32  `json:"attendance,omitempty" db:"attendance"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`

	// Populated from joins for API responses
	LeagueSlug string `json:"league_slug,omitempty" db:"-"`
	SportSlug  string `json:"sport_slug,omitempty" db:"-"`
	VenueName  string `json:"venue_name,omitempty" db:"-"`
}

// Competitor links a team to an event with game-specific data. Rows are
// replaced wholesale when the event is re-ingested.
type Competitor struct {
	ID           int            `json:"id" db:"id"`
	EventID      int            `json:"event_id" db:"event_id"`
	TeamID       int            `json:"team_id" db:"team_id"`
	HomeAway     string         `json:"home_away" db:"home_away"`
	Score        sql.NullString `json:"score,omitempty" db:"score"`
	Winner       sql.NullBool   `json:"winner,omitempty" db:"winner"`
	DisplayOrder int            `json:"order" db:"display_order"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`

	// Populated from the joined teams row for API responses
	Team *Team `json:"team,omitempty" db:"-"`
}

// Athlete is upserted by espn_id; team is nullable since athletes can be
// free agents.
type Athlete struct {
	ID                   int            `json:"id" db:"id"`
	ESPNID               string         `json:"espn_id" db:"espn_id"`
	TeamID               sql.NullInt32  `json:"team_id,omitempty" db:"team_id"`
	FirstName            sql.NullString `json:"first_name,omitempty" db:"first_name"`
	LastName             string         `json:"last_name" db:"last_name"`
	FullName             string         `json:"full_name" db:"full_name"`
	DisplayName          string         `json:"display_name" db:"display_name"`
	ShortName            sql.NullString `json:"short_name,omitempty" db:"short_name"`
	Jersey               sql.NullString `json:"jersey,omitempty" db:"jersey"`
	Position             sql.NullString `json:"position,omitempty" db:"position"`
	PositionAbbreviation sql.NullString `json:"position_abbreviation,omitempty" db:"position_abbreviation"`
	Height               sql.NullString `json:"height,omitempty" db:"height"`
	Weight               sql.NullInt32  `json:"weight,omitempty" db:"weight"`
	Age                  sql.NullInt32  `json:"age,omitempty" db:"age"`
	HeadshotURL          sql.NullString `json:"headshot_url,omitempty" db:"headshot_url"`
	IsActive             bool           `json:"is_active" db:"is_active"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}
