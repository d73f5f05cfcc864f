package ingest

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/store"
)

// Display names for the sport slugs ESPN identifies only by slug.
// Unknown sports fall back to a title-cased slug.
var sportNames = map[string]string{
	"basketball": "Basketball",
	"football":   "Football",
	"baseball":   "Baseball",
	"hockey":     "Hockey",
	"soccer":     "Soccer",
	"mma":        "Mixed Martial Arts",
	"golf":       "Golf",
	"tennis":     "Tennis",
	"racing":     "Racing",
}

// Display names and abbreviations for well-known league slugs. Unknown
// leagues are resolved through the core API, then fall back to the
// upper-cased slug.
var leagueNames = map[string]struct {
	Name         string
	Abbreviation string
}{
	"nba":                       {"National Basketball Association", "NBA"},
	"wnba":                      {"Women's National Basketball Association", "WNBA"},
	"nfl":                       {"National Football League", "NFL"},
	"mlb":                       {"Major League Baseball", "MLB"},
	"nhl":                       {"National Hockey League", "NHL"},
	"college-football":          {"College Football", "NCAAF"},
	"mens-college-basketball":   {"Men's College Basketball", "NCAAM"},
	"womens-college-basketball": {"Women's College Basketball", "NCAAW"},
	"mls":                       {"MLS", "MLS"},
	"eng.1":                     {"English Premier League", "EPL"},
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(n), Valid: n != 0}
}

// nullLogos serializes the logo variants for the jsonb column. An empty
// list stores NULL rather than an empty array.
func nullLogos(logos []espn.Logo) sql.NullString {
	if len(logos) == 0 {
		return sql.NullString{}
	}
	raw, err := json.Marshal(logos)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

// normalizeStatus maps an ESPN status block onto the stored event
// states. Postponements and cancellations are carried in the type name
// with state "post", so the name is checked first.
func normalizeStatus(status espn.Status) string {
	name := strings.ToUpper(status.Type.Name)
	switch {
	case strings.Contains(name, "POSTPONED"):
		return store.EventStatusPostponed
	case strings.Contains(name, "CANCELED"), strings.Contains(name, "CANCELLED"):
		return store.EventStatusCancelled
	}

	if status.Type.Completed {
		return store.EventStatusFinal
	}

	switch status.Type.State {
	case "pre":
		return store.EventStatusScheduled
	case "in":
		return store.EventStatusInProgress
	case "post":
		return store.EventStatusFinal
	}
	return store.EventStatusScheduled
}

// mapTeam converts a directory team block to a team row.
func mapTeam(leagueID int, t espn.Team) *store.Team {
	displayName := t.DisplayName
	if displayName == "" {
		displayName = t.Name
	}
	if displayName == "" {
		displayName = t.Location
	}

	return &store.Team{
		LeagueID:         leagueID,
		ESPNID:           t.ID,
		UID:              nullString(t.UID),
		Slug:             nullString(t.Slug),
		Abbreviation:     t.Abbreviation,
		DisplayName:      displayName,
		ShortDisplayName: nullString(t.ShortDisplayName),
		Name:             nullString(t.Name),
		Nickname:         nullString(t.Nickname),
		Location:         nullString(t.Location),
		Color:            nullString(t.Color),
		AlternateColor:   nullString(t.AlternateColor),
		LogoURL:          nullString(t.LogoURL()),
		Logos:            nullLogos(t.Logos),
		IsActive:         t.Active(),
	}
}

// minimalTeam builds a team row from the thin team block scoreboard
// competitors carry. The directory ingest fills in the rest later.
func minimalTeam(leagueID int, t espn.Team) *store.Team {
	displayName := t.DisplayName
	if displayName == "" {
		displayName = t.Name
	}

	return &store.Team{
		LeagueID:         leagueID,
		ESPNID:           t.ID,
		Abbreviation:     t.Abbreviation,
		DisplayName:      displayName,
		ShortDisplayName: nullString(t.ShortDisplayName),
		Name:             nullString(t.Name),
		Location:         nullString(t.Location),
		LogoURL:          nullString(t.LogoURL()),
		Logos:            nullLogos(t.Logos),
		IsActive:         true,
	}
}

// mapVenue converts a competition venue block. Country defaults to USA
// and indoor to true when ESPN omits them.
func mapVenue(v *espn.Venue) *store.Venue {
	country := v.Address.Country
	if country == "" {
		country = "USA"
	}
	indoor := true
	if v.Indoor != nil {
		indoor = *v.Indoor
	}

	return &store.Venue{
		ESPNID:   v.ID,
		Name:     v.FullName,
		City:     nullString(v.Address.City),
		State:    nullString(v.Address.State),
		Country:  country,
		IsIndoor: indoor,
		Capacity: nullInt(v.Capacity),
	}
}

// primaryCompetition returns the event's competition block. The
// scoreboard emits exactly one per event.
func primaryCompetition(ev espn.Event) *espn.Competition {
	if len(ev.Competitions) == 0 {
		return nil
	}
	return &ev.Competitions[0]
}

// mapEvent converts a scoreboard event to an event row. The venue and
// competitors need row ids, so the caller attaches them separately.
func mapEvent(leagueID int, ev espn.Event) *store.Event {
	seasonYear := ev.Season.Year
	if seasonYear == 0 {
		seasonYear = ev.Date.Year()
	}
	seasonType := ev.Season.Type
	if seasonType == 0 {
		seasonType = 2
	}

	detail := ev.Status.Type.Detail
	if ev.Status.Type.Completed && detail == "" {
		detail = "Final"
	}

	event := &store.Event{
		LeagueID:     leagueID,
		ESPNID:       ev.ID,
		UID:          nullString(ev.UID),
		Date:         ev.Date.Time,
		Name:         ev.Name,
		ShortName:    nullString(ev.ShortName),
		SeasonYear:   seasonYear,
		SeasonType:   seasonType,
		Week:         nullInt(ev.Week.Number),
		Status:       normalizeStatus(ev.Status),
		StatusDetail: nullString(detail),
		Clock:        nullString(ev.Status.DisplayClock),
		Period:       nullInt(ev.Status.Period),
	}

	if comp := primaryCompetition(ev); comp != nil {
		event.Attendance = nullInt(comp.Attendance)
	}

	return event
}

// mapCompetitor converts one side of a competition. When ESPN omits a
// usable homeAway value, the second listed side is treated as home.
func mapCompetitor(eventID, teamID int, side espn.Competitor, idx int) *store.Competitor {
	homeAway := side.HomeAway
	if homeAway != "home" && homeAway != "away" {
		if idx == 1 {
			homeAway = "home"
		} else {
			homeAway = "away"
		}
	}

	comp := &store.Competitor{
		EventID:      eventID,
		TeamID:       teamID,
		HomeAway:     homeAway,
		Score:        nullString(side.Score),
		DisplayOrder: idx,
	}
	if side.Winner != nil {
		comp.Winner = sql.NullBool{Bool: *side.Winner, Valid: true}
	}

	return comp
}

// mapAthlete converts a roster entry to an athlete row.
func mapAthlete(teamID int, a espn.Athlete) *store.Athlete {
	fullName := a.FullName
	if fullName == "" {
		fullName = a.DisplayName
	}
	displayName := a.DisplayName
	if displayName == "" {
		displayName = fullName
	}

	athlete := &store.Athlete{
		ESPNID:      a.ID,
		TeamID:      sql.NullInt32{Int32: int32(teamID), Valid: teamID != 0},
		FirstName:   nullString(a.FirstName),
		LastName:    a.LastName,
		FullName:    fullName,
		DisplayName: displayName,
		ShortName:   nullString(a.ShortName),
		Jersey:      nullString(a.Jersey),
		Height:      nullString(a.DisplayHeight),
		Weight:      nullInt(int(a.Weight)),
		Age:         nullInt(a.Age),
		IsActive:    a.IsActive(),
	}
	if a.Position != nil {
		athlete.Position = nullString(a.Position.Name)
		athlete.PositionAbbreviation = nullString(a.Position.Abbreviation)
	}
	if a.Headshot != nil {
		athlete.HeadshotURL = nullString(a.Headshot.Href)
	}

	return athlete
}
