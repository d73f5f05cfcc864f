package espn

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// espnTimeFormat covers the truncated timestamps ESPN emits on some
// endpoints ("2024-12-15T20:00Z" has no seconds).
const espnTimeFormat = "2006-01-02T15:04Z07:00"

// ESPNTime wraps time.Time to accept both RFC3339 and ESPN's truncated
// timestamp format.
type ESPNTime struct {
	time.Time
}

func (t *ESPNTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse(espnTimeFormat, s)
		if err != nil {
			return fmt.Errorf("parsing espn time %q: %w", s, err)
		}
	}

	t.Time = parsed
	return nil
}

// TeamsResponse is the site API team directory payload, nested under
// sports[].leagues[].teams[].team.
type TeamsResponse struct {
	Sports []SportGroup `json:"sports"`
}

// SportGroup wraps the leagues block in the team directory.
type SportGroup struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Slug    string        `json:"slug"`
	Leagues []LeagueGroup `json:"leagues"`
}

// LeagueGroup wraps the team list in the team directory.
type LeagueGroup struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Abbreviation string      `json:"abbreviation"`
	Slug         string      `json:"slug"`
	Teams        []TeamEntry `json:"teams"`
}

// TeamEntry wraps each team object in the team directory.
type TeamEntry struct {
	Team Team `json:"team"`
}

// Teams flattens the nested sports/leagues wrapper around the team list.
func (r *TeamsResponse) Teams() []Team {
	var out []Team
	for _, s := range r.Sports {
		for _, l := range s.Leagues {
			for _, e := range l.Teams {
				out = append(out, e.Team)
			}
		}
	}
	return out
}

// Team is ESPN's team object, shared by the directory, scoreboard and
// roster payloads.
type Team struct {
	ID               string `json:"id"`
	UID              string `json:"uid"`
	Slug             string `json:"slug"`
	Abbreviation     string `json:"abbreviation"`
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
	Name             string `json:"name"`
	Nickname         string `json:"nickname"`
	Location         string `json:"location"`
	Color            string `json:"color"`
	AlternateColor   string `json:"alternateColor"`
	IsActive         *bool  `json:"isActive"`
	Logo             string `json:"logo"`
	Logos            []Logo `json:"logos"`
}

// Active reports whether the team is active, defaulting to true when
// ESPN omits the flag (scoreboard team blocks usually do).
func (t *Team) Active() bool {
	return t.IsActive == nil || *t.IsActive
}

// LogoURL returns the href of the logo marked "default", then the first
// logo, then the flat logo field the scoreboard uses.
func (t *Team) LogoURL() string {
	for _, logo := range t.Logos {
		for _, rel := range logo.Rel {
			if rel == "default" {
				return logo.Href
			}
		}
	}
	if len(t.Logos) > 0 {
		return t.Logos[0].Href
	}
	return t.Logo
}

// Logo is a single team logo variant. Rel tags the variant ("default",
// "dark", "scoreboard").
type Logo struct {
	Href   string   `json:"href"`
	Alt    string   `json:"alt,omitempty"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
	Rel    []string `json:"rel,omitempty"`
}

// Scoreboard is the site API scoreboard payload for one league.
type Scoreboard struct {
	Events []Event `json:"events"`
}

// Event is a single game on the scoreboard.
type Event struct {
	ID           string        `json:"id"`
	UID          string        `json:"uid"`
	Date         ESPNTime      `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Season       Season        `json:"season"`
	Week         Week          `json:"week"`
	Competitions []Competition `json:"competitions"`
	Status       Status        `json:"status"`
}

// Season identifies the season an event belongs to.
type Season struct {
	Year int    `json:"year"`
	Type int    `json:"type"`
	Slug string `json:"slug"`
}

// Week is the scoreboard week block (football only).
type Week struct {
	Number int `json:"number"`
}

// Competition carries the venue, attendance and competitors for an
// event. The scoreboard emits exactly one per event.
type Competition struct {
	ID          string       `json:"id"`
	Date        ESPNTime     `json:"date"`
	Attendance  int          `json:"attendance"`
	Venue       *Venue       `json:"venue"`
	Competitors []Competitor `json:"competitors"`
	Status      *Status      `json:"status"`
}

// Competitor is one side of a competition.
type Competitor struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Order    int    `json:"order"`
	HomeAway string `json:"homeAway"`
	Winner   *bool  `json:"winner"`
	Score    string `json:"score"`
	Team     Team   `json:"team"`
}

// Venue is the competition venue block. Indoor is a pointer because
// ESPN omits it for some sports.
type Venue struct {
	ID       string  `json:"id"`
	FullName string  `json:"fullName"`
	Address  Address `json:"address"`
	Capacity int     `json:"capacity"`
	Indoor   *bool   `json:"indoor"`
}

// Address is the venue address block.
type Address struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Status is the game status block.
type Status struct {
	Clock        float64    `json:"clock"`
	DisplayClock string     `json:"displayClock"`
	Period       int        `json:"period"`
	Type         StatusType `json:"type"`
}

// StatusType describes the game state. State is one of "pre", "in",
// "post"; Name distinguishes postponements and cancellations.
type StatusType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
	ShortDetail string `json:"shortDetail"`
}

// RosterResponse is the site API team roster payload.
type RosterResponse struct {
	Team     Team           `json:"team"`
	Athletes RosterAthletes `json:"athletes"`
}

// RosterAthletes flattens both roster shapes ESPN uses: a flat athlete
// list (basketball) or position-grouped sections with an items array
// (football).
type RosterAthletes []Athlete

func (ra *RosterAthletes) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	out := make([]Athlete, 0, len(entries))
	for _, entry := range entries {
		var group struct {
			Position string    `json:"position"`
			Items    []Athlete `json:"items"`
		}
		if err := json.Unmarshal(entry, &group); err == nil && group.Items != nil {
			out = append(out, group.Items...)
			continue
		}

		var athlete Athlete
		if err := json.Unmarshal(entry, &athlete); err != nil {
			return fmt.Errorf("roster entry: %w", err)
		}
		out = append(out, athlete)
	}

	*ra = out
	return nil
}

// Athlete is a single roster entry.
type Athlete struct {
	ID            string    `json:"id"`
	UID           string    `json:"uid"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	FullName      string    `json:"fullName"`
	DisplayName   string    `json:"displayName"`
	ShortName     string    `json:"shortName"`
	Jersey        string    `json:"jersey"`
	Position      *Position `json:"position"`
	DisplayHeight string    `json:"displayHeight"`
	Weight        float64   `json:"weight"`
	Age           int       `json:"age"`
	Headshot      *Headshot `json:"headshot"`
	Active        *bool     `json:"active"`
}

// IsActive reports whether the athlete is active, defaulting to true
// when ESPN omits the flag.
func (a *Athlete) IsActive() bool {
	return a.Active == nil || *a.Active
}

// Position is the athlete position block.
type Position struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Abbreviation string `json:"abbreviation"`
}

// Headshot is the athlete headshot block.
type Headshot struct {
	Href string `json:"href"`
	Alt  string `json:"alt"`
}

// EventSummary is the site API event summary payload. Only the header
// block is modeled; it carries the same competition shape as the
// scoreboard.
type EventSummary struct {
	Header SummaryHeader `json:"header"`
}

// SummaryHeader identifies the event a summary describes.
type SummaryHeader struct {
	ID           string        `json:"id"`
	UID          string        `json:"uid"`
	Season       Season        `json:"season"`
	Week         int           `json:"week"`
	Competitions []Competition `json:"competitions"`
}

// Event converts the summary header into the scoreboard event shape.
// The header has no name fields, so they are rebuilt from the two
// sides when both are present.
func (s *EventSummary) Event() Event {
	ev := Event{
		ID:           s.Header.ID,
		UID:          s.Header.UID,
		Season:       s.Header.Season,
		Week:         Week{Number: s.Header.Week},
		Competitions: s.Header.Competitions,
	}

	if len(s.Header.Competitions) == 0 {
		return ev
	}
	comp := s.Header.Competitions[0]
	ev.Date = comp.Date
	if comp.Status != nil {
		ev.Status = *comp.Status
	}

	var home, away *Competitor
	for idx := range comp.Competitors {
		c := &comp.Competitors[idx]
		switch c.HomeAway {
		case "home":
			home = c
		case "away":
			away = c
		}
	}
	if home != nil && away != nil {
		ev.Name = fmt.Sprintf("%s at %s", away.Team.DisplayName, home.Team.DisplayName)
		ev.ShortName = fmt.Sprintf("%s @ %s", away.Team.Abbreviation, home.Team.Abbreviation)
	}

	return ev
}

// LeagueInfo is the core API league metadata payload.
type LeagueInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Abbreviation string `json:"abbreviation"`
	ShortName    string `json:"shortName"`
	Slug         string `json:"slug"`
}
