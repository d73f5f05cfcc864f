package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamFilterWhere(t *testing.T) {
	active := true
	where, args := TeamFilter{
		Sport:        "basketball",
		League:       "nba",
		Search:       "celt",
		Abbreviation: "BOS",
		IsActive:     &active,
	}.where()

	assert.Contains(t, where, "LOWER(s.slug) = LOWER($1)")
	assert.Contains(t, where, "LOWER(l.slug) = LOWER($2)")
	assert.Contains(t, where, "t.display_name ILIKE $3")
	assert.Contains(t, where, "t.location ILIKE $3")
	assert.Contains(t, where, "LOWER(t.abbreviation) = LOWER($4)")
	assert.Contains(t, where, "t.is_active = $5")

	require.Len(t, args, 5)
	assert.Equal(t, "%celt%", args[2])
	assert.Equal(t, true, args[4])
}

func TestTeamFilterWhereEmpty(t *testing.T) {
	where, args := TeamFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestEventFilterDateMatchesWholeDay(t *testing.T) {
	date := time.Date(2024, 12, 15, 19, 45, 12, 0, time.UTC)
	where, args := EventFilter{Date: &date}.where()

	assert.Contains(t, where, "e.date >= $1")
	assert.Contains(t, where, "e.date < $2")
	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC), args[1])
}

func TestEventFilterDateNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	date := time.Date(2024, 12, 15, 22, 0, 0, 0, est)

	_, args := EventFilter{Date: &date}.where()

	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC), args[0])
}

func TestEventFilterDateRangeInclusive(t *testing.T) {
	from := time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)

	where, args := EventFilter{DateFrom: &from, DateTo: &to}.where()

	assert.Contains(t, where, "e.date >= $1")
	assert.Contains(t, where, "e.date < $2")
	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), args[1])
}

func TestEventFilterTeamMatchesEitherKey(t *testing.T) {
	where, args := EventFilter{Team: "BOS"}.where()

	assert.Contains(t, where, "ct.espn_id = $1")
	assert.Contains(t, where, "LOWER(ct.abbreviation) = LOWER($1)")
	require.Len(t, args, 1)
	assert.Equal(t, "BOS", args[0])
}

func TestEventFilterPlaceholderOrder(t *testing.T) {
	where, args := EventFilter{
		Sport:      "football",
		League:     "nfl",
		Status:     "final",
		SeasonYear: 2024,
		SeasonType: 2,
		Team:       "12",
	}.where()

	assert.Contains(t, where, "LOWER(s.slug) = LOWER($1)")
	assert.Contains(t, where, "LOWER(l.slug) = LOWER($2)")
	assert.Contains(t, where, "e.status = $3")
	assert.Contains(t, where, "e.season_year = $4")
	assert.Contains(t, where, "e.season_type = $5")
	assert.Contains(t, where, "c.event_id = e.id AND (ct.espn_id = $6")
	require.Len(t, args, 6)
}
