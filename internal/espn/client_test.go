package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamsPayload = `{
	"sports": [{
		"id": "40",
		"name": "Basketball",
		"slug": "basketball",
		"leagues": [{
			"id": "46",
			"name": "National Basketball Association",
			"abbreviation": "NBA",
			"slug": "nba",
			"teams": [
				{"team": {"id": "2", "uid": "s:40~l:46~t:2", "slug": "boston-celtics", "abbreviation": "BOS", "displayName": "Boston Celtics", "shortDisplayName": "Celtics", "name": "Celtics", "location": "Boston", "color": "006532", "isActive": true, "logos": [{"href": "https://a.espncdn.com/i/teamlogos/nba/500/bos.png"}]}},
				{"team": {"id": "5", "slug": "cleveland-cavaliers", "abbreviation": "CLE", "displayName": "Cleveland Cavaliers", "shortDisplayName": "Cavaliers", "name": "Cavaliers", "location": "Cleveland", "isActive": true}}
			]
		}]
	}]
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		SiteBaseURL: srv.URL,
		CoreBaseURL: srv.URL,
		Timeout:     2 * time.Second,
		MaxRetries:  2,
		Backoff:     time.Millisecond,
	})
}

func TestTeamsFlattensDirectory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/teams", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(teamsPayload))
	}))

	resp, err := client.Teams(context.Background(), "basketball", "nba")
	require.NoError(t, err)

	teams := resp.Teams()
	require.Len(t, teams, 2)
	assert.Equal(t, "2", teams[0].ID)
	assert.Equal(t, "Boston Celtics", teams[0].DisplayName)
	assert.Equal(t, "BOS", teams[0].Abbreviation)
	assert.Equal(t, "https://a.espncdn.com/i/teamlogos/nba/500/bos.png", teams[0].LogoURL())
	assert.Equal(t, "5", teams[1].ID)
}

func TestScoreboardSendsDateParam(t *testing.T) {
	var gotQuery atomic.Value
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/scoreboard", r.URL.Path)
		gotQuery.Store(r.URL.RawQuery)
		w.Write([]byte(`{"events": []}`))
	}))

	date := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	resp, err := client.Scoreboard(context.Background(), "basketball", "nba", date)
	require.NoError(t, err)
	assert.Empty(t, resp.Events)
	assert.Equal(t, "dates=20241215", gotQuery.Load())

	_, err = client.Scoreboard(context.Background(), "basketball", "nba", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "", gotQuery.Load())
}

func TestEventSummaryQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/summary", r.URL.Path)
		assert.Equal(t, "401585601", r.URL.Query().Get("event"))
		w.Write([]byte(`{"header": {"id": "401585601", "season": {"year": 2025, "type": 2}}}`))
	}))

	summary, err := client.EventSummary(context.Background(), "basketball", "nba", "401585601")
	require.NoError(t, err)
	assert.Equal(t, "401585601", summary.Header.ID)
	assert.Equal(t, 2025, summary.Header.Season.Year)
}

func TestLeagueInfoUsesCoreAPI(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/sports/hockey/leagues/nhl", r.URL.Path)
		w.Write([]byte(`{"id": "90", "name": "National Hockey League", "abbreviation": "NHL", "slug": "nhl"}`))
	}))

	info, err := client.LeagueInfo(context.Background(), "hockey", "nhl")
	require.NoError(t, err)
	assert.Equal(t, "National Hockey League", info.Name)
	assert.Equal(t, "NHL", info.Abbreviation)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"events": []}`))
	}))

	_, err := client.Scoreboard(context.Background(), "basketball", "nba", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExhaustedRetriesReturnLastError(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Teams(context.Background(), "basketball", "nba")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorsFailImmediately(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, nil},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tc.status)
			}))

			_, err := client.Teams(context.Background(), "basketball", "nba")
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.StatusCode)
			if tc.sentinel != nil {
				assert.ErrorIs(t, err, tc.sentinel)
			}
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
		})
	}
}

func TestTimeoutsRetriedAndClassified(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		SiteBaseURL: srv.URL,
		Timeout:     20 * time.Millisecond,
		MaxRetries:  1,
		Backoff:     time.Millisecond,
	})

	_, err := client.Teams(context.Background(), "basketball", "nba")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMalformedBodyNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`<html>scoreboard unavailable</html>`))
	}))

	_, err := client.Scoreboard(context.Background(), "basketball", "nba", time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
