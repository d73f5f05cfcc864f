package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/jobs"
	"github.com/fortuna/pressbox/internal/store"
)

const teamsPayload = `{
  "sports": [{"id": "40", "name": "Basketball", "slug": "basketball", "leagues": [{
    "id": "46", "name": "National Basketball Association", "abbreviation": "NBA", "slug": "nba",
    "teams": [{"team": {"id": "13", "slug": "los-angeles-lakers", "abbreviation": "LAL",
      "displayName": "Los Angeles Lakers", "shortDisplayName": "Lakers", "name": "Lakers",
      "location": "Los Angeles", "isActive": true}}]}]}]
}`

type stubReference struct {
	league *store.League
}

func (s *stubReference) GetLeague(ctx context.Context, sportSlug, leagueSlug string) (*store.League, error) {
	return s.league, nil
}

func (s *stubReference) GetOrCreateLeague(ctx context.Context, sportSlug, sportName, leagueSlug, leagueName, abbreviation string) (*store.League, error) {
	return s.league, nil
}

type stubTeamStore struct {
	mu      sync.Mutex
	upserts int
}

func (s *stubTeamStore) Upsert(ctx context.Context, team *store.Team) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	team.ID = s.upserts
	return true, nil
}

func (s *stubTeamStore) GetByLeagueAndESPNID(ctx context.Context, leagueID int, espnID string) (*store.Team, error) {
	return nil, fmt.Errorf("team %s: %w", espnID, store.ErrNotFound)
}

func (s *stubTeamStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// memoryJobStore keeps jobs in insertion order so ListRecent can return
// newest first, the way the SQL repository does.
type memoryJobStore struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*jobs.Job
	order []uuid.UUID
}

func newMemoryJobStore() *memoryJobStore {
	return &memoryJobStore{jobs: map[uuid.UUID]*jobs.Job{}}
}

func (m *memoryJobStore) CreateJob(ctx context.Context, job *jobs.Job) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := job.Copy()
	clone.EnqueuedAt = time.Now().UTC()
	clone.UpdatedAt = clone.EnqueuedAt
	m.jobs[clone.ID] = clone
	m.order = append(m.order, clone.ID)
	return clone.Copy(), nil
}

func (m *memoryJobStore) ClaimNextJob(ctx context.Context) (*jobs.Job, error) {
	return nil, nil
}

func (m *memoryJobStore) RecordResult(ctx context.Context, id uuid.UUID, result *ingest.Result) error {
	return nil
}

func (m *memoryJobStore) MarkFailed(ctx context.Context, id uuid.UUID, jobErr error) error {
	return nil
}

func (m *memoryJobStore) CancelJob(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if job.Status != jobs.JobStatusQueued {
		return nil, fmt.Errorf("job %s: %w", id, jobs.ErrNotCancellable)
	}
	job.Status = jobs.JobStatusCancelled
	job.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	return job.Copy(), nil
}

func (m *memoryJobStore) ResetStuckJobs(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *memoryJobStore) GetByID(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[id]; ok {
		return job.Copy(), nil
	}
	return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
}

func (m *memoryJobStore) ListRecent(ctx context.Context, limit int) ([]*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*jobs.Job, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.jobs[m.order[i]].Copy())
	}
	return out, nil
}

func newQuietJobService(jobStore jobs.Store) *jobs.Service {
	return jobs.NewService(jobStore, nil, 1, log.New(io.Discard, "", 0))
}

type apiFixture struct {
	router   *mux.Router
	jobStore *memoryJobStore
	teams    *stubTeamStore
}

func newAPIFixture(t *testing.T, espnHandler http.Handler) *apiFixture {
	t.Helper()
	return newAPIFixtureTimeout(t, espnHandler, 2*time.Second)
}

func newAPIFixtureTimeout(t *testing.T, espnHandler http.Handler, timeout time.Duration) *apiFixture {
	t.Helper()

	if espnHandler == nil {
		espnHandler = http.NotFoundHandler()
	}
	srv := httptest.NewServer(espnHandler)
	t.Cleanup(srv.Close)

	client := espn.NewClient(espn.Config{
		SiteBaseURL: srv.URL,
		CoreBaseURL: srv.URL,
		Timeout:     timeout,
		MaxRetries:  1,
		Backoff:     time.Millisecond,
	})

	teams := &stubTeamStore{}
	ingester := ingest.New(ingest.Config{
		Client: client,
		Reference: &stubReference{league: &store.League{
			ID:           1,
			Slug:         "nba",
			Name:         "National Basketball Association",
			Abbreviation: "NBA",
			SportSlug:    "basketball",
		}},
		Teams: teams,
	})

	jobStore := newMemoryJobStore()
	router := newRouter(Config{
		Ingester: ingester,
		Jobs:     newQuietJobService(jobStore),
	})

	return &apiFixture{router: router, jobStore: jobStore, teams: teams}
}

func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var envelope struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Error
}

func TestListEndpointsRejectBadParams(t *testing.T) {
	f := newAPIFixture(t, nil)

	cases := []struct {
		name    string
		target  string
		message string
	}{
		{"team id not numeric", "/api/v1/teams/lakers/", "id must be an integer"},
		{"is_active not boolean", "/api/v1/teams/?is_active=maybe", "is_active must be a boolean"},
		{"page not numeric", "/api/v1/teams/?page=one", "page must be an integer"},
		{"athletes id not numeric", "/api/v1/teams/lakers/athletes/", "id must be an integer"},
		{"event id not numeric", "/api/v1/events/opener/", "id must be an integer"},
		{"date malformed", "/api/v1/events/?date=15-12-2024", "date must be formatted YYYY-MM-DD"},
		{"date_from malformed", "/api/v1/events/?date_from=yesterday", "date_from must be formatted YYYY-MM-DD"},
		{"season_year not numeric", "/api/v1/events/?season_year=twenty", "season_year must be an integer"},
		{"page_size not numeric", "/api/v1/events/?page_size=big", "page_size must be an integer"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.target, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeErrorBody(t, rec)
			assert.Equal(t, "validation_error", body.Code)
			assert.Equal(t, tc.message, body.Message)
			assert.Equal(t, http.StatusBadRequest, body.Status)
		})
	}
}

func TestIngestEndpointsRejectBadBodies(t *testing.T) {
	f := newAPIFixture(t, nil)

	cases := []struct {
		name    string
		target  string
		body    string
		message string
	}{
		{"teams missing league", "/api/v1/ingest/teams/", `{"sport": "basketball"}`,
			"sport and league are required"},
		{"roster missing team", "/api/v1/ingest/roster/", `{"sport": "basketball", "league": "nba"}`,
			"sport, league and team_espn_id are required"},
		{"scoreboard bad date", "/api/v1/ingest/scoreboard/", `{"sport": "basketball", "league": "nba", "date": "12/15/2024"}`,
			"date must be formatted YYYY-MM-DD or YYYYMMDD"},
		{"unknown field", "/api/v1/ingest/teams/", `{"sport": "basketball", "league": "nba", "mode": "fast"}`,
			`body contains unknown field "mode"`},
		{"wrong field type", "/api/v1/ingest/teams/", `{"sport": 7, "league": "nba"}`,
			`body contains incorrect JSON type for field "sport"`},
		{"empty body", "/api/v1/ingest/teams/", "",
			"body must not be empty"},
		{"trailing garbage", "/api/v1/ingest/teams/", `{"sport": "basketball", "league": "nba"}{}`,
			"body must contain a single JSON value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.target, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeErrorBody(t, rec)
			assert.Equal(t, "validation_error", body.Code)
			assert.Equal(t, tc.message, body.Message)
		})
	}

	assert.Zero(t, f.teams.count(), "rejected requests must not reach the ingester")
}

func TestIngestTeamsEndpoint(t *testing.T) {
	f := newAPIFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, teamsPayload)
	}))

	rec := f.do(t, http.MethodPost, "/api/v1/ingest/teams/", `{"sport": "basketball", "league": "nba"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result ingest.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.TotalProcessed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, f.teams.count())
}

func TestIngestEndpointsMapUpstreamErrors(t *testing.T) {
	post := func(t *testing.T, f *apiFixture) *httptest.ResponseRecorder {
		t.Helper()
		return f.do(t, http.MethodPost, "/api/v1/ingest/teams/", `{"sport": "basketball", "league": "nba"}`)
	}

	t.Run("missing resource", func(t *testing.T) {
		f := newAPIFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))

		rec := post(t, f)
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeErrorBody(t, rec)
		assert.Equal(t, "espn_not_found", body.Code)
		assert.Equal(t, "ESPN has no such resource", body.Message)
	})

	t.Run("rate limited", func(t *testing.T) {
		f := newAPIFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		rec := post(t, f)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "espn_rate_limit", decodeErrorBody(t, rec).Code)
	})

	t.Run("upstream 500", func(t *testing.T) {
		f := newAPIFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		rec := post(t, f)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		body := decodeErrorBody(t, rec)
		assert.Equal(t, "espn_error", body.Code)
		assert.Equal(t, "ESPN returned status 500", body.Message)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		f := newAPIFixtureTimeout(t, slow, 20*time.Millisecond)

		rec := post(t, f)
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)

		body := decodeErrorBody(t, rec)
		assert.Equal(t, "espn_timeout", body.Code)
		assert.Equal(t, "ESPN did not respond in time", body.Message)
	})
}

func TestEnqueueJobAccepted(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/jobs/",
		`{"type": "ingest_scoreboard", "sport": "basketball", "league": "nba", "date": "2024-12-15"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var envelope struct {
		Job map[string]interface{} `json:"job"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "ingest_scoreboard", envelope.Job["type"])
	assert.Equal(t, "queued", envelope.Job["status"])
	assert.Equal(t, "2024-12-15", envelope.Job["date"])

	rawID, ok := envelope.Job["id"].(string)
	require.True(t, ok)
	id, err := uuid.Parse(rawID)
	require.NoError(t, err)

	stored, err := f.jobStore.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusQueued, stored.Status)
	assert.Equal(t, jobs.JobTypeScoreboard, stored.JobType)
}

func TestEnqueueJobRejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t, nil)

	cases := []struct {
		name     string
		body     string
		fragment string
	}{
		{"unknown type", `{"type": "rebuild_standings", "sport": "basketball", "league": "nba"}`, "unknown job type"},
		{"missing league", `{"type": "ingest_teams", "sport": "basketball"}`, "sport and league are required"},
		{"roster without team", `{"type": "ingest_roster", "sport": "basketball", "league": "nba"}`, "team_espn_id"},
		{"bad date", `{"type": "ingest_scoreboard", "sport": "basketball", "league": "nba", "date": "dec 15"}`, "date must be formatted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/jobs/", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeErrorBody(t, rec)
			assert.Equal(t, "validation_error", body.Code)
			assert.Contains(t, body.Message, tc.fragment)
		})
	}

	list, err := f.jobStore.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected requests must not be stored")
}

func TestGetJobByID(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/jobs/not-a-uuid/", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id must be a UUID", decodeErrorBody(t, rec).Message)

	rec = f.do(t, http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"/", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeErrorBody(t, rec)
	assert.Equal(t, "not_found", body.Code)
	assert.Equal(t, "resource not found", body.Message)
}

func TestCancelJob(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/jobs/",
		`{"type": "ingest_teams", "sport": "basketball", "league": "nba"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var envelope struct {
		Job map[string]interface{} `json:"job"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	rawID, ok := envelope.Job["id"].(string)
	require.True(t, ok)

	rec = f.do(t, http.MethodDelete, "/api/v1/jobs/"+rawID+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cancelled))
	assert.Equal(t, "cancelled", cancelled["status"])
	assert.NotEmpty(t, cancelled["finished_at"])

	rec = f.do(t, http.MethodDelete, "/api/v1/jobs/"+rawID+"/", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_cancellable", decodeErrorBody(t, rec).Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/jobs/"+uuid.NewString()+"/", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsNewestFirst(t *testing.T) {
	f := newAPIFixture(t, nil)

	for _, league := range []string{"nba", "wnba", "mens-college-basketball"} {
		rec := f.do(t, http.MethodPost, "/api/v1/jobs/",
			fmt.Sprintf(`{"type": "ingest_teams", "sport": "basketball", "league": %q}`, league))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/jobs/?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Count   int                      `json:"count"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "mens-college-basketball", page.Results[0]["league"])
	assert.Equal(t, "wnba", page.Results[1]["league"])
}

func TestAllowedHostsFiltering(t *testing.T) {
	router := newRouter(Config{
		AllowedHosts: []string{"api.pressbox.dev"},
		Jobs:         newQuietJobService(newMemoryJobStore()),
	})

	req := httptest.NewRequest(http.MethodGet, "http://rogue.example/api/v1/jobs/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeErrorBody(t, rec)
	assert.Equal(t, "bad_host", body.Code)
	assert.Equal(t, "host not allowed", body.Message)

	// The port and letter case are ignored when matching.
	req = httptest.NewRequest(http.MethodGet, "http://API.pressbox.dev:8000/api/v1/jobs/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t, nil)
	handler := CORSMiddleware(f.router)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ingest/teams/", nil)
	req.Header.Set("Origin", "https://scores.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestRequestIDHeader(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/jobs/", "")
	generated := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, generated)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err, "generated request ids are UUIDs")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/", nil)
	req.Header.Set("X-Request-ID", "trace-4217")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-4217", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("scoreboard melted")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeErrorBody(t, rec)
	assert.Equal(t, "internal_error", body.Code)
	assert.Equal(t, "internal server error", body.Message)
}

func TestTrailingSlashRedirect(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/teams", "")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/api/v1/teams/", rec.Header().Get("Location"))
}

func TestWSRouteMountedOnlyWhenConfigured(t *testing.T) {
	marker := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	withWS := newRouter(Config{Jobs: newQuietJobService(newMemoryJobStore()), WSHandler: marker})
	rec := httptest.NewRecorder()
	withWS.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	withoutWS := newRouter(Config{Jobs: newQuietJobService(newMemoryJobStore())})
	rec = httptest.NewRecorder()
	withoutWS.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
