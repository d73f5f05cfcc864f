package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/fortuna/pressbox/internal/ingest"
)

// IngestHandler exposes on-demand ingestion runs.
type IngestHandler struct {
	ingester *ingest.Ingester
}

// NewIngestHandler wires the REST layer to the ingestion mapper.
func NewIngestHandler(ingester *ingest.Ingester) *IngestHandler {
	return &IngestHandler{ingester: ingester}
}

type ingestTeamsRequest struct {
	Sport  string `json:"sport"`
	League string `json:"league"`
}

type ingestScoreboardRequest struct {
	Sport  string `json:"sport"`
	League string `json:"league"`
	Date   string `json:"date"`
}

type ingestRosterRequest struct {
	Sport      string `json:"sport"`
	League     string `json:"league"`
	TeamESPNID string `json:"team_espn_id"`
}

// IngestTeams handles POST /api/v1/ingest/teams/. The run is synchronous;
// partial failures still return 200 with the errors listed in the result.
func (h *IngestHandler) IngestTeams(w http.ResponseWriter, r *http.Request) {
	var req ingestTeamsRequest
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.Sport == "" || req.League == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "sport and league are required")
		return
	}

	result, err := h.ingester.IngestTeams(r.Context(), req.Sport, req.League)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// IngestScoreboard handles POST /api/v1/ingest/scoreboard/. Date is
// optional; both 2006-01-02 and 20060102 are accepted.
func (h *IngestHandler) IngestScoreboard(w http.ResponseWriter, r *http.Request) {
	var req ingestScoreboardRequest
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.Sport == "" || req.League == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "sport and league are required")
		return
	}

	date, err := parseIngestDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := h.ingester.IngestScoreboard(r.Context(), req.Sport, req.League, date)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// IngestRoster handles POST /api/v1/ingest/roster/.
func (h *IngestHandler) IngestRoster(w http.ResponseWriter, r *http.Request) {
	var req ingestRosterRequest
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if req.Sport == "" || req.League == "" || req.TeamESPNID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "sport, league and team_espn_id are required")
		return
	}

	result, err := h.ingester.IngestRoster(r.Context(), req.Sport, req.League, req.TeamESPNID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// parseIngestDate parses an optional scoreboard date in either accepted
// layout, returning the zero time when absent.
func parseIngestDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, errors.New("date must be formatted YYYY-MM-DD or YYYYMMDD")
}
