package rest

import (
	"net/http"
	"strconv"

	"github.com/fortuna/pressbox/internal/service"
	"github.com/fortuna/pressbox/internal/store"
	"github.com/gorilla/mux"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db           *store.Database
	teamService  *service.TeamService
	eventService *service.EventService
}

// NewHandler creates a new handler
func NewHandler(db *store.Database) *Handler {
	return &Handler{
		db:           db,
		teamService:  service.NewTeamService(db),
		eventService: service.NewEventService(db),
	}
}

// HealthCheck reports service and database health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "down",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "up",
	})
}

// ListTeams returns a filtered, paginated page of teams
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.TeamListParams{
		Sport:        query.Get("sport"),
		League:       query.Get("league"),
		Search:       query.Get("search"),
		Abbreviation: query.Get("abbreviation"),
	}

	if raw := query.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "is_active must be a boolean")
			return
		}
		params.IsActive = &active
	}

	var err error
	if params.Page, err = queryInt(r, "page"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.PageSize, err = queryInt(r, "page_size"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	teams, count, err := h.teamService.ListTeams(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{Count: count, Results: teams})
}

// GetTeam returns a team by internal id
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be an integer")
		return
	}

	team, err := h.teamService.GetTeam(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// GetTeamByESPNID returns a team by its ESPN id
func (h *Handler) GetTeamByESPNID(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamService.GetTeamByESPNID(r.Context(), mux.Vars(r)["espn_id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, team)
}

// ListTeamAthletes returns the roster of a team
func (h *Handler) ListTeamAthletes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be an integer")
		return
	}

	athletes, err := h.teamService.ListTeamAthletes(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{Count: len(athletes), Results: athletes})
}

// ListEvents returns a filtered, paginated page of events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.EventListParams{
		Sport:  query.Get("sport"),
		League: query.Get("league"),
		Status: query.Get("status"),
		Team:   query.Get("team"),
	}

	var err error
	if params.Date, err = parseDateParam(r, "date"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.DateFrom, err = parseDateParam(r, "date_from"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.DateTo, err = parseDateParam(r, "date_to"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.SeasonYear, err = queryInt(r, "season_year"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.SeasonType, err = queryInt(r, "season_type"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.Page, err = queryInt(r, "page"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if params.PageSize, err = queryInt(r, "page_size"); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	events, count, err := h.eventService.ListEvents(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{Count: count, Results: events})
}

// GetEvent returns an event with competitors and venue by internal id
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be an integer")
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// GetEventByESPNID returns an event with competitors and venue by ESPN id
func (h *Handler) GetEventByESPNID(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.GetEventByESPNID(r.Context(), mux.Vars(r)["espn_id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}
