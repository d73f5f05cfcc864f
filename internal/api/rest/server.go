package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/pressbox/internal/ingest"
	"github.com/fortuna/pressbox/internal/jobs"
	"github.com/fortuna/pressbox/internal/store"
)

// Config collects the server wiring.
type Config struct {
	Addr         string
	AllowedHosts []string
	DB           *store.Database
	Ingester     *ingest.Ingester
	Jobs         *jobs.Service
	WSHandler    http.Handler // nil leaves /ws unmounted
}

// Server represents the REST API server
type Server struct {
	addr   string
	server *http.Server
}

// NewServer creates a new REST API server
func NewServer(cfg Config) *Server {
	return &Server{
		addr: cfg.Addr,
		server: &http.Server{
			Addr: cfg.Addr,
			// CORS wraps the router so preflight requests are answered
			// even for method-restricted routes.
			Handler: CORSMiddleware(newRouter(cfg)),
		},
	}
}

func newRouter(cfg Config) *mux.Router {
	handler := NewHandler(cfg.DB)
	ingestHandler := NewIngestHandler(cfg.Ingester)
	jobHandler := NewJobHandler(cfg.Jobs)

	router := mux.NewRouter().StrictSlash(true)

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(AllowedHostsMiddleware(cfg.AllowedHosts))

	// Health check
	router.HandleFunc("/healthz", handler.HealthCheck).Methods("GET")

	// Live updates
	if cfg.WSHandler != nil {
		router.Handle("/ws", cfg.WSHandler).Methods("GET")
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Teams
	api.HandleFunc("/teams/", handler.ListTeams).Methods("GET")
	api.HandleFunc("/teams/espn/{espn_id}/", handler.GetTeamByESPNID).Methods("GET")
	api.HandleFunc("/teams/{id}/", handler.GetTeam).Methods("GET")
	api.HandleFunc("/teams/{id}/athletes/", handler.ListTeamAthletes).Methods("GET")

	// Events
	api.HandleFunc("/events/", handler.ListEvents).Methods("GET")
	api.HandleFunc("/events/espn/{espn_id}/", handler.GetEventByESPNID).Methods("GET")
	api.HandleFunc("/events/{id}/", handler.GetEvent).Methods("GET")

	// On-demand ingestion
	api.HandleFunc("/ingest/teams/", ingestHandler.IngestTeams).Methods("POST")
	api.HandleFunc("/ingest/scoreboard/", ingestHandler.IngestScoreboard).Methods("POST")
	api.HandleFunc("/ingest/roster/", ingestHandler.IngestRoster).Methods("POST")

	// Job queue
	api.HandleFunc("/jobs/", jobHandler.EnqueueJob).Methods("POST")
	api.HandleFunc("/jobs/", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}/", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/", jobHandler.CancelJob).Methods("DELETE")

	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
