package rest

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fortuna/pressbox/internal/jobs"
)

// JobHandler exposes the ingestion job queue.
type JobHandler struct {
	jobs *jobs.Service
}

// NewJobHandler wires the REST layer to the job service.
func NewJobHandler(svc *jobs.Service) *JobHandler {
	return &JobHandler{jobs: svc}
}

type enqueueJobRequest struct {
	Type       string `json:"type"`
	Sport      string `json:"sport"`
	League     string `json:"league"`
	Date       string `json:"date"`
	TeamESPNID string `json:"team_espn_id"`
}

// EnqueueJob handles POST /api/v1/jobs/. The job runs asynchronously;
// poll GET /api/v1/jobs/{id}/ for the outcome.
func (h *JobHandler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req enqueueJobRequest
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	date, err := parseIngestDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	job, err := h.jobs.Enqueue(r.Context(), jobs.Request{
		Type:       jobs.JobType(req.Type),
		Sport:      req.Sport,
		League:     req.League,
		Date:       date,
		TeamESPNID: req.TeamESPNID,
	})
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// GetJob handles GET /api/v1/jobs/{id}/.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be a UUID")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, jobPayload(job))
}

// CancelJob handles DELETE /api/v1/jobs/{id}/. Only queued jobs can be
// cancelled; a job a worker already claimed runs to completion.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be a UUID")
		return
	}

	job, err := h.jobs.CancelJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotCancellable) {
			respondError(w, http.StatusConflict, "not_cancellable", "job already started or finished")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, jobPayload(job))
}

// ListJobs handles GET /api/v1/jobs/.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	list, err := h.jobs.ListJobs(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	payloads := make([]map[string]interface{}, 0, len(list))
	for _, job := range list {
		payloads = append(payloads, jobPayload(job))
	}

	respondJSON(w, http.StatusOK, listResponse{Count: len(payloads), Results: payloads})
}

func jobPayload(job *jobs.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"id":            job.ID,
		"type":          job.JobType,
		"sport":         job.Sport,
		"league":        job.League,
		"status":        job.Status,
		"created_count": job.CreatedCount,
		"updated_count": job.UpdatedCount,
		"error_count":   job.ErrorCount,
		"enqueued_at":   job.EnqueuedAt,
	}

	if job.EventDate.Valid {
		payload["date"] = job.EventDate.Time.Format("2006-01-02")
	}
	if job.TeamESPNID.Valid {
		payload["team_espn_id"] = job.TeamESPNID.String
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.FinishedAt.Valid {
		payload["finished_at"] = job.FinishedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
