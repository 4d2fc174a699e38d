package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/orchestrator"
)

// JobHandler exposes job submission, status polling and cancellation
type JobHandler struct {
	orchestrator *orchestrator.Orchestrator
}

// NewJobHandler creates a new job handler
func NewJobHandler(orch *orchestrator.Orchestrator) *JobHandler {
	return &JobHandler{orchestrator: orch}
}

// SubmitResponse is returned on successful submission
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// LimitExceededResponse is returned when every requested section is at
// its daily cap; limits_info lets the client render usage numbers.
type LimitExceededResponse struct {
	Error         string           `json:"error"`
	LimitExceeded bool             `json:"limit_exceeded"`
	LimitsInfo    model.LimitsInfo `json:"limits_info"`
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, role := identity(r)

	jobID, err := h.orchestrator.Submit(r.Context(), userID, role, req)
	if err != nil {
		var limitErr *orchestrator.LimitExceededError
		switch {
		case errors.As(err, &limitErr):
			writeJSON(w, http.StatusTooManyRequests, LimitExceededResponse{
				Error:         limitErr.Error(),
				LimitExceeded: true,
				LimitsInfo:    limitErr.Info,
			})
		case errors.Is(err, model.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, model.ErrLedgerUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: jobID})
}

// Status handles GET /api/v1/jobs/{id}. Polling is idempotent and
// side-effect-free.
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job id is required")
		return
	}

	job, err := h.orchestrator.Status(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	userID, _ := identity(r)
	if userID == "" {
		userID = orchestrator.AnonymousUser
	}
	if job.UserID != userID {
		// Do not leak job existence across users.
		writeError(w, http.StatusNotFound, "job not found: "+jobID)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Cancel handles POST /api/v1/jobs/{id}/cancel
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	jobID := strings.TrimSuffix(path, "/cancel")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job id is required")
		return
	}

	job, err := h.orchestrator.Status(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	userID, _ := identity(r)
	if userID == "" {
		userID = orchestrator.AnonymousUser
	}
	if job.UserID != userID {
		// Same guard as Status: do not leak job existence across users.
		writeError(w, http.StatusNotFound, "job not found: "+jobID)
		return
	}

	if err := h.orchestrator.Cancel(jobID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "cancellation_requested",
	})
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)

	summaries := h.orchestrator.Jobs(userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  summaries,
		"total": len(summaries),
	})
}

// Limits handles GET /api/v1/limits
func (h *JobHandler) Limits(w http.ResponseWriter, r *http.Request) {
	userID, role := identity(r)

	info, err := h.orchestrator.Limits(r.Context(), userID, role)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}
