package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"flowplane/internal/manage"
	"flowplane/pkg/api"
)

// Submit handles POST /projects/{project}/submit.
//
// Responses:
//   - 200 when the job was handed to the scheduler (or pretended)
//   - 409 when the job is already submitted and force is not set
//   - 502 when the scheduler failed or rejected the job
//   - 503 when no scheduler is configured
//   - 500 when the scheduler took the job but its status was not recorded
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Script) == "" {
		h.httpError(w, "Script is required", http.StatusBadRequest)
		return
	}

	log := h.log(r)
	res, err := h.manager.Submit(r.Context(), h.env, p, req.StatePoint, req.Script, manage.SubmitOptions{
		Identifier: req.Identifier,
		Force:      req.Force,
		Pretend:    req.Pretend,
		Args:       req.Args,
		Options:    req.Options,
	})
	if res == nil {
		log.Error("failed to prepare submission", "project", p.ID(), "error", err)
		h.httpError(w, "Failed to open job", http.StatusInternalServerError)
		return
	}

	resp := api.SubmitResponse{
		JobID:           res.JobID,
		JobSubmissionID: res.JobSubmissionID,
		Submitted:       res.Submitted,
		Status:          res.Status.String(),
	}

	switch {
	case err != nil && res.Submitted:
		// Scheduler accepted the job but the status could not be recorded.
		log.Error("submission not recorded", "jobsid", res.JobSubmissionID, "error", err)
		resp.Error = err.Error()
		h.respondJson(w, http.StatusInternalServerError, resp)
	case errors.Is(err, manage.ErrNoEnvironment):
		resp.Error = err.Error()
		h.respondJson(w, http.StatusServiceUnavailable, resp)
	case err != nil:
		resp.Error = err.Error()
		h.respondJson(w, http.StatusBadGateway, resp)
	case !res.Submitted:
		resp.Error = "job already submitted"
		h.respondJson(w, http.StatusConflict, resp)
	default:
		h.respondJson(w, http.StatusOK, resp)
	}
}
