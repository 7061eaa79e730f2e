package handlers

import (
	"errors"
	"net/http"

	"flowplane/internal/manage"
	"flowplane/internal/project"
	"flowplane/internal/store"
	"flowplane/pkg/api"
)

// ListJobs handles GET /projects/{project}/jobs.
// It returns every job of the project together with its status document.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	jobs, err := p.Jobs(r.Context())
	if err != nil {
		h.log(r).Error("failed to list jobs", "project", p.ID(), "error", err)
		h.httpError(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	resp := api.ListJobsResponse{Project: p.ID(), Jobs: make([]api.JobStatusResponse, 0, len(jobs))}
	for _, job := range jobs {
		js, err := jobStatus(r, job)
		if err != nil {
			h.log(r).Error("failed to read status", "job", job.ID(), "error", err)
			h.httpError(w, "Failed to read job status", http.StatusInternalServerError)
			return
		}
		resp.Jobs = append(resp.Jobs, js)
	}

	h.respondJson(w, http.StatusOK, resp)
}

// GetJobStatus handles GET /projects/{project}/jobs/{job}/status.
func (h *Handlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	job, err := p.Job(r.Context(), r.PathValue("job"))
	if errors.Is(err, store.ErrNotFound) {
		h.httpError(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log(r).Error("failed to load job", "project", p.ID(), "error", err)
		h.httpError(w, "Failed to load job", http.StatusInternalServerError)
		return
	}

	resp, err := jobStatus(r, job)
	if err != nil {
		h.log(r).Error("failed to read status", "job", job.ID(), "error", err)
		h.httpError(w, "Failed to read job status", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, resp)
}

func jobStatus(r *http.Request, job *project.Job) (api.JobStatusResponse, error) {
	sd, err := manage.ReadStatusDoc(r.Context(), job.Document())
	if err != nil {
		return api.JobStatusResponse{}, err
	}
	return api.JobStatusResponse{
		JobID:      job.ID(),
		StatePoint: job.StatePoint(),
		Status:     statusStrings(sd),
	}, nil
}
