package handlers

import (
	"net/http"

	"flowplane/internal/reconciler"
	"flowplane/pkg/api"
)

// UpdateStatus handles POST /projects/{project}/status/update.
// It runs a single reconciliation pass over the project's jobs.
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}
	if h.env == nil {
		h.httpError(w, "No scheduler configured", http.StatusServiceUnavailable)
		return
	}

	log := h.log(r)
	rec := reconciler.New(p, h.env, h.manager, reconciler.Config{}, log)

	n, err := rec.RunOnce(r.Context())
	if err != nil {
		log.Warn("status update incomplete", "project", p.ID(), "updated", n, "error", err)
		h.respondJson(w, http.StatusBadGateway, api.UpdateStatusResponse{Updated: n, Error: err.Error()})
		return
	}

	h.respondJson(w, http.StatusOK, api.UpdateStatusResponse{Updated: n})
}
