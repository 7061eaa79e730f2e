package handlers

import "net/http"

// Healthz is a liveness probe.
// It returns 200 OK if the server is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz is a readiness probe.
// It reports whether the job store is reachable.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log(r).Warn("readiness check failed", "error", err)
		h.httpError(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ready"})
}
