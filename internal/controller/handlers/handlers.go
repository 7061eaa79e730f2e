// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"flowplane/internal/logger"
	"flowplane/internal/manage"
	"flowplane/internal/project"
	"flowplane/internal/scheduler"
	"flowplane/internal/store"
	"flowplane/pkg/api"
)

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store   store.JobStore
	manager *manage.Manager
	env     scheduler.Environment
	logger  *slog.Logger
}

// New creates a new Handlers instance. env may be nil, in which case only
// pretend submissions succeed, other submissions get 503 without recording
// anything, and status updates are refused.
func New(s store.JobStore, m *manage.Manager, env scheduler.Environment, logger *slog.Logger) *Handlers {
	return &Handlers{store: s, manager: m, env: env, logger: logger}
}

// project resolves the {project} path value.
func (h *Handlers) project(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	p, err := project.New(r.PathValue("project"), h.store)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return p, true
}

func (h *Handlers) log(r *http.Request) *slog.Logger {
	return logger.FromContext(r.Context(), h.logger)
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

func statusStrings(sd manage.StatusDoc) map[string]string {
	out := make(map[string]string, len(sd))
	for id, s := range sd {
		out[id] = s.String()
	}
	return out
}
