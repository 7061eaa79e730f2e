// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"flowplane/internal/controller/handlers"
	"flowplane/internal/controller/middleware"
)

// Options configures the controller server.
type Options struct {
	// Requests per second accepted across all callers, 0 disables limiting
	RateLimit      float64
	RateLimitBurst int
	// Serves GET /metrics when set
	Metrics http.Handler
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, h *handlers.Handlers, opts Options) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      Routes(h, opts),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Routes builds the controller's HTTP handler.
func Routes(h *handlers.Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	// Probes and metrics bypass the rate limit.
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	projects := http.NewServeMux()
	projects.HandleFunc("GET /projects/{project}/jobs", h.ListJobs)
	projects.HandleFunc("GET /projects/{project}/jobs/{job}/status", h.GetJobStatus)
	projects.HandleFunc("POST /projects/{project}/submit", h.Submit)
	projects.HandleFunc("POST /projects/{project}/status/update", h.UpdateStatus)

	// One limiter shared by every project route.
	mux.Handle("/projects/", middleware.RateLimitMiddleware(opts.RateLimit, opts.RateLimitBurst)(projects))

	return middleware.RequestIDMiddleware(mux)
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
