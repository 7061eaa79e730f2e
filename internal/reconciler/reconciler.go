// Package reconciler periodically brings recorded job status in line with the scheduler.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flowplane/internal/manage"
	"flowplane/internal/project"
	"flowplane/internal/scheduler"

	"github.com/hashicorp/go-multierror"
)

// JobLister reports the scheduler's view of its jobs.
type JobLister interface {
	Jobs(ctx context.Context) (scheduler.Jobs, error)
}

// Config holds configuration for the reconciler loop.
type Config struct {
	Interval   time.Duration // Time between passes (default: 30s)
	MaxBackoff time.Duration // Maximum delay after failed passes (default: 5m)
}

// Reconciler runs reconciliation passes over every job of a project.
type Reconciler struct {
	project *project.Project
	env     JobLister
	manager *manage.Manager
	config  Config
	logger  *slog.Logger
	done    chan struct{}
}

// New creates a reconciler.
func New(p *project.Project, env JobLister, m *manage.Manager, config Config, logger *slog.Logger) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.MaxBackoff < config.Interval {
		config.MaxBackoff = 5 * time.Minute
		if config.MaxBackoff < config.Interval {
			config.MaxBackoff = config.Interval
		}
	}

	return &Reconciler{
		project: p,
		env:     env,
		manager: m,
		config:  config,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// RunOnce reconciles every job of the project against a single snapshot of
// the scheduler. A failing job does not stop the pass; all failures are
// returned together. It returns the number of jobs updated.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	schedulerJobs, err := r.env.Jobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to query scheduler: %w", err)
	}

	jobs, err := r.project.Jobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs of project %s: %w", r.project, err)
	}

	var merr *multierror.Error
	updated := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, err)
			break
		}
		if err := r.manager.UpdateStatus(ctx, job, schedulerJobs); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		updated++
	}

	return updated, merr.ErrorOrNil()
}

// Run performs a pass every interval until ctx is cancelled. Failed passes
// back off exponentially up to MaxBackoff; a successful pass resets the delay.
func (r *Reconciler) Run(ctx context.Context) error {
	defer close(r.done)

	r.logger.Info("reconciler starting", "project", r.project.ID(), "interval", r.config.Interval)

	delay := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-time.After(delay):
		}

		n, err := r.RunOnce(ctx)
		if err != nil {
			delay = nextBackoff(delay, r.config.Interval, r.config.MaxBackoff)
			r.logger.Warn("reconciliation pass failed", "updated", n, "error", err, "retry_in", delay)
			continue
		}

		delay = r.config.Interval
		r.logger.Debug("reconciliation pass finished", "updated", n)
	}
}

// Done returns a channel that is closed when Run has returned.
func (r *Reconciler) Done() <-chan struct{} {
	return r.done
}

func nextBackoff(current, interval, max time.Duration) time.Duration {
	if current < interval {
		current = interval
	}
	next := current * 2
	if next > max {
		next = max
	}
	return next
}
