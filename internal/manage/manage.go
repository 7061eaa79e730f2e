// Package manage gates job submission on recorded status and reconciles that
// status against the scheduler.
package manage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flowplane/internal/project"
	"flowplane/internal/scheduler"
	"flowplane/internal/status"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultIdentifier is used when a submission does not name one.
const DefaultIdentifier = "default"

// ErrSubmissionRejected is returned when the scheduler declined a submission
// without reporting an error of its own.
var ErrSubmissionRejected = errors.New("scheduler rejected submission")

// ErrNoEnvironment is returned when a submission needs a scheduler but none
// is configured. Nothing is recorded in that case.
var ErrNoEnvironment = errors.New("no scheduler environment configured")

// Submitter hands scripts to a scheduler.
type Submitter interface {
	Submit(ctx context.Context, req scheduler.SubmitRequest) (bool, error)
}

// SchedulerJobs is the scheduler's view of its jobs, keyed by job-submission-id.
type SchedulerJobs interface {
	Get(id string) *status.ClusterJob
}

// Manager submits jobs and keeps their status documents current.
type Manager struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	submissions metric.Int64Counter
	reconciled  metric.Int64Counter
}

// New creates a Manager that logs to logger and records telemetry through
// the global OpenTelemetry providers.
func New(logger *slog.Logger) *Manager {
	meter := otel.Meter("flowplane/manage")

	submissions, err := meter.Int64Counter("flowplane.submissions",
		metric.WithDescription("Submission attempts by result"))
	if err != nil {
		logger.Warn("failed to register submissions counter", "error", err)
	}
	reconciled, err := meter.Int64Counter("flowplane.reconciled",
		metric.WithDescription("Status document entries reconciled"))
	if err != nil {
		logger.Warn("failed to register reconciled counter", "error", err)
	}

	return &Manager{
		logger:      logger,
		tracer:      otel.Tracer("flowplane/manage"),
		submissions: submissions,
		reconciled:  reconciled,
	}
}

// JobSubmissionID identifies a job with the scheduler. One job may be
// submitted under several identifiers.
func JobSubmissionID(projectID, jobID, identifier string) string {
	if identifier == "" {
		identifier = DefaultIdentifier
	}
	return fmt.Sprintf("%s-%s-%s", projectID, jobID, identifier)
}

// statusLocal determines the status from local information only.
func statusLocal(jobsid string) status.Status {
	return status.Unknown
}

// statusScheduler determines the status from the scheduler's view. A job the
// scheduler knows about is never below Registered.
func statusScheduler(jobsid string, jobs SchedulerJobs) status.Status {
	cj := jobs.Get(jobsid)
	if cj == nil {
		return status.Unknown
	}
	return status.Max(status.Registered, cj.Status())
}

// UpdateStatus recomputes every entry already present in the job's status
// document. Ids are never added. schedulerJobs may be nil.
func (m *Manager) UpdateStatus(ctx context.Context, job *project.Job, schedulerJobs SchedulerJobs) error {
	ctx, span := m.tracer.Start(ctx, "manage.update_status",
		trace.WithAttributes(attribute.String("job.id", job.ID())))
	defer span.End()

	doc := job.Document()
	sd, err := ReadStatusDoc(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read status document")
		return fmt.Errorf("failed to read status of job %s: %w", job.ID(), err)
	}

	for jobsid, prev := range sd {
		s := statusLocal(jobsid)
		if schedulerJobs != nil {
			s = status.Max(statusScheduler(jobsid, schedulerJobs), s)
		}
		sd[jobsid] = s

		if s != prev {
			m.logger.Debug("status changed", "jobsid", jobsid, "from", prev.String(), "to", s.String())
		}
	}

	if err := writeStatusDoc(ctx, doc, sd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write status document")
		return fmt.Errorf("failed to write status of job %s: %w", job.ID(), err)
	}

	if m.reconciled != nil {
		m.reconciled.Add(ctx, int64(len(sd)))
	}
	return nil
}
