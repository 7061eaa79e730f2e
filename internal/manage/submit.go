package manage

import (
	"context"
	"fmt"

	"flowplane/internal/project"
	"flowplane/internal/scheduler"
	"flowplane/internal/status"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SubmitOptions controls a single submission.
type SubmitOptions struct {
	// Identifier distinguishes submissions of the same job. Defaults to "default".
	Identifier string
	// Force submits even when the job is already submitted or further along.
	Force bool
	// Pretend skips the scheduler and treats the submission as successful.
	Pretend bool

	// Args and Options are passed through to the scheduler.
	Args    []string
	Options map[string]string
}

// SubmitResult describes the outcome of Submit.
type SubmitResult struct {
	JobID           string
	JobSubmissionID string
	Submitted       bool
	Status          status.Status
}

// Submit attempts to submit the job with the given state point to env.
//
// The job is not submitted when its recorded status is Submitted or higher,
// unless opts.Force is set. A scheduler error is recorded as status Error
// and returned unchanged. Without env only pretend submissions proceed;
// otherwise ErrNoEnvironment is returned before anything is recorded.
// The result is nil only when the job could not be
// opened or its status could not be read.
func (m *Manager) Submit(ctx context.Context, env Submitter, proj *project.Project, sp project.StatePoint, script string, opts SubmitOptions) (*SubmitResult, error) {
	job, err := proj.OpenJob(ctx, sp)
	if err != nil {
		return nil, err
	}

	jobsid := JobSubmissionID(proj.ID(), job.ID(), opts.Identifier)
	log := m.logger.With("job", job.ID(), "jobsid", jobsid)

	ctx, span := m.tracer.Start(ctx, "manage.submit",
		trace.WithAttributes(
			attribute.String("job.id", job.ID()),
			attribute.String("jobsid", jobsid),
			attribute.Bool("force", opts.Force),
			attribute.Bool("pretend", opts.Pretend),
		))
	defer span.End()

	log.Info("attempting submission")

	if env == nil && !opts.Pretend {
		log.Warn("submission skipped", "error", ErrNoEnvironment)
		m.count(ctx, "error")
		return &SubmitResult{JobID: job.ID(), JobSubmissionID: jobsid, Status: status.Unknown}, ErrNoEnvironment
	}

	log.Debug("determine status")

	doc := job.Document()
	sd, err := ReadStatusDoc(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read status of job %s: %w", job.ID(), err)
	}

	current, ok := sd.Get(jobsid)
	if !ok {
		current = status.Registered
		if err := setStatus(ctx, doc, jobsid, current); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to register %s: %w", jobsid, err)
		}
	}

	result := &SubmitResult{JobID: job.ID(), JobSubmissionID: jobsid, Status: current}

	if !opts.Force && current >= status.Submitted {
		log.Info("job blocked from submission (already submitted or active)", "status", current.String())
		m.count(ctx, "blocked")
		return result, nil
	}

	err = m.submit(ctx, env, scheduler.SubmitRequest{
		JobSubmissionID: jobsid,
		Script:          script,
		Pretend:         opts.Pretend,
		Args:            opts.Args,
		Options:         opts.Options,
	})
	if err != nil {
		log.Warn("submission failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		m.count(ctx, "error")

		result.Status = status.Error
		if serr := setStatus(ctx, doc, jobsid, status.Error); serr != nil {
			log.Error("failed to record error status", "error", serr)
		}
		return result, err
	}

	// The scheduler has the job from here on, whether or not the write succeeds.
	result.Submitted = true
	result.Status = status.Submitted

	if err := setStatus(ctx, doc, jobsid, status.Submitted); err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("job %s submitted but status not recorded: %w", jobsid, err)
	}

	if opts.Pretend {
		m.count(ctx, "pretend")
	} else {
		m.count(ctx, "submitted")
	}
	log.Info("submission succeeded")
	return result, nil
}

func (m *Manager) submit(ctx context.Context, env Submitter, req scheduler.SubmitRequest) error {
	if req.Pretend {
		return nil
	}
	if env == nil {
		return ErrNoEnvironment
	}

	ok, err := env.Submit(ctx, req)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSubmissionRejected
	}
	return nil
}

func (m *Manager) count(ctx context.Context, result string) {
	if m.submissions == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
