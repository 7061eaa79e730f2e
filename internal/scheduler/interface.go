// Package scheduler provides the scheduler environments jobs are submitted to.
package scheduler

import (
	"context"

	"flowplane/internal/status"
)

// Environment is a cluster scheduler that accepts job scripts and reports
// the state of the jobs it knows about.
type Environment interface {
	// Submit hands the script to the scheduler under the given
	// job-submission-id. It returns false when the scheduler declined the job.
	Submit(ctx context.Context, req SubmitRequest) (bool, error)

	// Jobs returns the scheduler's current view of its jobs.
	Jobs(ctx context.Context) (Jobs, error)
}

// SubmitRequest contains the parameters for a submission.
type SubmitRequest struct {
	JobSubmissionID string
	Script          string
	Pretend         bool

	// Args are passed to the script as positional arguments.
	Args []string
	// Options are exported to the script environment.
	Options map[string]string
}

// Jobs maps job-submission-ids to the scheduler's view of the job.
type Jobs map[string]*status.ClusterJob

// Get returns the job with the given id, or nil.
func (j Jobs) Get(id string) *status.ClusterJob {
	if j == nil {
		return nil
	}
	return j[id]
}

// scriptEnv builds the environment variables exported to a submitted script.
func scriptEnv(req SubmitRequest) map[string]string {
	env := make(map[string]string, len(req.Options)+1)
	for k, v := range req.Options {
		env[k] = v
	}
	env["FLOWPLANE_JOBSID"] = req.JobSubmissionID
	return env
}
