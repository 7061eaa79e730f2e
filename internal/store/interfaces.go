package store

import "context"

// Document is the key-value document associated with a job.
// Values are stored as JSON.
type Document interface {
	// Get decodes the value stored under key into dst.
	// It reports false when the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
}

// JobStore handles the persistence of jobs and their documents.
type JobStore interface {
	// UpsertJob registers a job. Registering an existing job is a no-op.
	UpsertJob(ctx context.Context, job *Job) error

	// GetJob returns a job by id, or ErrNotFound.
	GetJob(ctx context.Context, projectID, jobID string) (*Job, error)

	// ListJobs returns all jobs of a project ordered by id.
	ListJobs(ctx context.Context, projectID string) ([]Job, error)

	// Document returns the document of a job.
	Document(projectID, jobID string) Document

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
