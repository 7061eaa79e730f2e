// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SubmitRequest is the request body for submitting a job.
type SubmitRequest struct {
	StatePoint map[string]any    `json:"state_point"`
	Script     string            `json:"script"`
	Identifier string            `json:"identifier,omitempty"`
	Force      bool              `json:"force,omitempty"`
	Pretend    bool              `json:"pretend,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

// SubmitResponse is the response body after a submission attempt.
type SubmitResponse struct {
	JobID           string `json:"job_id"`
	JobSubmissionID string `json:"job_submission_id"`
	Submitted       bool   `json:"submitted"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

// JobStatusResponse is the status document of a job.
type JobStatusResponse struct {
	JobID      string            `json:"job_id"`
	StatePoint map[string]any    `json:"state_point,omitempty"`
	Status     map[string]string `json:"status"`
}

// ListJobsResponse lists the jobs of a project.
type ListJobsResponse struct {
	Project string              `json:"project"`
	Jobs    []JobStatusResponse `json:"jobs"`
}

// UpdateStatusResponse reports the outcome of a reconciliation pass.
type UpdateStatusResponse struct {
	Updated int    `json:"updated"`
	Error   string `json:"error,omitempty"`
}
