package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flowplane/internal/store"
)

// UpsertJob inserts a job row. Existing jobs are left untouched.
func (s *Store) UpsertJob(ctx context.Context, job *store.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO jobs (id, project_id, state_point, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.ProjectID,
		[]byte(job.StatePoint),
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns a single job of a project.
func (s *Store) GetJob(ctx context.Context, projectID, jobID string) (*store.Job, error) {
	query := "SELECT id, project_id, state_point, created_at FROM jobs WHERE project_id = $1 AND id = $2"

	var job store.Job
	var sp []byte

	err := s.db.QueryRowContext(ctx, query, projectID, jobID).Scan(&job.ID, &job.ProjectID, &sp, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	job.StatePoint = sp

	return &job, nil
}

// ListJobs returns all jobs of a project ordered by id.
func (s *Store) ListJobs(ctx context.Context, projectID string) ([]store.Job, error) {
	query := "SELECT id, project_id, state_point, created_at FROM jobs WHERE project_id = $1 ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list jobs query failed: %w", err)
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		var job store.Job
		var sp []byte
		if err := rows.Scan(&job.ID, &job.ProjectID, &sp, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("list jobs scan failed: %w", err)
		}
		job.StatePoint = sp
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs rows error: %w", err)
	}

	return jobs, nil
}
