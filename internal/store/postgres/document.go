package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"flowplane/internal/store"
)

// Document is a job document backed by the job_documents table.
type Document struct {
	db    *sql.DB
	jobID string
}

// Document returns the document of a job.
func (s *Store) Document(projectID, jobID string) store.Document {
	return &Document{db: s.db, jobID: jobID}
}

// Get decodes the JSON value stored under key into dst.
func (d *Document) Get(ctx context.Context, key string, dst any) (bool, error) {
	query := "SELECT value FROM job_documents WHERE job_id = $1 AND key = $2"

	var raw []byte
	err := d.db.QueryRowContext(ctx, query, d.jobID, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %q of job %s: %w", key, d.jobID, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %q of job %s: %w", key, d.jobID, err)
	}
	return true, nil
}

// Set stores value under key as JSONB.
func (d *Document) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q of job %s: %w", key, d.jobID, err)
	}

	query := `
		INSERT INTO job_documents (job_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (job_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := d.db.ExecContext(ctx, query, d.jobID, key, raw); err != nil {
		return fmt.Errorf("failed to write %q of job %s: %w", key, d.jobID, err)
	}
	return nil
}
