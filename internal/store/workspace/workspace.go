// Package workspace implements the store interfaces on a local directory tree.
//
// Layout:
//
//	<root>/<project>/<job>/statepoint.json
//	<root>/<project>/<job>/document.json
//
// Document writes are serialised across processes with a lock file next to
// the document and replace the file atomically.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"flowplane/internal/store"
)

const (
	statePointFile = "statepoint.json"
	documentFile   = "document.json"
	lockFile       = ".document.lock"

	lockRetryDelay = 50 * time.Millisecond
)

// Store is a directory-backed job store.
type Store struct {
	root string
}

var _ store.JobStore = (*Store)(nil)

// New creates the root directory if needed and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the workspace root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) jobDir(projectID, jobID string) string {
	return filepath.Join(s.root, projectID, jobID)
}

// UpsertJob writes the job's state point unless the job already exists.
func (s *Store) UpsertJob(ctx context.Context, job *store.Job) error {
	dir := s.jobDir(job.ProjectID, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	path := filepath.Join(dir, statePointFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	sp := job.StatePoint
	if len(sp) == 0 {
		sp = json.RawMessage(`{}`)
	}
	if err := writeFileAtomic(path, sp); err != nil {
		return fmt.Errorf("failed to write state point of job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob reads a job's state point from disk.
func (s *Store) GetJob(ctx context.Context, projectID, jobID string) (*store.Job, error) {
	path := filepath.Join(s.jobDir(projectID, jobID), statePointFile)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sp, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state point of job %s: %w", jobID, err)
	}

	return &store.Job{
		ID:         jobID,
		ProjectID:  projectID,
		StatePoint: sp,
		CreatedAt:  info.ModTime().UTC(),
	}, nil
}

// ListJobs returns every job directory of a project that carries a state point.
func (s *Store) ListJobs(ctx context.Context, projectID string) ([]store.Job, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, projectID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list project %s: %w", projectID, err)
	}

	var jobs []store.Job
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		job, err := s.GetJob(ctx, projectID, e.Name())
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// Document returns the document of a job.
func (s *Store) Document(projectID, jobID string) store.Document {
	return &Document{dir: s.jobDir(projectID, jobID)}
}

// Ping checks that the workspace root is still a directory.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", s.root)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
