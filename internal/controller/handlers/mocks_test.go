package handlers

import (
	"context"
	"errors"
	"testing"

	"flowplane/internal/logger"
	"flowplane/internal/manage"
	"flowplane/internal/scheduler"
	"flowplane/internal/status"
	"flowplane/internal/store"
	"flowplane/internal/store/workspace"
)

// mockStore is a workspace store with injectable ping and status write failures.
type mockStore struct {
	*workspace.Store
	pingErr error
	// failStatus makes status document writes recording it fail.
	failStatus status.Status
}

func (m *mockStore) Document(projectID, jobID string) store.Document {
	doc := m.Store.Document(projectID, jobID)
	if m.failStatus == 0 {
		return doc
	}
	return &mockDocument{Document: doc, failStatus: m.failStatus}
}

type mockDocument struct {
	store.Document
	failStatus status.Status
}

func (d *mockDocument) Set(ctx context.Context, key string, value any) error {
	if sd, ok := value.(manage.StatusDoc); ok {
		for _, s := range sd {
			if s == d.failStatus {
				return errors.New("disk full")
			}
		}
	}
	return d.Document.Set(ctx, key, value)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingErr != nil {
		return m.pingErr
	}
	return m.Store.Ping(ctx)
}

var _ store.JobStore = (*mockStore)(nil)

// mockEnv is a scheduler environment with canned answers.
type mockEnv struct {
	submitOK  bool
	submitErr error
	jobs      scheduler.Jobs
	jobsErr   error

	calls []scheduler.SubmitRequest
}

func (m *mockEnv) Submit(ctx context.Context, req scheduler.SubmitRequest) (bool, error) {
	m.calls = append(m.calls, req)
	return m.submitOK, m.submitErr
}

func (m *mockEnv) Jobs(ctx context.Context) (scheduler.Jobs, error) {
	return m.jobs, m.jobsErr
}

func newMockStore(t *testing.T) *mockStore {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.New failed: %v", err)
	}
	return &mockStore{Store: ws}
}

func newTestHandlers(t *testing.T, s *mockStore, env scheduler.Environment) *Handlers {
	t.Helper()
	log := logger.Discard()
	return New(s, manage.New(log), env, log)
}

func clusterJobs(entries map[string]status.Status) scheduler.Jobs {
	jobs := scheduler.Jobs{}
	for id, s := range entries {
		jobs[id] = status.NewClusterJob(id, s)
	}
	return jobs
}
