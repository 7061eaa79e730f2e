package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"flowplane/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpsertJob_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	createdAt := time.Now().Truncate(time.Second)
	job := &store.Job{
		ID:         "0f1e2d3c4b5a69788796a5b4c3d2e1f0",
		ProjectID:  "ising",
		StatePoint: json.RawMessage(`{"T":1.5}`),
		CreatedAt:  createdAt,
	}

	mock.ExpectExec(`INSERT INTO jobs`).
		WithArgs(job.ID, job.ProjectID, []byte(`{"T":1.5}`), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpsertJob(context.Background(), job); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpsertJob_DefaultsCreatedAt(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	job := &store.Job{ID: "abc", ProjectID: "ising", StatePoint: json.RawMessage(`{}`)}

	mock.ExpectExec(`INSERT INTO jobs`).
		WithArgs("abc", "ising", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.UpsertJob(context.Background(), job); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestUpsertJob_DatabaseError(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectExec(`INSERT INTO jobs`).WillReturnError(sql.ErrConnDone)

	err := s.UpsertJob(context.Background(), &store.Job{ID: "abc", ProjectID: "ising"})
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected wrapped sql.ErrConnDone, got %v", err)
	}
}

func TestGetJob_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	createdAt := time.Now().Truncate(time.Second)

	mock.ExpectQuery(`SELECT id, project_id, state_point, created_at FROM jobs WHERE project_id = \$1 AND id = \$2`).
		WithArgs("ising", "abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "state_point", "created_at"}).
			AddRow("abc", "ising", []byte(`{"T":2}`), createdAt))

	job, err := s.GetJob(context.Background(), "ising", "abc")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.ID != "abc" || job.ProjectID != "ising" {
		t.Errorf("unexpected job: %+v", job)
	}
	if string(job.StatePoint) != `{"T":2}` {
		t.Errorf("got state point %s", job.StatePoint)
	}
	if !job.CreatedAt.Equal(createdAt) {
		t.Errorf("got CreatedAt %v, want %v", job.CreatedAt, createdAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery(`SELECT id, project_id, state_point, created_at FROM jobs`).
		WithArgs("ising", "missing").
		WillReturnError(sql.ErrNoRows)

	job, err := s.GetJob(context.Background(), "ising", "missing")
	if err != store.ErrNotFound {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
	if job != nil {
		t.Error("expected nil job")
	}
}

func TestListJobs(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, project_id, state_point, created_at FROM jobs WHERE project_id = \$1 ORDER BY id ASC`).
		WithArgs("ising").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "state_point", "created_at"}).
			AddRow("a", "ising", []byte(`{"T":1}`), now).
			AddRow("b", "ising", []byte(`{"T":2}`), now))

	jobs, err := s.ListJobs(context.Background(), "ising")
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "a" || jobs[1].ID != "b" {
		t.Errorf("unexpected order: %s, %s", jobs[0].ID, jobs[1].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListJobs_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery(`SELECT id, project_id, state_point, created_at FROM jobs`).
		WillReturnError(sql.ErrConnDone)

	if _, err := s.ListJobs(context.Background(), "ising"); err == nil {
		t.Error("expected error, got nil")
	}
}
