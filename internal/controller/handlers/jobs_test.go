package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowplane/internal/manage"
	"flowplane/internal/project"
	"flowplane/internal/status"
	"flowplane/pkg/api"
)

// seedJob opens a job and records s under its default jobsid.
func seedJob(t *testing.T, s *mockStore, projectID string, sp project.StatePoint, st status.Status) (*project.Job, string) {
	t.Helper()
	p, err := project.New(projectID, s)
	if err != nil {
		t.Fatalf("project.New failed: %v", err)
	}
	job, err := p.OpenJob(context.Background(), sp)
	if err != nil {
		t.Fatalf("OpenJob failed: %v", err)
	}
	jobsid := manage.JobSubmissionID(projectID, job.ID(), "")
	if err := job.Document().Set(context.Background(), "status", map[string]int{jobsid: int(st)}); err != nil {
		t.Fatalf("failed to seed status: %v", err)
	}
	return job, jobsid
}

func TestListJobs(t *testing.T) {
	s := newMockStore(t)
	h := newTestHandlers(t, s, nil)

	_, jobsidA := seedJob(t, s, "ising", project.StatePoint{"T": 1.0}, status.Queued)
	_, jobsidB := seedJob(t, s, "ising", project.StatePoint{"T": 2.0}, status.Error)
	seedJob(t, s, "other", project.StatePoint{"T": 1.0}, status.Active)

	req := httptest.NewRequest(http.MethodGet, "/projects/ising/jobs", nil)
	req.SetPathValue("project", "ising")
	rr := httptest.NewRecorder()
	h.ListJobs(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}

	var resp api.ListJobsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Project != "ising" || len(resp.Jobs) != 2 {
		t.Fatalf("got project %q with %d jobs, want ising with 2", resp.Project, len(resp.Jobs))
	}

	got := map[string]string{}
	for _, j := range resp.Jobs {
		for id, st := range j.Status {
			got[id] = st
		}
	}
	if got[jobsidA] != "queued" || got[jobsidB] != "error" {
		t.Errorf("unexpected status: %v", got)
	}
}

func TestListJobs_EmptyProject(t *testing.T) {
	h := newTestHandlers(t, newMockStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/projects/empty/jobs", nil)
	req.SetPathValue("project", "empty")
	rr := httptest.NewRecorder()
	h.ListJobs(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}
	var resp api.ListJobsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Jobs == nil || len(resp.Jobs) != 0 {
		t.Errorf("expected empty job list, got %v", resp.Jobs)
	}
}

func TestGetJobStatus(t *testing.T) {
	s := newMockStore(t)
	job, jobsid := seedJob(t, s, "ising", project.StatePoint{"T": 1.5}, status.Submitted)

	tests := []struct {
		name           string
		jobID          string
		expectedStatus int
	}{
		{name: "Found", jobID: job.ID(), expectedStatus: http.StatusOK},
		{name: "Not Found", jobID: "0123456789abcdef0123456789abcdef", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(t, s, nil)

			req := httptest.NewRequest(http.MethodGet, "/projects/ising/jobs/"+tt.jobID+"/status", nil)
			req.SetPathValue("project", "ising")
			req.SetPathValue("job", tt.jobID)
			rr := httptest.NewRecorder()
			h.GetJobStatus(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("got status %d, want %d: %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp api.JobStatusResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.JobID != job.ID() || resp.Status[jobsid] != "submitted" {
				t.Errorf("unexpected response: %+v", resp)
			}
			if resp.StatePoint["T"] != 1.5 {
				t.Errorf("got state point %v", resp.StatePoint)
			}
		})
	}
}

func TestGetJobStatus_InvalidRecordedStatus(t *testing.T) {
	s := newMockStore(t)
	job, _ := seedJob(t, s, "ising", project.StatePoint{"T": 1.0}, status.Status(42))
	h := newTestHandlers(t, s, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("project", "ising")
	req.SetPathValue("job", job.ID())
	rr := httptest.NewRecorder()
	h.GetJobStatus(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rr.Code)
	}
}
