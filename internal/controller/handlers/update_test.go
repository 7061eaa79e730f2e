package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowplane/internal/manage"
	"flowplane/internal/project"
	"flowplane/internal/status"
	"flowplane/pkg/api"
)

func updateRequest(projectID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/projects/"+projectID+"/status/update", nil)
	req.SetPathValue("project", projectID)
	return req
}

func TestUpdateStatus(t *testing.T) {
	s := newMockStore(t)
	running, runningID := seedJob(t, s, "ising", project.StatePoint{"T": 1.0}, status.Submitted)
	lost, lostID := seedJob(t, s, "ising", project.StatePoint{"T": 2.0}, status.Active)

	env := &mockEnv{jobs: clusterJobs(map[string]status.Status{runningID: status.Active})}
	h := newTestHandlers(t, s, env)

	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, updateRequest("ising"))

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}
	var resp api.UpdateStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Updated != 2 {
		t.Errorf("got %d updated, want 2", resp.Updated)
	}

	check := func(job *project.Job, jobsid string, want status.Status) {
		t.Helper()
		sd, err := manage.ReadStatusDoc(context.Background(), job.Document())
		if err != nil {
			t.Fatalf("ReadStatusDoc failed: %v", err)
		}
		if got, _ := sd.Get(jobsid); got != want {
			t.Errorf("%s: got %s, want %s", jobsid, got, want)
		}
	}
	check(running, runningID, status.Active)
	check(lost, lostID, status.Unknown)
}

func TestUpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name           string
		env            *mockEnv
		expectedStatus int
	}{
		{name: "No Scheduler", env: nil, expectedStatus: http.StatusServiceUnavailable},
		{name: "Scheduler Unreachable", env: &mockEnv{jobsErr: errors.New("connection refused")}, expectedStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMockStore(t)
			var h *Handlers
			if tt.env == nil {
				h = newTestHandlers(t, s, nil)
			} else {
				h = newTestHandlers(t, s, tt.env)
			}

			rr := httptest.NewRecorder()
			h.UpdateStatus(rr, updateRequest("ising"))

			if rr.Code != tt.expectedStatus {
				t.Errorf("got status %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
