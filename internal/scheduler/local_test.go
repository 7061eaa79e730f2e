package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"flowplane/internal/status"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalEnvironment_Submit(t *testing.T) {
	tests := []struct {
		name   string
		req    SubmitRequest
		want   status.Status
		wantRC int
	}{
		{
			name:   "Success",
			req:    SubmitRequest{JobSubmissionID: "p-j-ok", Script: "exit 0"},
			want:   status.Inactive,
			wantRC: 0,
		},
		{
			name:   "Failure",
			req:    SubmitRequest{JobSubmissionID: "p-j-fail", Script: "exit 3"},
			want:   status.Error,
			wantRC: 3,
		},
		{
			name: "Args And Options",
			req: SubmitRequest{
				JobSubmissionID: "p-j-env",
				Script:          `test "$1" = hello && test "$FOO" = bar && test "$FLOWPLANE_JOBSID" = p-j-env`,
				Args:            []string{"hello"},
				Options:         map[string]string{"FOO": "bar"},
			},
			want:   status.Inactive,
			wantRC: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewLocalEnvironment(t.TempDir(), discardLogger())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			ok, err := env.Submit(ctx, tt.req)
			if err != nil || !ok {
				t.Fatalf("Submit() = %v, %v", ok, err)
			}

			rc, err := env.Wait(ctx, tt.req.JobSubmissionID)
			if err != nil {
				t.Fatalf("Wait failed: %v", err)
			}
			if rc != tt.wantRC {
				t.Errorf("got exit code %d, want %d", rc, tt.wantRC)
			}

			jobs, err := env.Jobs(ctx)
			if err != nil {
				t.Fatalf("Jobs failed: %v", err)
			}
			cj := jobs.Get(tt.req.JobSubmissionID)
			if cj == nil {
				t.Fatal("expected job in scheduler view")
			}
			if cj.Status() != tt.want {
				t.Errorf("got status %s, want %s", cj.Status(), tt.want)
			}
		})
	}
}

func TestLocalEnvironment_RunningJobIsActive(t *testing.T) {
	env := NewLocalEnvironment(t.TempDir(), discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Submit(ctx, SubmitRequest{JobSubmissionID: "p-j-slow", Script: "sleep 1"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	jobs, _ := env.Jobs(ctx)
	if got := jobs.Get("p-j-slow").Status(); got != status.Active {
		t.Errorf("got status %s, want active", got)
	}

	if _, err := env.Wait(ctx, "p-j-slow"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestLocalEnvironment_Pretend(t *testing.T) {
	env := NewLocalEnvironment(t.TempDir(), discardLogger())

	ok, err := env.Submit(context.Background(), SubmitRequest{JobSubmissionID: "p-j-x", Script: "exit 1", Pretend: true})
	if err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	jobs, _ := env.Jobs(context.Background())
	if len(jobs) != 0 {
		t.Errorf("expected no jobs after pretend submission, got %d", len(jobs))
	}
}

func TestLocalEnvironment_EmptyScript(t *testing.T) {
	env := NewLocalEnvironment(t.TempDir(), discardLogger())
	if _, err := env.Submit(context.Background(), SubmitRequest{JobSubmissionID: "x"}); err == nil {
		t.Error("expected error for empty script")
	}
}

func TestLocalEnvironment_WaitUnknown(t *testing.T) {
	env := NewLocalEnvironment(t.TempDir(), discardLogger())
	if _, err := env.Wait(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestJobs_GetOnNil(t *testing.T) {
	var jobs Jobs
	if jobs.Get("x") != nil {
		t.Error("expected nil from empty collection")
	}
}
