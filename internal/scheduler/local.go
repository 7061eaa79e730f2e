package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"flowplane/internal/status"
)

// LocalEnvironment implements Environment using background OS processes.
// This is primarily used for development and single-host workflows.
type LocalEnvironment struct {
	workDir string
	shell   string
	logger  *slog.Logger

	mu    sync.Mutex
	procs map[string]*localProc
}

type localProc struct {
	done     chan struct{}
	exitCode int
	err      error
}

// NewLocalEnvironment creates a process-based environment.
// Scripts run with workDir as their working directory.
func NewLocalEnvironment(workDir string, logger *slog.Logger) *LocalEnvironment {
	return &LocalEnvironment{
		workDir: workDir,
		shell:   "sh",
		logger:  logger,
		procs:   make(map[string]*localProc),
	}
}

// Submit starts the script in the background.
// The process is not bound to ctx so it outlives the submitting request.
func (e *LocalEnvironment) Submit(ctx context.Context, req SubmitRequest) (bool, error) {
	if req.Script == "" {
		return false, errors.New("script is required")
	}

	if req.Pretend {
		e.logger.Info("pretend submission", "jobsid", req.JobSubmissionID, "script", req.Script)
		return true, nil
	}

	args := append([]string{"-c", req.Script, req.JobSubmissionID}, req.Args...)
	cmd := exec.Command(e.shell, args...)
	cmd.Dir = e.workDir
	cmd.Env = os.Environ()
	for k, v := range scriptEnv(req) {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("failed to start script for %s: %w", req.JobSubmissionID, err)
	}

	proc := &localProc{done: make(chan struct{})}
	e.mu.Lock()
	e.procs[req.JobSubmissionID] = proc
	e.mu.Unlock()

	e.logger.Info("started local job", "jobsid", req.JobSubmissionID, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()

		e.mu.Lock()
		proc.err = err
		proc.exitCode = cmd.ProcessState.ExitCode()
		e.mu.Unlock()
		close(proc.done)

		e.logger.Debug("local job finished", "jobsid", req.JobSubmissionID, "exit_code", proc.exitCode)
	}()

	return true, nil
}

// Jobs reports running processes as active, finished ones as inactive and
// failed ones as error.
func (e *LocalEnvironment) Jobs(ctx context.Context) (Jobs, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	jobs := make(Jobs, len(e.procs))
	for id, proc := range e.procs {
		jobs[id] = status.NewClusterJob(id, proc.statusLocked())
	}
	return jobs, nil
}

// Wait blocks until the job with the given id has exited.
func (e *LocalEnvironment) Wait(ctx context.Context, jobsid string) (int, error) {
	e.mu.Lock()
	proc, ok := e.procs[jobsid]
	e.mu.Unlock()
	if !ok {
		return -1, fmt.Errorf("unknown job %s", jobsid)
	}

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case <-proc.done:
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return proc.exitCode, nil
}

func (p *localProc) statusLocked() status.Status {
	select {
	case <-p.done:
	default:
		return status.Active
	}
	if p.exitCode != 0 || (p.err != nil && !isExitError(p.err)) {
		return status.Error
	}
	return status.Inactive
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
