package main

import (
	"context"
	"testing"

	"flowplane/internal/config"
	"flowplane/internal/logger"
	"flowplane/internal/scheduler"
	"flowplane/internal/store/workspace"
)

func TestOpenStore_Workspace(t *testing.T) {
	cfg := &config.Config{Backend: "workspace", WorkspaceDir: t.TempDir()}

	s, closer, err := openStore(context.Background(), cfg, false, logger.Discard())
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer closer.Close()

	if _, ok := s.(*workspace.Store); !ok {
		t.Errorf("expected workspace store, got %T", s)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewEnvironment_Local(t *testing.T) {
	cfg := &config.Config{Scheduler: "local", LocalWorkDir: t.TempDir()}

	env, err := newEnvironment(cfg, logger.Discard())
	if err != nil {
		t.Fatalf("newEnvironment failed: %v", err)
	}
	if _, ok := env.(*scheduler.LocalEnvironment); !ok {
		t.Errorf("expected local environment, got %T", env)
	}
}
