// Package main is the entry point for the flowplane controller.
// The controller serves the HTTP API and runs the status reconciler for the
// configured project.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowplane/internal/config"
	"flowplane/internal/controller"
	"flowplane/internal/controller/handlers"
	"flowplane/internal/logger"
	"flowplane/internal/manage"
	"flowplane/internal/observability"
	"flowplane/internal/project"
	"flowplane/internal/reconciler"
	"flowplane/internal/scheduler"
	"flowplane/internal/store"
	"flowplane/internal/store/postgres"
	"flowplane/internal/store/workspace"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (postgres backend)")
	configPath := flag.String("config", "", "Path to config file (default: flowplane.yaml in current directory)")
	flag.Parse()

	// Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "flowplane-controller", cfg.OTELEndpoint)
	if err != nil {
		fatal(logg, "failed to init tracing", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logg.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(ctx, "flowplane-controller")
	if err != nil {
		fatal(logg, "failed to init metrics", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			logg.Error("failed to shutdown metrics", "error", err)
		}
	}()

	// Store
	jobStore, closer, err := openStore(ctx, cfg, *migrateFlag, logg)
	if err != nil {
		fatal(logg, "failed to open store", err)
	}
	defer closer.Close()

	// Scheduler
	env, err := newEnvironment(cfg, logg)
	if err != nil {
		fatal(logg, "failed to create scheduler environment", err)
	}

	proj, err := project.New(cfg.ProjectID, jobStore)
	if err != nil {
		fatal(logg, "invalid project", err)
	}

	// Observable gauge that lists the project's jobs only when scraped.
	meter := otel.Meter("flowplane-controller")
	_, err = meter.Int64ObservableGauge("flowplane.jobs",
		metric.WithDescription("Number of jobs in the managed project"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			jobs, err := proj.Jobs(ctx)
			if err != nil {
				logg.Warn("failed to count jobs", "error", err)
				return nil // Don't crash metrics scrape on store error
			}
			obs.Observe(int64(len(jobs)))
			return nil
		}),
	)
	if err != nil {
		logg.Warn("failed to register jobs gauge", "error", err)
	}

	mgr := manage.New(logg)

	// Reconciler
	rec := reconciler.New(proj, env, mgr, reconciler.Config{
		Interval:   cfg.ReconcileInterval,
		MaxBackoff: cfg.ReconcileMaxBackoff,
	}, logg)
	go rec.Run(ctx)

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, handlers.New(jobStore, mgr, env, logg), controller.Options{
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        metricsHandler,
	})

	go func() {
		logg.Info("flowplane controller starting", "addr", addr, "project", proj.ID(), "backend", cfg.Backend, "scheduler", cfg.Scheduler)
		if err := srv.Run(ctx); err != nil {
			logg.Error("server stopped", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down controller")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server forced to shutdown", "error", err)
	}

	cancel()
	<-rec.Done()
	logg.Info("controller exited properly")
}

// openStore connects the configured job store backend.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, logg *slog.Logger) (store.JobStore, io.Closer, error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if migrate {
			logg.Info("running database migrations")
			version, err := postgres.Migrate(pg.DB())
			if err != nil {
				pg.Close()
				return nil, nil, fmt.Errorf("migration failed: %w", err)
			}
			logg.Info("migrations completed", "version", version)
		}
		return pg, pg, nil
	default:
		ws, err := workspace.New(cfg.WorkspaceDir)
		if err != nil {
			return nil, nil, err
		}
		logg.Info("using workspace store", "root", ws.Root())
		return ws, io.NopCloser(nil), nil
	}
}

// newEnvironment selects the scheduler environment.
func newEnvironment(cfg *config.Config, logg *slog.Logger) (scheduler.Environment, error) {
	switch cfg.Scheduler {
	case "kubernetes":
		env, err := scheduler.NewKubernetesEnvironment(scheduler.KubernetesConfig{
			Namespace:          cfg.KubernetesNamespace,
			ServiceAccount:     cfg.KubernetesServiceAccount,
			Image:              cfg.KubernetesImage,
			DefaultCPULimit:    cfg.KubernetesCPULimit,
			DefaultMemoryLimit: cfg.KubernetesMemoryLimit,
		}, logg)
		if err != nil {
			return nil, err
		}
		logg.Info("using kubernetes scheduler", "namespace", cfg.KubernetesNamespace)
		return env, nil
	default:
		logg.Info("using local scheduler", "workdir", cfg.LocalWorkDir)
		return scheduler.NewLocalEnvironment(cfg.LocalWorkDir, logg), nil
	}
}

func fatal(logg *slog.Logger, msg string, err error) {
	logg.Error(msg, "error", err)
	os.Exit(1)
}
