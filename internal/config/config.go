// Package config loads flowplane configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Storage backend: "workspace" or "postgres"
	Backend string
	// Database connection string (postgres backend)
	DatabaseURL string
	// Root directory of the workspace backend
	WorkspaceDir string

	// Project whose jobs are managed
	ProjectID string

	// HTTP server port for the controller
	HTTPPort int
	// Requests per second accepted by the controller, 0 disables limiting
	RateLimit      float64
	RateLimitBurst int

	// Scheduler environment: "local" or "kubernetes"
	Scheduler string
	// Working directory of scripts run by the local scheduler
	LocalWorkDir string

	KubernetesNamespace      string
	KubernetesServiceAccount string
	KubernetesImage          string
	KubernetesCPULimit       string
	KubernetesMemoryLimit    string

	// Interval between reconciliation passes
	ReconcileInterval time.Duration
	// Upper bound of the backoff after failed passes
	ReconcileMaxBackoff time.Duration

	LogLevel string

	// OTLP gRPC collector address; tracing is disabled when empty
	OTELEndpoint string
}

// env maps configuration keys to the environment variables overriding them.
var env = map[string]string{
	"backend":                    "BACKEND",
	"database_url":               "DATABASE_URL",
	"workspace_dir":              "WORKSPACE_DIR",
	"project":                    "PROJECT",
	"port":                       "PORT",
	"rate_limit":                 "RATE_LIMIT",
	"rate_limit_burst":           "RATE_LIMIT_BURST",
	"scheduler":                  "SCHEDULER",
	"local_workdir":              "LOCAL_WORKDIR",
	"kubernetes.namespace":       "KUBERNETES_NAMESPACE",
	"kubernetes.service_account": "KUBERNETES_SERVICE_ACCOUNT",
	"kubernetes.image":           "KUBERNETES_IMAGE",
	"kubernetes.cpu_limit":       "KUBERNETES_CPU_LIMIT",
	"kubernetes.memory_limit":    "KUBERNETES_MEMORY_LIMIT",
	"reconcile.interval":         "RECONCILE_INTERVAL",
	"reconcile.max_backoff":      "RECONCILE_MAX_BACKOFF",
	"log_level":                  "LOG_LEVEL",
	"otel_endpoint":              "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration from path (or ./flowplane.yaml when empty) and
// applies environment variable overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend", "workspace")
	v.SetDefault("workspace_dir", "./workspace")
	v.SetDefault("project", "default")
	v.SetDefault("port", 6161)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("scheduler", "local")
	v.SetDefault("local_workdir", ".")
	v.SetDefault("kubernetes.namespace", "default")
	v.SetDefault("kubernetes.image", "busybox:1.36")
	v.SetDefault("kubernetes.cpu_limit", "500m")
	v.SetDefault("kubernetes.memory_limit", "256Mi")
	v.SetDefault("reconcile.interval", 30*time.Second)
	v.SetDefault("reconcile.max_backoff", 5*time.Minute)
	v.SetDefault("log_level", "info")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("flowplane")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Backend:                  strings.ToLower(v.GetString("backend")),
		DatabaseURL:              v.GetString("database_url"),
		WorkspaceDir:             v.GetString("workspace_dir"),
		ProjectID:                v.GetString("project"),
		HTTPPort:                 v.GetInt("port"),
		RateLimit:                v.GetFloat64("rate_limit"),
		RateLimitBurst:           v.GetInt("rate_limit_burst"),
		Scheduler:                strings.ToLower(v.GetString("scheduler")),
		LocalWorkDir:             v.GetString("local_workdir"),
		KubernetesNamespace:      v.GetString("kubernetes.namespace"),
		KubernetesServiceAccount: v.GetString("kubernetes.service_account"),
		KubernetesImage:          v.GetString("kubernetes.image"),
		KubernetesCPULimit:       v.GetString("kubernetes.cpu_limit"),
		KubernetesMemoryLimit:    v.GetString("kubernetes.memory_limit"),
		ReconcileInterval:        v.GetDuration("reconcile.interval"),
		ReconcileMaxBackoff:      v.GetDuration("reconcile.max_backoff"),
		LogLevel:                 v.GetString("log_level"),
		OTELEndpoint:             v.GetString("otel_endpoint"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required (env: DATABASE_URL)")
		}
	case "workspace":
		if c.WorkspaceDir == "" {
			return errors.New("workspace_dir is required (env: WORKSPACE_DIR)")
		}
	default:
		return fmt.Errorf("unknown backend %q (want workspace or postgres)", c.Backend)
	}

	switch c.Scheduler {
	case "local", "kubernetes":
	default:
		return fmt.Errorf("unknown scheduler %q (want local or kubernetes)", c.Scheduler)
	}

	if c.ProjectID == "" {
		return errors.New("project is required (env: PROJECT)")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid port %d", c.HTTPPort)
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("invalid reconcile interval %s", c.ReconcileInterval)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %v", c.RateLimit)
	}
	return nil
}
