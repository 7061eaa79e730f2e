package scheduler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"flowplane/internal/status"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	managedByLabel      = "app.kubernetes.io/managed-by"
	managedByValue      = "flowplane"
	jobsidHashLabel     = "flowplane.io/jobsid-hash"
	jobsidAnnotation    = "flowplane.io/jobsid"
	defaultJobImage     = "busybox:1.36"
	defaultCPULimit     = "500m"
	defaultMemoryLimit  = "256Mi"
	defaultK8sNamespace = "default"
)

// KubernetesConfig holds configuration for the Kubernetes environment.
type KubernetesConfig struct {
	// Namespace where jobs will be created
	Namespace string
	// ServiceAccount for job pods (optional)
	ServiceAccount string
	// Image that runs submitted scripts with sh
	Image string
	// Default resource limits for jobs
	DefaultCPULimit    string
	DefaultMemoryLimit string
}

// KubernetesEnvironment implements Environment using Kubernetes Jobs.
type KubernetesEnvironment struct {
	clientset kubernetes.Interface
	config    KubernetesConfig
	logger    *slog.Logger
}

// homeDir returns the user's home directory.
func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	return os.Getenv("USERPROFILE") // Windows
}

// NewKubernetesEnvironment creates a Kubernetes-backed environment.
// Tries in-cluster configuration first, falls back to kubeconfig for local development.
func NewKubernetesEnvironment(cfg KubernetesConfig, logger *slog.Logger) (*KubernetesEnvironment, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := filepath.Join(homeDir(), ".kube", "config")
		logger.Info("in-cluster config not available, using kubeconfig", "kubeconfig", kubeconfig, "reason", err)
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return newKubernetesEnvironment(clientset, cfg, logger), nil
}

func newKubernetesEnvironment(clientset kubernetes.Interface, cfg KubernetesConfig, logger *slog.Logger) *KubernetesEnvironment {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultK8sNamespace
	}
	if cfg.Image == "" {
		cfg.Image = defaultJobImage
	}
	if cfg.DefaultCPULimit == "" {
		cfg.DefaultCPULimit = defaultCPULimit
	}
	if cfg.DefaultMemoryLimit == "" {
		cfg.DefaultMemoryLimit = defaultMemoryLimit
	}

	return &KubernetesEnvironment{
		clientset: clientset,
		config:    cfg,
		logger:    logger,
	}
}

// Submit creates a Kubernetes Job that runs the script with sh.
func (k *KubernetesEnvironment) Submit(ctx context.Context, req SubmitRequest) (bool, error) {
	if req.Script == "" {
		return false, errors.New("script is required")
	}

	job, err := k.buildJob(req)
	if err != nil {
		return false, err
	}

	if req.Pretend {
		k.logger.Info("pretend submission", "jobsid", req.JobSubmissionID, "job", job.Name, "namespace", k.config.Namespace)
		return true, nil
	}

	created, err := k.clientset.BatchV1().Jobs(k.config.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to create kubernetes job: %w", err)
	}

	k.logger.Info("created kubernetes job", "jobsid", req.JobSubmissionID, "job", created.Name, "namespace", k.config.Namespace)
	return true, nil
}

func (k *KubernetesEnvironment) buildJob(req SubmitRequest) (*batchv1.Job, error) {
	cpu, err := resource.ParseQuantity(k.config.DefaultCPULimit)
	if err != nil {
		return nil, fmt.Errorf("invalid cpu limit %q: %w", k.config.DefaultCPULimit, err)
	}
	memory, err := resource.ParseQuantity(k.config.DefaultMemoryLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid memory limit %q: %w", k.config.DefaultMemoryLimit, err)
	}

	var envVars []corev1.EnvVar
	for key, value := range scriptEnv(req) {
		envVars = append(envVars, corev1.EnvVar{Name: key, Value: value})
	}
	sort.Slice(envVars, func(i, j int) bool { return envVars[i].Name < envVars[j].Name })

	hash := jobsidHash(req.JobSubmissionID)
	name := fmt.Sprintf("flowplane-%s-%d", hash[:12], time.Now().UnixNano())
	labels := map[string]string{
		managedByLabel:  managedByValue,
		jobsidHashLabel: hash,
	}

	// The scheduler, not Kubernetes, decides about retries.
	backoffLimit := int32(0)
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   k.config.Namespace,
			Labels:      labels,
			Annotations: map[string]string{jobsidAnnotation: req.JobSubmissionID},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy:      corev1.RestartPolicyNever,
					ServiceAccountName: k.config.ServiceAccount,
					Containers: []corev1.Container{
						{
							Name:    "job",
							Image:   k.config.Image,
							Command: append([]string{"sh", "-c", req.Script, req.JobSubmissionID}, req.Args...),
							Env:     envVars,
							Resources: corev1.ResourceRequirements{
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    cpu,
									corev1.ResourceMemory: memory,
								},
							},
						},
					},
				},
			},
		},
	}
	return job, nil
}

// Jobs lists the Jobs managed by flowplane. When a job-submission-id was
// submitted more than once, the most recent Job wins.
func (k *KubernetesEnvironment) Jobs(ctx context.Context) (Jobs, error) {
	list, err := k.clientset.BatchV1().Jobs(k.config.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", managedByLabel, managedByValue),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list kubernetes jobs: %w", err)
	}

	latest := make(map[string]*batchv1.Job, len(list.Items))
	for i := range list.Items {
		job := &list.Items[i]
		id := job.Annotations[jobsidAnnotation]
		if id == "" {
			continue
		}
		if prev, ok := latest[id]; ok && !prev.CreationTimestamp.Before(&job.CreationTimestamp) {
			continue
		}
		latest[id] = job
	}

	jobs := make(Jobs, len(latest))
	for id, job := range latest {
		jobs[id] = status.NewClusterJob(id, jobStatus(job))
	}
	return jobs, nil
}

// jobStatus maps a Kubernetes Job onto the status lattice.
func jobStatus(job *batchv1.Job) status.Status {
	for _, c := range job.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			continue
		}
		switch c.Type {
		case batchv1.JobComplete:
			return status.Inactive
		case batchv1.JobFailed:
			return status.Error
		case batchv1.JobSuspended:
			return status.Held
		}
	}

	switch {
	case job.Spec.Suspend != nil && *job.Spec.Suspend:
		return status.Held
	case job.Status.Failed > 0:
		return status.Error
	case job.Status.Succeeded > 0:
		return status.Inactive
	case job.Status.Active > 0, job.Status.Ready != nil && *job.Status.Ready > 0:
		return status.Active
	default:
		// Created but no pod running yet.
		return status.Queued
	}
}

func jobsidHash(jobsid string) string {
	sum := sha1.Sum([]byte(jobsid))
	return hex.EncodeToString(sum[:])
}
