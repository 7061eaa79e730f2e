// Package project provides the project and job object model on top of a job store.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flowplane/internal/store"

	"github.com/google/uuid"
)

// StatePoint is the set of parameters that identifies a job within a project.
type StatePoint map[string]any

// Project groups jobs that share a store namespace.
type Project struct {
	id    string
	store store.JobStore
	ns    uuid.UUID
}

// New returns the project with the given id.
func New(id string, s store.JobStore) (*Project, error) {
	if id == "" {
		return nil, errors.New("project id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid project id %q", id)
	}
	return &Project{
		id:    id,
		store: s,
		ns:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("flowplane:project:"+id)),
	}, nil
}

// ID returns the project identifier.
func (p *Project) ID() string {
	return p.id
}

func (p *Project) String() string {
	return p.id
}

// JobID derives the id of the job with the given state point.
// Equal state points always yield the same id.
func (p *Project) JobID(sp StatePoint) (string, error) {
	canonical, err := canonicalize(sp)
	if err != nil {
		return "", err
	}
	return p.idFor(canonical), nil
}

func (p *Project) idFor(canonical []byte) string {
	return strings.ReplaceAll(uuid.NewSHA1(p.ns, canonical).String(), "-", "")
}

// OpenJob returns the job with the given state point, registering it if new.
func (p *Project) OpenJob(ctx context.Context, sp StatePoint) (*Job, error) {
	canonical, err := canonicalize(sp)
	if err != nil {
		return nil, err
	}
	id := p.idFor(canonical)

	if err := p.store.UpsertJob(ctx, &store.Job{ID: id, ProjectID: p.id, StatePoint: canonical}); err != nil {
		return nil, fmt.Errorf("failed to open job %s: %w", id, err)
	}
	return p.newJob(id, canonical)
}

// Job returns an existing job by id.
// Ids that could not have been derived from a state point are not found.
func (p *Project) Job(ctx context.Context, id string) (*Job, error) {
	if !validJobID(id) {
		return nil, store.ErrNotFound
	}
	rec, err := p.store.GetJob(ctx, p.id, id)
	if err != nil {
		return nil, err
	}
	return p.newJob(rec.ID, rec.StatePoint)
}

// Jobs returns all jobs of the project.
func (p *Project) Jobs(ctx context.Context) ([]*Job, error) {
	recs, err := p.store.ListJobs(ctx, p.id)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(recs))
	for _, rec := range recs {
		job, err := p.newJob(rec.ID, rec.StatePoint)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (p *Project) newJob(id string, raw json.RawMessage) (*Job, error) {
	sp := StatePoint{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sp); err != nil {
			return nil, fmt.Errorf("invalid state point of job %s: %w", id, err)
		}
	}
	return &Job{
		id:         id,
		project:    p,
		statePoint: sp,
		doc:        p.store.Document(p.id, id),
	}, nil
}

func validJobID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// canonicalize renders sp as JSON with sorted keys and normalised numbers.
func canonicalize(sp StatePoint) ([]byte, error) {
	if sp == nil {
		sp = StatePoint{}
	}
	raw, err := json.Marshal(sp)
	if err != nil {
		return nil, fmt.Errorf("invalid state point: %w", err)
	}

	var normalised any
	if err := json.Unmarshal(raw, &normalised); err != nil {
		return nil, fmt.Errorf("invalid state point: %w", err)
	}
	return json.Marshal(normalised)
}
