package project

import "flowplane/internal/store"

// Job is a single job of a project.
type Job struct {
	id         string
	project    *Project
	statePoint StatePoint
	doc        store.Document
}

// ID returns the job id derived from its state point.
func (j *Job) ID() string {
	return j.id
}

func (j *Job) String() string {
	return j.id
}

// Project returns the project the job belongs to.
func (j *Job) Project() *Project {
	return j.project
}

// StatePoint returns a copy of the job's state point.
func (j *Job) StatePoint() StatePoint {
	sp := make(StatePoint, len(j.statePoint))
	for k, v := range j.statePoint {
		sp[k] = v
	}
	return sp
}

// Document returns the job's document.
func (j *Job) Document() store.Document {
	return j.doc
}
