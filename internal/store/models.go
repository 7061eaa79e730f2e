// Package store contains the persistence layer for flowplane.
package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a job does not exist in the store.
var ErrNotFound = errors.New("not found")

// Job is a job of a project, identified by its state point.
type Job struct {
	ID         string
	ProjectID  string
	StatePoint json.RawMessage
	CreatedAt  time.Time
}
