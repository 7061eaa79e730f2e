package manage

import (
	"context"
	"fmt"

	"flowplane/internal/status"
	"flowplane/internal/store"
)

// statusKey is the document key holding the status document.
const statusKey = "status"

// StatusDoc maps job-submission-ids to their recorded status.
// A missing id means status.Unknown.
type StatusDoc map[string]status.Status

// ReadStatusDoc loads the status document of a job.
// A job without a status document yields an empty one.
func ReadStatusDoc(ctx context.Context, doc store.Document) (StatusDoc, error) {
	sd := StatusDoc{}
	if _, err := doc.Get(ctx, statusKey, &sd); err != nil {
		return nil, err
	}
	// A stored null decodes to a nil map.
	if sd == nil {
		sd = StatusDoc{}
	}
	for id, s := range sd {
		if !s.Valid() {
			return nil, fmt.Errorf("invalid status %d recorded for %s", int(s), id)
		}
	}
	return sd, nil
}

// Get returns the recorded status of id and whether it is present.
func (sd StatusDoc) Get(id string) (status.Status, bool) {
	s, ok := sd[id]
	return s, ok
}

func writeStatusDoc(ctx context.Context, doc store.Document, sd StatusDoc) error {
	return doc.Set(ctx, statusKey, sd)
}

// setStatus records s for id, re-reading the document first so that entries
// written by others in the meantime are kept.
func setStatus(ctx context.Context, doc store.Document, id string, s status.Status) error {
	sd, err := ReadStatusDoc(ctx, doc)
	if err != nil {
		return err
	}
	sd[id] = s
	return writeStatusDoc(ctx, doc, sd)
}
