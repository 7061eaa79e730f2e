package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Document is a job document stored as a single JSON object on disk.
type Document struct {
	dir string
}

// Get decodes the value stored under key into dst.
func (d *Document) Get(ctx context.Context, key string, dst any) (bool, error) {
	if _, err := os.Stat(d.dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	lock := flock.New(filepath.Join(d.dir, lockFile))
	if err := d.acquire(ctx, lock.TryRLockContext); err != nil {
		return false, err
	}
	defer lock.Unlock()

	values, err := d.read()
	if err != nil {
		return false, err
	}

	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %q in %s: %w", key, d.dir, err)
	}
	return true, nil
}

// Set stores value under key and rewrites the document.
func (d *Document) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	lock := flock.New(filepath.Join(d.dir, lockFile))
	if err := d.acquire(ctx, lock.TryLockContext); err != nil {
		return err
	}
	defer lock.Unlock()

	values, err := d.read()
	if err != nil {
		return err
	}
	values[key] = raw

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(d.dir, documentFile), data); err != nil {
		return fmt.Errorf("failed to write document in %s: %w", d.dir, err)
	}
	return nil
}

func (d *Document) acquire(ctx context.Context, try func(context.Context, time.Duration) (bool, error)) error {
	locked, err := try(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock document in %s: %w", d.dir, err)
	}
	if !locked {
		return fmt.Errorf("document in %s is locked", d.dir)
	}
	return nil
}

func (d *Document) read() (map[string]json.RawMessage, error) {
	values := map[string]json.RawMessage{}

	data, err := os.ReadFile(filepath.Join(d.dir, documentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document in %s: %w", d.dir, err)
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("corrupt document in %s: %w", d.dir, err)
	}
	return values, nil
}
