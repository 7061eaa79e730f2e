// Package postgres implements the store interfaces using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"flowplane/internal/store"

	_ "github.com/lib/pq"
)

// Store provides PostgreSQL-backed implementations of all repositories.
type Store struct {
	db *sql.DB
}

var _ store.JobStore = (*Store)(nil)

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying connection pool (used for migrations).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
