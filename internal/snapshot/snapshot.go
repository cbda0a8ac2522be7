// Package snapshot stores the loaded and classified programme data in a
// single-file SQLite database that the page renderer reads back.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("snapshot not found")

// Run identifies one load.
type Run struct {
	ID            uuid.UUID
	GeneratedAt   time.Time
	Tag           string
	Organisations int
	Awards        int
	Total         int64
}

// NewRun stamps a run with a fresh id and the current time.
func NewRun(tag string) Run {
	return Run{ID: uuid.New(), GeneratedAt: time.Now().UTC(), Tag: tag}
}

type Snapshot struct {
	db      *sql.DB
	path    string
	builder sq.StatementBuilderType
}

// Create replaces any snapshot at path with an empty one.
func Create(ctx context.Context, path string) (*Snapshot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove old snapshot: %w", err)
	}
	s, err := open(path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schemaStatements("") {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.Close()
			return nil, fmt.Errorf("create snapshot schema: %w", err)
		}
	}
	return s, nil
}

// Open opens an existing snapshot for reading.
func Open(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, err
	}
	s, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := s.db.PingContext(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return s, nil
}

func open(path string) (*Snapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Snapshot{
		db:      db,
		path:    path,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (s *Snapshot) Path() string {
	return s.path
}

func (s *Snapshot) Close() error {
	return s.db.Close()
}
