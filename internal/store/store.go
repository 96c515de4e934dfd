// Package store persists one row per orchestrated run: the final
// rendered answer, the recorded-output transcript, and any terminal
// error, so a later process can list or replay past runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vk/cryptoasl/internal/domain"
)

// Run is one completed (or failed) orchestration.
type Run struct {
	ID          string
	Question    string
	FinalOutput string
	Records     []domain.RecordedOutput
	Err         string
	CreatedAt   time.Time
}

// Store wraps a sqlite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies the run-history schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const query = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		question TEXT,
		final_output TEXT,
		records JSON,
		error TEXT,
		created_at DATETIME
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Save writes one run's outcome. A non-empty r.Err is recorded alongside
// whatever partial FinalOutput/Records exist.
func (s *Store) Save(ctx context.Context, r Run) error {
	records, err := json.Marshal(r.Records)
	if err != nil {
		return fmt.Errorf("store: encode records for %s: %w", r.ID, err)
	}
	const query = `
	INSERT INTO runs (id, question, final_output, records, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		question = excluded.question,
		final_output = excluded.final_output,
		records = excluded.records,
		error = excluded.error,
		created_at = excluded.created_at`
	_, err = s.db.ExecContext(ctx, query, r.ID, r.Question, r.FinalOutput, string(records), r.Err, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get fetches one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	const query = `
	SELECT id, question, final_output, records, error, created_at
	FROM runs WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	return scanRun(row)
}

// List returns the most recent runs, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	const query = `
	SELECT id, question, final_output, records, error, created_at
	FROM runs ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var records string
	if err := row.Scan(&r.ID, &r.Question, &r.FinalOutput, &records, &r.Err, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(records), &r.Records); err != nil {
		return nil, fmt.Errorf("store: decode records for %s: %w", r.ID, err)
	}
	return &r, nil
}
