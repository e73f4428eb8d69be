// Package runlog persists the history of interpreter runs in a local
// SQLite database, one row per executed case.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	method      TEXT NOT NULL,
	inputs      TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_method ON runs (method);
`

// timeFormat pads nanoseconds to a fixed width so that the textual
// created_at column orders lexicographically by instant. RFC3339Nano drops
// trailing zeros, which would sort whole seconds after their fractions.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded interpreter run.
type Run struct {
	ID        string
	Method    string
	Inputs    string
	Outcome   string
	Steps     int
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is a run-log database handle. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the run-log database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create run-log directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open run log %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot configure run log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize run log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run. An empty ID gets a fresh UUID and a zero CreatedAt
// gets the current time; the stored values are returned in the run.
func (s *Store) Record(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, method, inputs, outcome, steps, duration_ns, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Method, r.Inputs, r.Outcome, r.Steps, int64(r.Duration), r.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("cannot record run: %w", err)
	}
	return nil
}

// ByMethod returns all recorded runs of a method, newest first.
func (s *Store) ByMethod(method string) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, method, inputs, outcome, steps, duration_ns, created_at FROM runs WHERE method = ? ORDER BY created_at DESC`,
		method,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Recent returns the latest n recorded runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, method, inputs, outcome, steps, duration_ns, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		var durationNS int64
		if err := rows.Scan(&r.ID, &r.Method, &r.Inputs, &r.Outcome, &r.Steps, &durationNS, &created); err != nil {
			return nil, fmt.Errorf("cannot scan run: %w", err)
		}
		r.Duration = time.Duration(durationNS)
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("cannot scan run: %w", err)
		}
		r.CreatedAt = t
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read runs: %w", err)
	}
	return runs, nil
}
