package eval

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunStore persists eval runs to SQLite so runs can be compared over time.
// Entirely optional: the runner itself never touches storage.
type RunStore struct {
	db *sql.DB
}

// RunRecord is the header row for one eval run.
type RunRecord struct {
	ID        string
	StartedAt time.Time
	Endpoint  string
	Dataset   string
	Total     int
	Errors    int
}

// OpenRunStore opens (or creates) the run history database at the given path.
func OpenRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &RunStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("eval run store opened", "path", dbPath)
	return s, nil
}

func (s *RunStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS eval_runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			endpoint TEXT NOT NULL,
			dataset TEXT NOT NULL,
			total INTEGER NOT NULL,
			errors INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS eval_results (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			input TEXT NOT NULL,
			expected_output TEXT NOT NULL,
			actual_output TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			code TEXT NOT NULL DEFAULT '',
			latency_ms INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_eval_results_run ON eval_results(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return nil
}

// SaveRun writes a run header and its results in one transaction.
// Returns the generated run ID.
func (s *RunStore) SaveRun(endpoint, dataset string, results []Result) (string, error) {
	runID := uuid.NewString()
	errCount := 0
	for _, r := range results {
		if r.Failed() {
			errCount++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO eval_runs (id, started_at, endpoint, dataset, total, errors)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().Unix(), endpoint, dataset, len(results), errCount)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, r := range results {
		_, err = tx.Exec(`INSERT INTO eval_results (run_id, seq, input, expected_output, actual_output, error, code, latency_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, r.Input, r.ExpectedOutput, r.ActualOutput, r.Err, r.Code, r.LatencyMS)
		if err != nil {
			return "", fmt.Errorf("insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// LoadRun returns the results of a stored run in sequence order.
func (s *RunStore) LoadRun(runID string) ([]Result, error) {
	rows, err := s.db.Query(`SELECT input, expected_output, actual_output, error, code, latency_ms
		FROM eval_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Input, &r.ExpectedOutput, &r.ActualOutput, &r.Err, &r.Code, &r.LatencyMS); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListRuns returns run headers, newest first.
func (s *RunStore) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(`SELECT id, started_at, endpoint, dataset, total, errors
		FROM eval_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt int64
		if err := rows.Scan(&rec.ID, &startedAt, &rec.Endpoint, &rec.Dataset, &rec.Total, &rec.Errors); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(startedAt, 0)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}
