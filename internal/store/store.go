package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for run history: runs, comparisons,
// and their difference records.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  started_at      TIMESTAMP NOT NULL,
  finished_at     TIMESTAMP,
  left_label      TEXT NOT NULL,
  right_label     TEXT NOT NULL,
  passed          INTEGER NOT NULL DEFAULT 0,
  failed          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS comparisons (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  scenario        TEXT NOT NULL,
  tx_hash         TEXT,
  is_match        BOOLEAN NOT NULL DEFAULT FALSE,
  diff_count      INTEGER NOT NULL DEFAULT 0,
  duration_ms     INTEGER NOT NULL DEFAULT 0,
  error           TEXT
);

CREATE TABLE IF NOT EXISTS diffs (
  id              INTEGER PRIMARY KEY,
  comparison_id   INTEGER NOT NULL REFERENCES comparisons(id),
  ordinal         INTEGER NOT NULL,
  path            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  left_json       TEXT,
  right_json      TEXT
);

CREATE INDEX IF NOT EXISTS idx_comparisons_run ON comparisons(run_id);
CREATE INDEX IF NOT EXISTS idx_diffs_comparison ON diffs(comparison_id);
`

// InsertRun records the start of a suite run.
func (s *Store) InsertRun(run *Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, left_label, right_label) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.LeftLabel, run.RightLabel,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps a run's completion time and final pass/fail counts.
func (s *Store) FinishRun(runID string, passed, failed int) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = CURRENT_TIMESTAMP, passed = ?, failed = ? WHERE id = ?`,
		passed, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// InsertComparison records one scenario comparison and returns its ID.
func (s *Store) InsertComparison(c *Comparison) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO comparisons (run_id, scenario, tx_hash, is_match, diff_count, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Scenario, c.TxHash, c.IsMatch, c.DiffCount, c.DurationMS, nullable(c.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("insert comparison: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert comparison: %w", err)
	}
	return id, nil
}

// InsertDiff records one difference for a comparison.
func (s *Store) InsertDiff(d *DiffRow) error {
	_, err := s.db.Exec(
		`INSERT INTO diffs (comparison_id, ordinal, path, kind, left_json, right_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ComparisonID, d.Ordinal, d.Path, d.Kind, d.LeftJSON, d.RightJSON,
	)
	if err != nil {
		return fmt.Errorf("insert diff: %w", err)
	}
	return nil
}

// RunByID returns a run, or nil if it doesn't exist.
func (s *Store) RunByID(id string) (*Run, error) {
	run := &Run{}
	var finished sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, started_at, finished_at, left_label, right_label, passed, failed
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.StartedAt, &finished, &run.LeftLabel, &run.RightLabel,
		&run.Passed, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, left_label, right_label, passed, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.LeftLabel,
			&run.RightLabel, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("recent runs: scan: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ComparisonsByRun returns a run's comparisons in insertion order.
func (s *Store) ComparisonsByRun(runID string) ([]*Comparison, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, scenario, tx_hash, is_match, diff_count, duration_ms, error
		 FROM comparisons WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("comparisons by run: %w", err)
	}
	defer rows.Close()

	var cmps []*Comparison
	for rows.Next() {
		c := &Comparison{}
		var txHash, errText sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.Scenario, &txHash, &c.IsMatch,
			&c.DiffCount, &c.DurationMS, &errText); err != nil {
			return nil, fmt.Errorf("comparisons by run: scan: %w", err)
		}
		c.TxHash = txHash.String
		c.Error = errText.String
		cmps = append(cmps, c)
	}
	return cmps, rows.Err()
}

// DiffsByComparison returns a comparison's differences in discovery order.
func (s *Store) DiffsByComparison(comparisonID int64) ([]*DiffRow, error) {
	rows, err := s.db.Query(
		`SELECT id, comparison_id, ordinal, path, kind, left_json, right_json
		 FROM diffs WHERE comparison_id = ? ORDER BY ordinal`, comparisonID,
	)
	if err != nil {
		return nil, fmt.Errorf("diffs by comparison: %w", err)
	}
	defer rows.Close()

	var diffs []*DiffRow
	for rows.Next() {
		d := &DiffRow{}
		var left, right sql.NullString
		if err := rows.Scan(&d.ID, &d.ComparisonID, &d.Ordinal, &d.Path, &d.Kind,
			&left, &right); err != nil {
			return nil, fmt.Errorf("diffs by comparison: scan: %w", err)
		}
		d.LeftJSON = left.String
		d.RightJSON = right.String
		diffs = append(diffs, d)
	}
	return diffs, rows.Err()
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
