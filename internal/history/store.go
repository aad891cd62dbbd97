package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"quark/internal/config"
	"quark/internal/pipeline"
)

// Store manages run-journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

// Run is one recorded pipeline run.
type Run struct {
	ID            int64
	RunID         string
	TargetPath    string
	DeleteSources bool
	Started       time.Time
	Finished      time.Time
	Archives      int
	Extracted     int
	Organized     int
	Skipped       int
	Failures      int
	NothingToDo   bool
}

// Failure is one terminal per-item failure attached to a run.
type Failure struct {
	RunID  string
	Stage  string
	Item   string
	Reason string
}

// Open initializes or connects to the journal database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, keep: cfg.History.Keep}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			target_path TEXT NOT NULL,
			delete_sources INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			archives INTEGER NOT NULL DEFAULT 0,
			extracted INTEGER NOT NULL DEFAULT 0,
			organized INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			nothing_to_do INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			item TEXT NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_failures_run_id ON run_failures(run_id)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// RecordRun persists a finished run and its terminal failures, then prunes
// entries beyond the configured retention count.
func (s *Store) RecordRun(ctx context.Context, report *pipeline.Report, deleteSources bool) error {
	extracted := 0
	if stage, ok := report.Stage(pipeline.StageExtract); ok {
		extracted = stage.Succeeded
	}
	organized := 0
	if stage, ok := report.Stage(pipeline.StageCleanupFolders); ok && stage.Ran {
		organized = stage.Attempted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
			run_id, target_path, delete_sources, started_at, finished_at,
			archives, extracted, organized, skipped, failures, nothing_to_do
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.TargetPath,
		boolToInt(deleteSources),
		report.Started.UTC().Format(time.RFC3339Nano),
		report.Finished.UTC().Format(time.RFC3339Nano),
		report.Archives,
		extracted,
		organized,
		len(report.Skipped),
		len(report.Failures),
		boolToInt(report.NothingToDo),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, failure := range report.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, stage, item, reason) VALUES (?, ?, ?, ?)`,
			report.RunID, failure.Stage, failure.Item, failure.Reason,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return s.prune(ctx)
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, target_path, delete_sources, started_at, finished_at,
			archives, extracted, organized, skipped, failures, nothing_to_do
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var deleteSources, nothingToDo int
		var started, finished string
		if err := rows.Scan(
			&run.ID, &run.RunID, &run.TargetPath, &deleteSources, &started, &finished,
			&run.Archives, &run.Extracted, &run.Organized, &run.Skipped, &run.Failures, &nothingToDo,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DeleteSources = deleteSources != 0
		run.NothingToDo = nothingToDo != 0
		if run.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FailuresForRun returns the terminal failures recorded for a run.
func (s *Store) FailuresForRun(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, item, reason FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var failure Failure
		if err := rows.Scan(&failure.RunID, &failure.Stage, &failure.Item, &failure.Reason); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, failure)
	}
	return failures, rows.Err()
}

func (s *Store) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM run_failures WHERE run_id IN (
			SELECT run_id FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)
		)`, s.keep)
	if err != nil {
		return fmt.Errorf("prune failures: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, s.keep)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
