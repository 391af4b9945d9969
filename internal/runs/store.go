// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runs persists research runs in SQLite so background requests can be
// polled and past reports listed or exported.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultDBPath is used when no path is configured.
const DefaultDBPath = "data/runs.db"

// ErrRunNotFound is returned by Get for unknown IDs.
var ErrRunNotFound = fmt.Errorf("%w: run", types.ErrNotFound)

// Store manages the run ledger database.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// Open opens or creates the ledger at cfg.DBPath. The special path
// ":memory:" keeps the ledger in process. Failed observer writes are logged
// to logger, which may be nil.
func Open(cfg types.RunsConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.DBPath
	if path == "" {
		path = DefaultDBPath
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			email TEXT NOT NULL,
			status TEXT NOT NULL,
			stage TEXT,
			error TEXT,
			error_kind TEXT,
			total_papers INTEGER NOT NULL DEFAULT 0,
			relevant_papers INTEGER NOT NULL DEFAULT 0,
			report TEXT,
			delivery_id TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Create inserts a new processing run and returns it.
func (s *Store) Create(ctx context.Context, query, email string) (*types.Run, error) {
	now := s.now()
	run := &types.Run{
		ID:        uuid.NewString(),
		Query:     query,
		Email:     email,
		Status:    types.RunProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, email, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.Email, string(run.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

const selectRun = `SELECT id, query, email, status, stage, error, error_kind,
	total_papers, relevant_papers, report, delivery_id, created_at, updated_at FROM runs`

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns up to limit runs, newest first. A non-empty status filters.
func (s *Store) List(ctx context.Context, limit int, status types.RunStatus) ([]types.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := selectRun
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// StageStarted records that runID entered stage.
func (s *Store) StageStarted(ctx context.Context, runID string, stage types.Stage) {
	s.exec(ctx, runID, `UPDATE runs SET stage = ?, updated_at = ? WHERE id = ?`,
		string(stage), formatTime(s.now()), runID)
}

// Completed stores the outcome of a successful run.
func (s *Store) Completed(ctx context.Context, runID string, out types.Outcome) {
	var report sql.NullString
	if out.Report != nil {
		data, err := json.Marshal(out.Report)
		if err == nil {
			report = sql.NullString{String: string(data), Valid: true}
		}
	}
	s.exec(ctx, runID,
		`UPDATE runs SET status = ?, stage = NULL, error = NULL, error_kind = NULL,
			total_papers = ?, relevant_papers = ?, report = ?, delivery_id = ?, updated_at = ?
		 WHERE id = ?`,
		string(types.RunSucceeded), out.TotalPapers, out.RelevantPapers, report,
		out.DeliveryID, formatTime(s.now()), runID)
}

// Failed records the stage and error that ended runID.
func (s *Store) Failed(ctx context.Context, runID string, stage types.Stage, err error) {
	s.exec(ctx, runID,
		`UPDATE runs SET status = ?, stage = ?, error = ?, error_kind = ?, updated_at = ? WHERE id = ?`,
		string(types.RunFailed), string(stage), err.Error(), types.KindName(err),
		formatTime(s.now()), runID)
}

// exec runs an observer update for runID that outlives request cancellation.
// Failures are logged since the pipeline cannot act on them.
func (s *Store) exec(ctx context.Context, runID, query string, args ...any) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	res, err := s.db.ExecContext(writeCtx, query, args...)
	if err != nil {
		s.logger.Warn("run ledger update failed", zap.String("run_id", runID), zap.Error(err))
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("run ledger update matched no run", zap.String("run_id", runID))
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*types.Run, error) {
	var run types.Run
	var status, created, updated string
	var stage, errMsg, errKind, report, deliver sql.NullString
	err := sc.Scan(&run.ID, &run.Query, &run.Email, &status, &stage, &errMsg, &errKind,
		&run.TotalPapers, &run.RelevantPapers, &report, &deliver, &created, &updated)
	if err != nil {
		return nil, err
	}
	run.Status = types.RunStatus(status)
	run.Stage = types.Stage(stage.String)
	run.Error = errMsg.String
	run.ErrorKind = errKind.String
	run.DeliveryID = deliver.String
	run.CreatedAt = parseTime(created)
	run.UpdatedAt = parseTime(updated)
	if report.Valid && report.String != "" {
		var r types.Report
		if err := json.Unmarshal([]byte(report.String), &r); err != nil {
			return nil, fmt.Errorf("decoding report for run %s: %w", run.ID, err)
		}
		run.Report = &r
	}
	return &run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
