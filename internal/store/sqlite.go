package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobsweep/internal/model"
)

// Ensure SQLiteStore implements model.RunArchive.
var _ model.RunArchive = (*SQLiteStore)(nil)

// SQLiteStore archives run summaries and their per-source outcomes in a
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	finished_at    TEXT NOT NULL,
	status         TEXT NOT NULL,
	aborted        INTEGER NOT NULL,
	previous_count INTEGER NOT NULL,
	current_count  INTEGER NOT NULL,
	added          INTEGER NOT NULL,
	removed        INTEGER NOT NULL,
	first_run      INTEGER NOT NULL,
	report_path    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	source_id   TEXT NOT NULL,
	kind        TEXT NOT NULL,
	job_count   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	message     TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the runs and outcomes tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run archive tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun stores summary and its outcomes in one transaction. Saving the
// same run ID twice replaces the earlier copy.
func (s *SQLiteStore) SaveRun(ctx context.Context, summary model.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM outcomes WHERE run_id = ?", summary.RunID); err != nil {
		return fmt.Errorf("clearing outcomes for run %s: %w", summary.RunID, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, status, aborted, previous_count, current_count, added, removed, first_run, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(summary.Status),
		summary.Aborted,
		summary.PreviousCount,
		summary.CurrentCount,
		summary.Added,
		summary.Removed,
		summary.FirstRun,
		summary.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", summary.RunID, err)
	}

	for i, o := range summary.Outcomes {
		_, err := tx.ExecContext(ctx, `INSERT INTO outcomes
			(run_id, position, source_id, kind, job_count, duration_ms, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, i, o.SourceID, string(o.Kind), o.JobCount, o.Duration.Milliseconds(), o.Message)
		if err != nil {
			return fmt.Errorf("saving outcome %s for run %s: %w", o.SourceID, summary.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first, with their outcomes.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, started_at, finished_at, status, aborted, previous_count, current_count, added, removed, first_run, report_path
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		var (
			r                 model.RunSummary
			started, finished string
			status            string
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &status, &r.Aborted,
			&r.PreviousCount, &r.CurrentCount, &r.Added, &r.Removed, &r.FirstRun, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = model.RunStatus(status)
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at of run %s: %w", r.RunID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at of run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		outcomes, err := s.outcomes(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Outcomes = outcomes
	}
	return runs, nil
}

func (s *SQLiteStore) outcomes(ctx context.Context, runID string) ([]model.RunOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_id, kind, job_count, duration_ms, message
		FROM outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []model.RunOutcome
	for rows.Next() {
		var (
			o    model.RunOutcome
			kind string
			ms   int64
		)
		if err := rows.Scan(&o.SourceID, &kind, &o.JobCount, &ms, &o.Message); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Kind = model.OutcomeKind(kind)
		o.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

// Prune deletes runs that started before the given age.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM outcomes WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)", cutoff); err != nil {
		return 0, fmt.Errorf("pruning outcomes older than %v: %w", olderThan, err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning runs older than %v: %w", olderThan, err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
