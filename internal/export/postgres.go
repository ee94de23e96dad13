// Package export mirrors each run's snapshot into Postgres so the job set
// can be queried with SQL.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobsweep/internal/changes"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/snapshot"
)

const createTable = `CREATE TABLE IF NOT EXISTS jobs (
	company_name        TEXT NOT NULL,
	job_link            TEXT NOT NULL,
	job_title           TEXT NOT NULL,
	location            TEXT NOT NULL,
	description         TEXT NOT NULL,
	employment_type     TEXT NOT NULL,
	department          TEXT NOT NULL,
	posted_date         DATE,
	company_description TEXT NOT NULL,
	remote              TEXT NOT NULL,
	label               TEXT NOT NULL,
	ats                 TEXT NOT NULL,
	first_seen          TIMESTAMPTZ NOT NULL,
	last_seen           TIMESTAMPTZ NOT NULL,
	active              BOOLEAN NOT NULL DEFAULT TRUE,
	last_run_id         TEXT NOT NULL,
	PRIMARY KEY (company_name, job_link)
)`

const upsertJob = `INSERT INTO jobs (
	company_name, job_link, job_title, location, description, employment_type,
	department, posted_date, company_description, remote, label, ats,
	first_seen, last_seen, active, last_run_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, TRUE, $14)
ON CONFLICT (company_name, job_link) DO UPDATE SET
	job_title = EXCLUDED.job_title,
	location = EXCLUDED.location,
	description = EXCLUDED.description,
	employment_type = EXCLUDED.employment_type,
	department = EXCLUDED.department,
	posted_date = EXCLUDED.posted_date,
	company_description = EXCLUDED.company_description,
	remote = EXCLUDED.remote,
	label = EXCLUDED.label,
	ats = EXCLUDED.ats,
	last_seen = EXCLUDED.last_seen,
	active = TRUE,
	last_run_id = EXCLUDED.last_run_id`

const deactivateJob = `UPDATE jobs SET active = FALSE, last_run_id = $3
WHERE company_name = $1 AND job_link = $2`

// DB is the part of *pgxpool.Pool the exporter uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresExporter upserts snapshot records into a jobs table and marks
// removed postings inactive.
type PostgresExporter struct {
	db     DB
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// NewPostgresExporter ensures the jobs table exists.
func NewPostgresExporter(ctx context.Context, db DB, logger *slog.Logger) (*PostgresExporter, error) {
	if _, err := db.Exec(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create jobs table: %w", err)
	}
	return &PostgresExporter{db: db, logger: logger, now: time.Now}, nil
}

// Export writes every record of cur and deactivates the removed keys of
// report, all in one batch.
func (e *PostgresExporter) Export(ctx context.Context, runID string, cur *snapshot.Snapshot, report changes.Report) error {
	b := buildBatch(runID, cur.Records(), report.Removed, e.now().UTC())
	if b.Len() == 0 {
		return nil
	}

	br := e.db.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("export statement %d of %d: %w", i+1, b.Len(), err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close export batch: %w", err)
	}

	e.logger.Info("snapshot exported to postgres",
		"run_id", runID,
		"upserted", cur.Len(),
		"deactivated", len(report.Removed),
	)
	return nil
}

func buildBatch(runID string, records []model.JobRecord, removed []model.Key, now time.Time) *pgx.Batch {
	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(upsertJob,
			r.CompanyName, r.JobLink, r.JobTitle, r.Location, r.Description, r.EmploymentType,
			r.Department, postedDate(r.PostedDate), r.CompanyDescription, string(r.Remote), r.Label, r.ATS,
			now, runID,
		)
	}
	for _, k := range removed {
		b.Queue(deactivateJob, k.CompanyName, k.JobLink, runID)
	}
	return b
}

// postedDate maps an empty or malformed date to NULL.
func postedDate(s string) any {
	t, err := time.Parse(model.PostedDateLayout, s)
	if err != nil {
		return nil
	}
	return t
}
