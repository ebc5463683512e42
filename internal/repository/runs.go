package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
)

// Run is one transcription run's bookkeeping row.
type Run struct {
	ID           uuid.UUID
	DocumentName string
	Status       constants.RunStatus
	PagesTotal   int
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}

// PageOutcome is the persisted per-page record of a run.
type PageOutcome struct {
	PageNum       int
	StatementType string
	Score         float64
	Confidence    float64
	Success       bool
	ErrorCode     string
	ErrorMessage  string
}

type RunRepository interface {
	StartRun(ctx context.Context, documentName string, pagesTotal int) (*Run, error)
	SetStatus(ctx context.Context, runID uuid.UUID, status constants.RunStatus) error
	RecordPage(ctx context.Context, runID uuid.UUID, outcome PageOutcome) error
	FinishRun(ctx context.Context, runID uuid.UUID, status constants.RunStatus, errorMessage string) error
	GetRun(ctx context.Context, runID uuid.UUID) (*Run, error)
}

type runRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewRunRepository(db *sql.DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

// EnsureSchema creates the run-store tables. The SQL sticks to the subset
// both Postgres and SQLite accept.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS transcription_run (
	id            TEXT PRIMARY KEY,
	document_name TEXT NOT NULL,
	status        TEXT NOT NULL,
	pages_total   INTEGER NOT NULL,
	started_at    TIMESTAMP NOT NULL,
	finished_at   TIMESTAMP,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS run_page (
	run_id         TEXT NOT NULL,
	page_num       INTEGER NOT NULL,
	statement_type TEXT NOT NULL DEFAULT '',
	score          REAL NOT NULL DEFAULT 0,
	confidence     REAL NOT NULL DEFAULT 0,
	success        INTEGER NOT NULL DEFAULT 0,
	error_code     TEXT NOT NULL DEFAULT '',
	error_message  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, page_num)
);`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (r *runRepo) StartRun(ctx context.Context, documentName string, pagesTotal int) (*Run, error) {
	run := &Run{
		ID:           uuid.New(),
		DocumentName: documentName,
		Status:       constants.RunStatusRunning,
		PagesTotal:   pagesTotal,
		StartedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcription_run (id, document_name, status, pages_total, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID.String(), run.DocumentName, string(run.Status), run.PagesTotal, run.StartedAt,
	)
	if err != nil {
		r.log.Error("run start failed", "document", documentName, "err", err)
		return nil, err
	}
	r.log.Info("run started", "run_id", run.ID, "document", documentName, "pages", pagesTotal)
	return run, nil
}

func (r *runRepo) SetStatus(ctx context.Context, runID uuid.UUID, status constants.RunStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transcription_run SET status = $1 WHERE id = $2`,
		string(status), runID.String(),
	)
	if err != nil {
		r.log.Error("run status update failed", "run_id", runID, "status", string(status), "err", err)
		return err
	}
	r.log.Debug("run status updated", "run_id", runID, "status", string(status))
	return nil
}

func (r *runRepo) RecordPage(ctx context.Context, runID uuid.UUID, o PageOutcome) error {
	success := 0
	if o.Success {
		success = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_page (run_id, page_num, statement_type, score, confidence, success, error_code, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (run_id, page_num) DO UPDATE SET
			statement_type = excluded.statement_type,
			score          = excluded.score,
			confidence     = excluded.confidence,
			success        = excluded.success,
			error_code     = excluded.error_code,
			error_message  = excluded.error_message`,
		runID.String(), o.PageNum, o.StatementType, o.Score, o.Confidence, success, o.ErrorCode, o.ErrorMessage,
	)
	if err != nil {
		r.log.Error("page record failed", "run_id", runID, "page", o.PageNum, "err", err)
		return err
	}
	return nil
}

func (r *runRepo) FinishRun(ctx context.Context, runID uuid.UUID, status constants.RunStatus, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transcription_run SET status = $1, finished_at = $2, error_message = $3 WHERE id = $4`,
		string(status), time.Now().UTC(), errorMessage, runID.String(),
	)
	if err != nil {
		r.log.Error("run finish failed", "run_id", runID, "err", err)
		return err
	}
	r.log.Info("run finished", "run_id", runID, "status", string(status))
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, document_name, status, pages_total, started_at, finished_at, error_message
		 FROM transcription_run WHERE id = $1`,
		runID.String(),
	)
	var (
		run      Run
		id       string
		status   string
		finished sql.NullTime
	)
	if err := row.Scan(&id, &run.DocumentName, &status, &run.PagesTotal, &run.StartedAt, &finished, &run.ErrorMessage); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	run.ID = parsed
	run.Status = constants.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
