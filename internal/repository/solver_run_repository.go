// Package repository holds sqlx-backed persistence for the scheduler
// service, grounded on the teacher's repository layer conventions:
// interfaces defined at the point of use, struct scans via sqlx, explicit
// context on every call.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sma-timetable/scheduler-core/internal/domain"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
)

// solverRunRow is the sqlx scan target; domain.SolverRun's Schedule and
// Metrics fields are stored as JSON columns.
type solverRunRow struct {
	ID               string         `db:"id"`
	InputFingerprint string         `db:"input_fingerprint"`
	Status           string         `db:"status"`
	Schedule         sql.NullString `db:"schedule"`
	Metrics          sql.NullString `db:"metrics"`
	ErrorKind        sql.NullString `db:"error_kind"`
	ErrorReason      sql.NullString `db:"error_reason"`
	ErrorDetail      sql.NullString `db:"error_detail"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

// SolverRunRepository persists and retrieves solver run audit records.
type SolverRunRepository struct {
	db *sqlx.DB
}

// NewSolverRunRepository constructs a repository over the given database handle.
func NewSolverRunRepository(db *sqlx.DB) *SolverRunRepository {
	return &SolverRunRepository{db: db}
}

// Create inserts a new run in PENDING or RUNNING status.
func (r *SolverRunRepository) Create(ctx context.Context, run *domain.SolverRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO solver_runs (id, input_fingerprint, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.InputFingerprint, string(run.Status), run.CreatedAt)
	return err
}

// Complete records a successful run's schedule and metrics.
func (r *SolverRunRepository) Complete(ctx context.Context, id string, schedule domain.Schedule, metrics domain.RunMetrics, completedAt time.Time) error {
	scheduleJSON, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE solver_runs
		SET status = $1, schedule = $2, metrics = $3, completed_at = $4
		WHERE id = $5
	`, string(domain.RunSucceeded), string(scheduleJSON), string(metricsJSON), completedAt, id)
	return err
}

// Fail records a terminal failure (infeasible or internal).
func (r *SolverRunRepository) Fail(ctx context.Context, id string, status domain.RunStatus, kind, reason, detail, message string, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE solver_runs
		SET status = $1, error_kind = $2, error_reason = $3, error_detail = $4, error_message = $5, completed_at = $6
		WHERE id = $7
	`, string(status), kind, reason, detail, message, completedAt, id)
	return err
}

// FindByID loads a single run, or appErrors.ErrNotFound if it doesn't exist.
func (r *SolverRunRepository) FindByID(ctx context.Context, id string) (*domain.SolverRun, error) {
	var row solverRunRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM solver_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToRun(row)
}

// List returns runs ordered newest-first, optionally filtered by status.
func (r *SolverRunRepository) List(ctx context.Context, status string, limit, offset int) ([]domain.SolverRun, error) {
	var rows []solverRunRow
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT * FROM solver_runs WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, status, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT * FROM solver_runs
			ORDER BY created_at DESC LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	runs := make([]domain.SolverRun, 0, len(rows))
	for _, row := range rows {
		run, err := rowToRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func rowToRun(row solverRunRow) (*domain.SolverRun, error) {
	run := &domain.SolverRun{
		ID:               row.ID,
		InputFingerprint: row.InputFingerprint,
		Status:           domain.RunStatus(row.Status),
		ErrorKind:        row.ErrorKind.String,
		ErrorReason:      row.ErrorReason.String,
		ErrorDetail:      row.ErrorDetail.String,
		ErrorMessage:     row.ErrorMessage.String,
		CreatedAt:        row.CreatedAt,
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		run.CompletedAt = &t
	}
	if row.Schedule.Valid && row.Schedule.String != "" {
		var schedule domain.Schedule
		if err := json.Unmarshal([]byte(row.Schedule.String), &schedule); err != nil {
			return nil, err
		}
		run.Schedule = schedule
	}
	if row.Metrics.Valid && row.Metrics.String != "" {
		var metrics domain.RunMetrics
		if err := json.Unmarshal([]byte(row.Metrics.String), &metrics); err != nil {
			return nil, err
		}
		run.Metrics = &metrics
	}
	return run, nil
}
