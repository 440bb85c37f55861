package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sma-timetable/scheduler-core/internal/domain"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
)

func newSolverRunMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSolverRunRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO solver_runs")).
		WithArgs("run-1", "fingerprint-1", "PENDING", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &domain.SolverRun{
		ID:               "run-1",
		InputFingerprint: "fingerprint-1",
		Status:           domain.RunPending,
		CreatedAt:        now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolverRunRepositoryComplete(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	completedAt := time.Now().UTC()
	schedule := domain.Schedule{
		"group-1": {
			"course-1|1|part1": domain.ScheduleEntry{TimeSlot: "mon-1", Teacher: "t1", Room: "r1", CourseID: "course-1"},
		},
	}
	metrics := domain.RunMetrics{Accuracy: 1, Precision: 1, Recall: 1, F1Score: 1}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE solver_runs")).
		WithArgs("SUCCEEDED", sqlmock.AnyArg(), sqlmock.AnyArg(), completedAt, "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Complete(context.Background(), "run-1", schedule, metrics, completedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolverRunRepositoryFail(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	completedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE solver_runs")).
		WithArgs("INFEASIBLE", "infeasible", "NO_TEACHER_FOR_COURSE", "course-1", "infeasible: NO_TEACHER_FOR_COURSE (course-1)", completedAt, "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Fail(context.Background(), "run-1", domain.RunInfeasible, "infeasible", "NO_TEACHER_FOR_COURSE", "course-1", "infeasible: NO_TEACHER_FOR_COURSE (course-1)", completedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolverRunRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	cols := []string{"id", "input_fingerprint", "status", "schedule", "metrics", "error_kind", "error_reason", "error_detail", "error_message", "created_at", "completed_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM solver_runs WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound, err)
}

func TestSolverRunRepositoryFindByIDFound(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	now := time.Now().UTC()
	cols := []string{"id", "input_fingerprint", "status", "schedule", "metrics", "error_kind", "error_reason", "error_detail", "error_message", "created_at", "completed_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("run-1", "fp-1", "SUCCEEDED", `{"group-1":{"course-1|1|part1":{"TimeSlot":"mon-1","Teacher":"t1","Room":"r1","CourseID":"course-1"}}}`, `{"Accuracy":1,"Precision":1,"Recall":1,"F1Score":1}`, nil, nil, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM solver_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.FindByID(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	require.NotNil(t, run.Metrics)
	assert.Equal(t, 1.0, run.Metrics.Accuracy)
	assert.Equal(t, "t1", run.Schedule["group-1"]["course-1|1|part1"].Teacher)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolverRunRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newSolverRunMock(t)
	defer cleanup()
	repo := NewSolverRunRepository(db)

	now := time.Now().UTC()
	cols := []string{"id", "input_fingerprint", "status", "schedule", "metrics", "error_kind", "error_reason", "error_detail", "error_message", "created_at", "completed_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("run-1", "fp-1", "SUCCEEDED", nil, nil, nil, nil, nil, nil, now, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM solver_runs WHERE status = $1")).
		WithArgs("SUCCEEDED", 20, 0).
		WillReturnRows(rows)

	runs, err := repo.List(context.Background(), "SUCCEEDED", 20, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Nil(t, runs[0].Schedule)
	assert.NoError(t, mock.ExpectationsWereMet())
}
