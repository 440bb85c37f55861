package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sma-timetable/scheduler-core/internal/domain"
	"github.com/sma-timetable/scheduler-core/internal/dto"
	"github.com/sma-timetable/scheduler-core/internal/solver"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
)

type runStoreStub struct {
	runs map[string]*domain.SolverRun
}

func newRunStoreStub() *runStoreStub {
	return &runStoreStub{runs: map[string]*domain.SolverRun{}}
}

func (s *runStoreStub) Create(ctx context.Context, run *domain.SolverRun) error {
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *runStoreStub) Complete(ctx context.Context, id string, schedule domain.Schedule, metrics domain.RunMetrics, completedAt time.Time) error {
	run, ok := s.runs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	run.Status = domain.RunSucceeded
	run.Schedule = schedule
	run.Metrics = &metrics
	run.CompletedAt = &completedAt
	return nil
}

func (s *runStoreStub) Fail(ctx context.Context, id string, status domain.RunStatus, kind, reason, detail, message string, completedAt time.Time) error {
	run, ok := s.runs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	run.Status = status
	run.ErrorKind = kind
	run.ErrorReason = reason
	run.ErrorDetail = detail
	run.ErrorMessage = message
	run.CompletedAt = &completedAt
	return nil
}

func (s *runStoreStub) FindByID(ctx context.Context, id string) (*domain.SolverRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *runStoreStub) List(ctx context.Context, status string, limit, offset int) ([]domain.SolverRun, error) {
	var out []domain.SolverRun
	for _, r := range s.runs {
		if status != "" && string(r.Status) != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

type metricsRecorderStub struct {
	outcomes []string
}

func (m *metricsRecorderStub) ObserveSolverRun(outcome string, duration time.Duration, generations int) {
	m.outcomes = append(m.outcomes, outcome)
}

func trivialSolveRequest() dto.SolveRequest {
	return dto.SolveRequest{
		Courses:   []dto.CourseInput{{ID: "c1", Type: "PR", Semester: 1, Duration: 1}},
		Teachers:  []dto.TeacherInput{{ID: "t1", Name: "Teacher One", CoursesHandled: []string{"c1"}}},
		Rooms:     []dto.RoomInput{{ID: "r1", Kind: "classroom"}},
		TimeSlots: []dto.TimeSlotInput{{ID: "mon-1", Day: "MON", SlotIndex: 0}},
		Groups:    []dto.GroupInput{{ID: "g1", Semester: 1, Courses: []string{"c1"}}},
		Options:   dto.SolverOptionsInput{PopulationSize: 2, Generations: 1},
	}
}

func TestScheduleRunServiceSolveSyncSucceeds(t *testing.T) {
	store := newRunStoreStub()
	metrics := &metricsRecorderStub{}
	svc := NewScheduleRunService(store, nil, time.Minute, nil, zap.NewNop(), metrics, solver.DefaultOptions())

	resp, err := svc.Solve(context.Background(), trivialSolveRequest())
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunSucceeded), resp.Status)
	assert.NotEmpty(t, resp.Schedule)
	assert.Contains(t, metrics.outcomes, "succeeded")
}

func TestScheduleRunServiceSolveRejectsInvalidRequest(t *testing.T) {
	store := newRunStoreStub()
	metrics := &metricsRecorderStub{}
	svc := NewScheduleRunService(store, nil, time.Minute, nil, zap.NewNop(), metrics, solver.DefaultOptions())

	req := trivialSolveRequest()
	req.Courses = nil

	_, err := svc.Solve(context.Background(), req)
	require.Error(t, err)
}

func TestScheduleRunServiceSolveMarksInfeasible(t *testing.T) {
	store := newRunStoreStub()
	metrics := &metricsRecorderStub{}
	svc := NewScheduleRunService(store, nil, time.Minute, nil, zap.NewNop(), metrics, solver.DefaultOptions())

	req := trivialSolveRequest()
	// No teacher can teach c2, so the feasibility stage must fail.
	req.Courses = append(req.Courses, dto.CourseInput{ID: "c2", Type: "PR", Semester: 1, Duration: 1})
	req.Groups[0].Courses = append(req.Groups[0].Courses, "c2")

	resp, err := svc.Solve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RunInfeasible), resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "infeasible", resp.Error.Kind)
	assert.Contains(t, metrics.outcomes, string(domain.RunInfeasible))
}

func TestScheduleRunServiceGetRunNotFound(t *testing.T) {
	store := newRunStoreStub()
	metrics := &metricsRecorderStub{}
	svc := NewScheduleRunService(store, nil, time.Minute, nil, zap.NewNop(), metrics, solver.DefaultOptions())

	_, err := svc.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound, err)
}

func TestScheduleRunServiceListRunsFiltersByStatus(t *testing.T) {
	store := newRunStoreStub()
	metrics := &metricsRecorderStub{}
	svc := NewScheduleRunService(store, nil, time.Minute, nil, zap.NewNop(), metrics, solver.DefaultOptions())

	_, err := svc.Solve(context.Background(), trivialSolveRequest())
	require.NoError(t, err)

	runs, err := svc.ListRuns(context.Background(), dto.RunListQuery{Status: string(domain.RunSucceeded), Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = svc.ListRuns(context.Background(), dto.RunListQuery{Status: string(domain.RunFailed), Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
