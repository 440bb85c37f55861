package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sma-timetable/scheduler-core/internal/domain"
	"github.com/sma-timetable/scheduler-core/internal/dto"
	"github.com/sma-timetable/scheduler-core/internal/solver"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
	"github.com/sma-timetable/scheduler-core/pkg/jobs"
)

type solverRunStore interface {
	Create(ctx context.Context, run *domain.SolverRun) error
	Complete(ctx context.Context, id string, schedule domain.Schedule, metrics domain.RunMetrics, completedAt time.Time) error
	Fail(ctx context.Context, id string, status domain.RunStatus, kind, reason, detail, message string, completedAt time.Time) error
	FindByID(ctx context.Context, id string) (*domain.SolverRun, error)
	List(ctx context.Context, status string, limit, offset int) ([]domain.SolverRun, error)
}

type runMetricsRecorder interface {
	ObserveSolverRun(outcome string, duration time.Duration, generations int)
}

// ScheduleRunService validates solve requests, runs the solver (inline or
// via the async job queue), caches results by input fingerprint, persists
// run audit records, and emits metrics: the ambient concerns wrapping
// solver.Solve.
type ScheduleRunService struct {
	runs      solverRunStore
	cache     *redis.Client
	cacheTTL  time.Duration
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	metrics   runMetricsRecorder
	defaults  solver.Options
}

// NewScheduleRunService wires the service's dependencies.
func NewScheduleRunService(runs solverRunStore, cache *redis.Client, cacheTTL time.Duration, queue *jobs.Queue, logger *zap.Logger, metrics runMetricsRecorder, defaults solver.Options) *ScheduleRunService {
	return &ScheduleRunService{
		runs:      runs,
		cache:     cache,
		cacheTTL:  cacheTTL,
		queue:     queue,
		validator: validator.New(),
		logger:    logger,
		metrics:   metrics,
		defaults:  defaults,
	}
}

// Solve validates the request, checks the result cache, and either runs
// the solver inline (sync) or enqueues it on the job queue (async). A sync
// call returns the completed run; an async call returns the run's initial
// PENDING state.
func (s *ScheduleRunService) Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve request")
	}

	courses, teachers, rooms, timeslots, groups := toDomain(req)
	opts := toOptions(req.Options, s.defaults)
	fingerprint := fingerprintInput(courses, teachers, rooms, timeslots, groups, opts)

	if cached, ok := s.lookupCache(ctx, fingerprint); ok {
		return cached, nil
	}

	run := &domain.SolverRun{
		ID:               uuid.NewString(),
		InputFingerprint: fingerprint,
		Status:           domain.RunPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create run record")
	}

	if req.Async {
		if err := s.queue.Enqueue(jobs.Job{
			ID:   run.ID,
			Type: "solve",
			Payload: solveJobPayload{
				courses: courses, teachers: teachers, rooms: rooms,
				timeslots: timeslots, groups: groups, options: opts, fingerprint: fingerprint,
			},
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve job")
		}
		return runToResponse(run), nil
	}

	s.execute(ctx, run, courses, teachers, rooms, timeslots, groups, opts)
	completed, err := s.runs.FindByID(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	resp := runToResponse(completed)
	s.storeCache(ctx, fingerprint, resp)
	return resp, nil
}

// solveJobPayload is what Enqueue/JobHandler pass through pkg/jobs.Queue.
type solveJobPayload struct {
	courses     []domain.Course
	teachers    []domain.Teacher
	rooms       []domain.Room
	timeslots   []domain.TimeSlot
	groups      []domain.Group
	options     solver.Options
	fingerprint string
}

// JobHandler returns the jobs.Handler this service registers with its queue
// for asynchronous runs (job.ID is the run ID created by Solve).
func (s *ScheduleRunService) JobHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(solveJobPayload)
		if !ok {
			return fmt.Errorf("solve job %s: unexpected payload type %T", job.ID, job.Payload)
		}
		run, err := s.runs.FindByID(ctx, job.ID)
		if err != nil {
			return err
		}
		s.execute(ctx, run, payload.courses, payload.teachers, payload.rooms, payload.timeslots, payload.groups, payload.options)
		return nil
	}
}

func (s *ScheduleRunService) execute(ctx context.Context, run *domain.SolverRun, courses []domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot, groups []domain.Group, opts solver.Options) {
	start := time.Now()
	result, err := solver.Solve(courses, teachers, rooms, timeslots, groups, opts)
	elapsed := time.Since(start)
	completedAt := time.Now().UTC()

	if err != nil {
		kind, reason, detail, message, status := classifySolverError(err)
		s.metrics.ObserveSolverRun(string(status), elapsed, 0)
		if ferr := s.runs.Fail(ctx, run.ID, status, kind, reason, detail, message, completedAt); ferr != nil {
			s.logger.Error("failed to persist run failure", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		s.logger.Info("solver run finished", zap.String("run_id", run.ID), zap.String("status", string(status)), zap.Duration("duration", elapsed))
		return
	}

	metrics := domain.RunMetrics{
		Accuracy:  result.Metrics.Accuracy,
		Precision: result.Metrics.Precision,
		Recall:    result.Metrics.Recall,
		F1Score:   result.Metrics.F1Score,
	}
	s.metrics.ObserveSolverRun("succeeded", elapsed, len(result.FitnessTrace)-1)
	if cerr := s.runs.Complete(ctx, run.ID, result.Schedule, metrics, completedAt); cerr != nil {
		s.logger.Error("failed to persist run result", zap.String("run_id", run.ID), zap.Error(cerr))
	}
	s.logger.Info("solver run finished", zap.String("run_id", run.ID), zap.String("status", "succeeded"), zap.Duration("duration", elapsed))
}

// GetRun fetches a single run by id.
func (s *ScheduleRunService) GetRun(ctx context.Context, id string) (*dto.SolveResponse, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return runToResponse(run), nil
}

// ListRuns fetches a page of run summaries.
func (s *ScheduleRunService) ListRuns(ctx context.Context, query dto.RunListQuery) ([]dto.RunSummaryOutput, error) {
	page, size := query.Page, query.Size
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	runs, err := s.runs.List(ctx, query.Status, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RunSummaryOutput, len(runs))
	for i, r := range runs {
		out[i] = dto.RunSummaryOutput{
			RunID:       r.ID,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt,
			CompletedAt: r.CompletedAt,
		}
	}
	return out, nil
}

func classifySolverError(err error) (kind, reason, detail, message string, status domain.RunStatus) {
	switch e := err.(type) {
	case *solver.InfeasibilityError:
		return "infeasible", string(e.Reason), e.Detail, e.Error(), domain.RunInfeasible
	case *solver.InternalError:
		return "internal", "", "", e.Error(), domain.RunFailed
	default:
		return "internal", "", "", err.Error(), domain.RunFailed
	}
}

func runToResponse(run *domain.SolverRun) *dto.SolveResponse {
	resp := &dto.SolveResponse{
		RunID:     run.ID,
		Status:    string(run.Status),
		CreatedAt: run.CreatedAt,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt
	}
	if run.Metrics != nil {
		resp.Metrics = &dto.MetricsOutput{
			Accuracy:  run.Metrics.Accuracy,
			Precision: run.Metrics.Precision,
			Recall:    run.Metrics.Recall,
			F1Score:   run.Metrics.F1Score,
		}
	}
	if run.Schedule != nil {
		resp.Schedule = scheduleToOutput(run.Schedule)
	}
	if run.ErrorKind != "" {
		resp.Error = &dto.RunErrorOutput{
			Kind:    run.ErrorKind,
			Reason:  run.ErrorReason,
			Detail:  run.ErrorDetail,
			Message: run.ErrorMessage,
		}
	}
	return resp
}

func scheduleToOutput(schedule domain.Schedule) map[string]map[string]dto.ScheduleEntryOutput {
	out := make(map[string]map[string]dto.ScheduleEntryOutput, len(schedule))
	for group, entries := range schedule {
		groupOut := make(map[string]dto.ScheduleEntryOutput, len(entries))
		for key, entry := range entries {
			groupOut[key] = dto.ScheduleEntryOutput{
				TimeSlot: entry.TimeSlot,
				Teacher:  entry.Teacher,
				Room:     entry.Room,
				CourseID: entry.CourseID,
			}
		}
		out[group] = groupOut
	}
	return out
}

func toDomain(req dto.SolveRequest) ([]domain.Course, []domain.Teacher, []domain.Room, []domain.TimeSlot, []domain.Group) {
	courses := make([]domain.Course, len(req.Courses))
	for i, c := range req.Courses {
		courses[i] = domain.Course{ID: c.ID, Type: domain.CourseType(c.Type), Semester: c.Semester, Duration: c.Duration}
	}

	teachers := make([]domain.Teacher, len(req.Teachers))
	for i, t := range req.Teachers {
		teachers[i] = domain.Teacher{
			ID:             t.ID,
			Name:           t.Name,
			CoursesHandled: toSet(t.CoursesHandled),
			Availability:   toSet(t.Availability),
		}
	}

	rooms := make([]domain.Room, len(req.Rooms))
	for i, r := range req.Rooms {
		rooms[i] = domain.Room{ID: r.ID, Capacity: r.Capacity, Kind: r.Kind}
	}

	timeslots := make([]domain.TimeSlot, len(req.TimeSlots))
	for i, ts := range req.TimeSlots {
		timeslots[i] = domain.TimeSlot{ID: ts.ID, Day: ts.Day, Label: ts.Label, SlotIndex: ts.SlotIndex}
	}

	groups := make([]domain.Group, len(req.Groups))
	for i, g := range req.Groups {
		groups[i] = domain.Group{ID: g.ID, Semester: g.Semester, Courses: g.Courses}
	}

	return courses, teachers, rooms, timeslots, groups
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func toOptions(in dto.SolverOptionsInput, defaults solver.Options) solver.Options {
	opts := defaults
	if in.FeasibilityTimeoutSec > 0 {
		opts.FeasibilityTimeout = time.Duration(in.FeasibilityTimeoutSec) * time.Second
	}
	if in.PopulationSize > 0 {
		opts.PopulationSize = in.PopulationSize
	}
	if in.Generations > 0 {
		opts.Generations = in.Generations
	}
	if in.CxProb > 0 {
		opts.CxProb = in.CxProb
	}
	if in.MutProb > 0 {
		opts.MutProb = in.MutProb
	}
	if in.Seed != 0 {
		opts.Seed = in.Seed
	}
	return opts
}

// fingerprintInput hashes the canonicalized input tables plus options, so
// identical requests hit the cache deterministically.
func fingerprintInput(courses []domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot, groups []domain.Group, opts solver.Options) string {
	sortedCourses := append([]domain.Course(nil), courses...)
	sort.Slice(sortedCourses, func(i, j int) bool { return sortedCourses[i].ID < sortedCourses[j].ID })
	sortedRooms := append([]domain.Room(nil), rooms...)
	sort.Slice(sortedRooms, func(i, j int) bool { return sortedRooms[i].ID < sortedRooms[j].ID })
	sortedTimeslots := append([]domain.TimeSlot(nil), timeslots...)
	sort.Slice(sortedTimeslots, func(i, j int) bool { return sortedTimeslots[i].SlotIndex < sortedTimeslots[j].SlotIndex })
	sortedGroups := append([]domain.Group(nil), groups...)
	sort.Slice(sortedGroups, func(i, j int) bool { return sortedGroups[i].ID < sortedGroups[j].ID })
	sortedTeachers := append([]domain.Teacher(nil), teachers...)
	sort.Slice(sortedTeachers, func(i, j int) bool { return sortedTeachers[i].ID < sortedTeachers[j].ID })

	payload, _ := json.Marshal(struct {
		Courses   []domain.Course
		Teachers  []domain.Teacher
		Rooms     []domain.Room
		TimeSlots []domain.TimeSlot
		Groups    []domain.Group
		Options   solver.Options
	}{sortedCourses, sortedTeachers, sortedRooms, sortedTimeslots, sortedGroups, opts})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *ScheduleRunService) lookupCache(ctx context.Context, fingerprint string) (*dto.SolveResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(fingerprint)).Result()
	if err != nil {
		return nil, false
	}
	var resp dto.SolveResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (s *ScheduleRunService) storeCache(ctx context.Context, fingerprint string, resp *dto.SolveResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey(fingerprint), payload, s.cacheTTL).Err()
}

func cacheKey(fingerprint string) string {
	return "scheduler:solve:" + fingerprint
}
