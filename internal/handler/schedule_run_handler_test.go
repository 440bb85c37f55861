package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sma-timetable/scheduler-core/internal/dto"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
)

type stubScheduleRunner struct {
	solveResp *dto.SolveResponse
	solveErr  error
	getResp   *dto.SolveResponse
	getErr    error
	listResp  []dto.RunSummaryOutput
	listErr   error
}

func (s stubScheduleRunner) Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error) {
	return s.solveResp, s.solveErr
}

func (s stubScheduleRunner) GetRun(ctx context.Context, id string) (*dto.SolveResponse, error) {
	return s.getResp, s.getErr
}

func (s stubScheduleRunner) ListRuns(ctx context.Context, query dto.RunListQuery) ([]dto.RunSummaryOutput, error) {
	return s.listResp, s.listErr
}

func validSolveBody() []byte {
	req := dto.SolveRequest{
		Courses:   []dto.CourseInput{{ID: "c1", Type: "PR", Semester: 1, Duration: 1}},
		Teachers:  []dto.TeacherInput{{ID: "t1", Name: "Teacher One", CoursesHandled: []string{"c1"}}},
		Rooms:     []dto.RoomInput{{ID: "r1", Kind: "classroom"}},
		TimeSlots: []dto.TimeSlotInput{{ID: "mon-1", Day: "MON", SlotIndex: 0}},
		Groups:    []dto.GroupInput{{ID: "g1", Semester: 1, Courses: []string{"c1"}}},
	}
	body, _ := json.Marshal(req)
	return body
}

func TestScheduleRunHandlerSolveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{
		solveResp: &dto.SolveResponse{RunID: "run-1", Status: "SUCCEEDED", CreatedAt: time.Now()},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/solve", bytes.NewReader(validSolveBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Solve(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestScheduleRunHandlerSolveAsyncReturnsAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{
		solveResp: &dto.SolveResponse{RunID: "run-1", Status: "PENDING", CreatedAt: time.Now()},
	})

	var body map[string]interface{}
	_ = json.Unmarshal(validSolveBody(), &body)
	body["async"] = true
	asyncBody, _ := json.Marshal(body)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/solve", bytes.NewReader(asyncBody))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Solve(c)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d, body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestScheduleRunHandlerSolveInfeasibleMapsTo422(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{
		solveResp: &dto.SolveResponse{
			RunID:  "run-1",
			Status: "INFEASIBLE",
			Error:  &dto.RunErrorOutput{Kind: "infeasible", Reason: "NO_TEACHER_FOR_COURSE"},
		},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/solve", bytes.NewReader(validSolveBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Solve(c)

	if recorder.Code != appErrors.ErrInfeasible.Status {
		t.Fatalf("unexpected status: %d, body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestScheduleRunHandlerSolveRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules/solve", bytes.NewReader([]byte("not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Solve(c)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestScheduleRunHandlerGetRunNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{getErr: appErrors.ErrNotFound})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/runs/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetRun(c)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestScheduleRunHandlerListRunsNormalizesPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleRunHandler(stubScheduleRunner{
		listResp: []dto.RunSummaryOutput{{RunID: "run-1", Status: "SUCCEEDED"}},
	})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/runs?page=0&size=0", nil)

	handler.ListRuns(c)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", recorder.Code, recorder.Body.String())
	}
}
