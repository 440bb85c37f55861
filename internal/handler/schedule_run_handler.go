package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sma-timetable/scheduler-core/internal/dto"
	appErrors "github.com/sma-timetable/scheduler-core/pkg/errors"
	"github.com/sma-timetable/scheduler-core/pkg/response"
)

type scheduleRunner interface {
	Solve(ctx context.Context, req dto.SolveRequest) (*dto.SolveResponse, error)
	GetRun(ctx context.Context, id string) (*dto.SolveResponse, error)
	ListRuns(ctx context.Context, query dto.RunListQuery) ([]dto.RunSummaryOutput, error)
}

// ScheduleRunHandler exposes the solver run endpoints.
type ScheduleRunHandler struct {
	service scheduleRunner
}

// NewScheduleRunHandler constructs the handler.
func NewScheduleRunHandler(svc scheduleRunner) *ScheduleRunHandler {
	return &ScheduleRunHandler{service: svc}
}

// Solve godoc
// @Summary Solve a timetable for the given courses/teachers/rooms/timeslots/groups
// @Description Runs the feasibility search and evolutionary optimizer. Pass async=true on the body to enqueue and poll via GET /schedules/runs/{id}.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest true "Solve request"
// @Success 200 {object} response.Envelope
// @Success 422 {object} response.Envelope "no feasible schedule exists"
// @Router /schedules/solve [post]
func (h *ScheduleRunHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}

	result, err := h.service.Solve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if req.Async {
		status = http.StatusAccepted
	} else if result.Error != nil && result.Error.Kind == "infeasible" {
		status = appErrors.ErrInfeasible.Status
	}
	response.JSON(c, status, result, nil)
}

// GetRun godoc
// @Summary Fetch a solver run by id
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/runs/{id} [get]
func (h *ScheduleRunHandler) GetRun(c *gin.Context) {
	result, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListRuns godoc
// @Summary List solver runs
// @Tags Scheduler
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules/runs [get]
func (h *ScheduleRunHandler) ListRuns(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	page, size := normalizePage(query.Page), normalizePageSize(query.Size)
	query.Page, query.Size = page, size

	result, err := h.service.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, &response.Pagination{Page: page, PageSize: size, TotalCount: len(result)})
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(size int) int {
	if size < 1 || size > 100 {
		return 20
	}
	return size
}
