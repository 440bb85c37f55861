// Package dto holds the HTTP request/response shapes for the scheduler
// API, kept separate from the domain types the solver itself operates on.
package dto

import "time"

// CourseInput mirrors domain.Course for JSON request bodies.
type CourseInput struct {
	ID       string `json:"id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=TH PR LAB PROJECT"`
	Semester int    `json:"semester" validate:"required,min=1"`
	Duration int    `json:"duration" validate:"required,min=1"`
}

// TeacherInput mirrors domain.Teacher.
type TeacherInput struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	CoursesHandled []string `json:"coursesHandled" validate:"required,min=1,dive,required"`
	Availability   []string `json:"availability"`
}

// RoomInput mirrors domain.Room.
type RoomInput struct {
	ID       string `json:"id" validate:"required"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1"`
	Kind     string `json:"kind" validate:"required"`
}

// TimeSlotInput mirrors domain.TimeSlot.
type TimeSlotInput struct {
	ID        string `json:"id" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Label     string `json:"label"`
	SlotIndex int    `json:"slotIndex" validate:"min=0"`
}

// GroupInput mirrors domain.Group.
type GroupInput struct {
	ID       string   `json:"id" validate:"required"`
	Semester int      `json:"semester" validate:"required,min=1"`
	Courses  []string `json:"courses" validate:"required,min=1,dive,required"`
}

// SolverOptionsInput mirrors solver.Options; every field is optional and
// falls back to the service's configured default options when omitted or
// zero.
type SolverOptionsInput struct {
	FeasibilityTimeoutSec int     `json:"feasibilityTimeoutSec" validate:"omitempty,min=1"`
	PopulationSize        int     `json:"populationSize" validate:"omitempty,min=2"`
	Generations           int     `json:"generations" validate:"omitempty,min=0"`
	CxProb                float64 `json:"cxProb" validate:"omitempty,min=0,max=1"`
	MutProb               float64 `json:"mutProb" validate:"omitempty,min=0,max=1"`
	Seed                  int64   `json:"seed"`
}

// SolveRequest is the body of POST /api/v1/schedules/solve.
type SolveRequest struct {
	Courses   []CourseInput      `json:"courses" validate:"required,min=1,dive"`
	Teachers  []TeacherInput     `json:"teachers" validate:"required,min=1,dive"`
	Rooms     []RoomInput        `json:"rooms" validate:"required,min=1,dive"`
	TimeSlots []TimeSlotInput    `json:"timeSlots" validate:"required,min=1,dive"`
	Groups    []GroupInput       `json:"groups" validate:"required,min=1,dive"`
	Options   SolverOptionsInput `json:"options"`
	Async     bool               `json:"async"`
}

// ScheduleEntryOutput mirrors domain.ScheduleEntry.
type ScheduleEntryOutput struct {
	TimeSlot string `json:"timeSlot"`
	Teacher  string `json:"teacher"`
	Room     string `json:"room"`
	CourseID string `json:"courseId"`
}

// MetricsOutput mirrors solver.Metrics.
type MetricsOutput struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

// RunErrorOutput reports why a run did not succeed.
type RunErrorOutput struct {
	Kind    string `json:"kind"` // "infeasible" | "internal"
	Reason  string `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// SolveResponse is the body returned by a synchronous solve, or the final
// state of a GET /runs/:id poll once the run has finished.
type SolveResponse struct {
	RunID        string                                     `json:"runId"`
	Status       string                                     `json:"status"`
	Schedule     map[string]map[string]ScheduleEntryOutput `json:"schedule,omitempty"`
	Metrics      *MetricsOutput                             `json:"metrics,omitempty"`
	BestFitness  *float64                                   `json:"bestFitness,omitempty"`
	FitnessTrace []float64                                  `json:"fitnessTrace,omitempty"`
	Error        *RunErrorOutput                            `json:"error,omitempty"`
	CreatedAt    time.Time                                  `json:"createdAt"`
	CompletedAt  *time.Time                                 `json:"completedAt,omitempty"`
}

// RunSummaryOutput is the shape returned in the GET /runs list.
type RunSummaryOutput struct {
	RunID       string     `json:"runId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RunListQuery filters the GET /runs listing.
type RunListQuery struct {
	Status string `form:"status" json:"status"`
	Page   int    `form:"page" json:"page"`
	Size   int    `form:"size" json:"size"`
}
