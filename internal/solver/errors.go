package solver

import "fmt"

// InfeasibilityReason enumerates why the feasibility stage could not
// produce a schedule. All reasons are terminal.
type InfeasibilityReason string

const (
	NoTeacherForCourse     InfeasibilityReason = "NO_TEACHER_FOR_COURSE"
	NoRoomForType          InfeasibilityReason = "NO_ROOM_FOR_TYPE"
	NoConsecutiveSlots     InfeasibilityReason = "NO_CONSECUTIVE_SLOTS"
	SolverProvedInfeasible InfeasibilityReason = "SOLVER_PROVED_INFEASIBLE"
	SolverTimeout          InfeasibilityReason = "SOLVER_TIMEOUT"
)

// InfeasibilityError reports that no conflict-free schedule could be
// produced. Detail carries the offending course/type id when applicable.
type InfeasibilityError struct {
	Reason InfeasibilityReason
	Detail string
}

func (e *InfeasibilityError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("infeasible: %s", e.Reason)
	}
	return fmt.Sprintf("infeasible: %s (%s)", e.Reason, e.Detail)
}

func infeasible(reason InfeasibilityReason, detail string) error {
	return &InfeasibilityError{Reason: reason, Detail: detail}
}

// InternalError wraps a solver engine or bookkeeping failure that is not
// a modeling infeasibility.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("internal: %s", e.Message)
}

func (e *InternalError) Unwrap() error { return e.Err }

func internalf(err error, format string, args ...interface{}) error {
	return &InternalError{Message: fmt.Sprintf(format, args...), Err: err}
}
