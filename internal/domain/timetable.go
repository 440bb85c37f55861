// Package domain holds the entity tables the solver consumes and the
// schedule it produces. Entities are immutable once a solve starts.
package domain

import "strconv"

// CourseType drives weekly session frequency and room-kind matching.
type CourseType string

const (
	CourseTH      CourseType = "TH"
	CoursePR      CourseType = "PR"
	CourseLAB     CourseType = "LAB"
	CourseProject CourseType = "PROJECT"
)

// Frequency returns the number of weekly sessions a course of this type
// requires: TH=3, LAB=2, PR=1, PROJECT=1.
func (t CourseType) Frequency() int {
	switch t {
	case CourseTH:
		return 3
	case CourseLAB:
		return 2
	case CoursePR:
		return 1
	case CourseProject:
		return 1
	default:
		return 0
	}
}

// Course is a subject offered to groups.
type Course struct {
	ID       string
	Type     CourseType
	Semester int
	Duration int // contiguous slots per session
}

// Teacher can teach a fixed set of courses and may be unavailable during
// some labeled periods.
type Teacher struct {
	ID             string
	Name           string
	CoursesHandled map[string]struct{}
	Availability   map[string]struct{} // empty = always available
}

// CanTeach reports whether the teacher is qualified for courseID.
func (t Teacher) CanTeach(courseID string) bool {
	_, ok := t.CoursesHandled[courseID]
	return ok
}

// Room hosts sessions; Kind is free-form but lowercased, with the
// substrings "lab", "project", "classroom" driving matching.
type Room struct {
	ID       string
	Capacity int
	Kind     string
}

// TimeSlot is one weekly slot. SlotIndex is the global insertion order
// across all days and is the sole canonical ordering used to determine
// consecutiveness.
type TimeSlot struct {
	ID        string
	Day       string
	Label     string
	SlotIndex int
}

// Group is a cohort of students following an ordered sequence of courses.
type Group struct {
	ID       string
	Semester int
	Courses  []string
}

// SessionRequirement is one required occurrence of a course for a group.
// It is derived by the expander and never supplied as input.
type SessionRequirement struct {
	GroupID  string
	CourseID string
	Instance int // 1..frequency
}

// Key identifies the session independent of its position in any slice.
func (s SessionRequirement) Key() string {
	return s.GroupID + "|" + s.CourseID + "|" + strconv.Itoa(s.Instance)
}

// Placement is a candidate (start-slot, teacher, room) triple for a
// session, legal iff it satisfies the enumerator's rules.
type Placement struct {
	Session   int // index into the session slice this placement belongs to
	StartSlot int // index into the timeslot slice
	Teacher   int // index into the teacher slice
	Room      int // index into the room slice
}

// Assignment binds a session to its chosen placement and the slots it
// consumes.
type Assignment struct {
	Session       SessionRequirement
	Placement     Placement
	OccupiedSlots []int // timeslot indices, ascending
}

// ScheduleEntry is one leaf of the output Schedule.
type ScheduleEntry struct {
	TimeSlot string
	Teacher  string
	Room     string
	CourseID string
}

// Schedule is the materialized solver output: group -> session-part-key -> entry.
type Schedule map[string]map[string]ScheduleEntry
