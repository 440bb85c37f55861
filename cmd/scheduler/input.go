package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// inputFile is the on-disk shape a `scheduler solve` invocation reads:
// the five entity tables the solver needs, with teacher availability and
// course assignments given as plain string arrays (converted to sets on
// load, same as the service layer does for HTTP request DTOs).
type inputFile struct {
	Courses   []courseInput   `json:"courses"`
	Teachers  []teacherInput  `json:"teachers"`
	Rooms     []roomInput     `json:"rooms"`
	TimeSlots []timeSlotInput `json:"timeSlots"`
	Groups    []groupInput    `json:"groups"`
}

type courseInput struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Semester int    `json:"semester"`
	Duration int    `json:"duration"`
}

type teacherInput struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CoursesHandled []string `json:"coursesHandled"`
	Availability   []string `json:"availability"`
}

type roomInput struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	Kind     string `json:"kind"`
}

type timeSlotInput struct {
	ID        string `json:"id"`
	Day       string `json:"day"`
	Label     string `json:"label"`
	SlotIndex int    `json:"slotIndex"`
}

type groupInput struct {
	ID       string   `json:"id"`
	Semester int      `json:"semester"`
	Courses  []string `json:"courses"`
}

// loadInput reads and parses the entity tables from path. Any I/O or JSON
// error is a validation failure (exit code 2), not an internal one.
func loadInput(path string) (*inputFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var in inputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(in.Courses) == 0 {
		return nil, fmt.Errorf("input has no courses")
	}
	if len(in.Teachers) == 0 {
		return nil, fmt.Errorf("input has no teachers")
	}
	if len(in.Rooms) == 0 {
		return nil, fmt.Errorf("input has no rooms")
	}
	if len(in.TimeSlots) == 0 {
		return nil, fmt.Errorf("input has no time slots")
	}
	if len(in.Groups) == 0 {
		return nil, fmt.Errorf("input has no groups")
	}

	return &in, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (in *inputFile) toDomain() ([]domain.Course, []domain.Teacher, []domain.Room, []domain.TimeSlot, []domain.Group) {
	courses := make([]domain.Course, len(in.Courses))
	for i, c := range in.Courses {
		courses[i] = domain.Course{ID: c.ID, Type: domain.CourseType(c.Type), Semester: c.Semester, Duration: c.Duration}
	}

	teachers := make([]domain.Teacher, len(in.Teachers))
	for i, t := range in.Teachers {
		teachers[i] = domain.Teacher{
			ID:             t.ID,
			Name:           t.Name,
			CoursesHandled: toSet(t.CoursesHandled),
			Availability:   toSet(t.Availability),
		}
	}

	rooms := make([]domain.Room, len(in.Rooms))
	for i, r := range in.Rooms {
		rooms[i] = domain.Room{ID: r.ID, Capacity: r.Capacity, Kind: r.Kind}
	}

	timeslots := make([]domain.TimeSlot, len(in.TimeSlots))
	for i, ts := range in.TimeSlots {
		timeslots[i] = domain.TimeSlot{ID: ts.ID, Day: ts.Day, Label: ts.Label, SlotIndex: ts.SlotIndex}
	}

	groups := make([]domain.Group, len(in.Groups))
	for i, g := range in.Groups {
		groups[i] = domain.Group{ID: g.ID, Semester: g.Semester, Courses: g.Courses}
	}

	return courses, teachers, rooms, timeslots, groups
}
