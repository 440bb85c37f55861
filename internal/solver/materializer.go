package solver

import (
	"strconv"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// sessionPartKey formats a schedule entry key as
// "<CourseId>_<instance>" when duration=1, "<CourseId>_<instance>_part<k>"
// otherwise.
func sessionPartKey(courseID string, instance, part, duration int) string {
	base := courseID + "_" + strconv.Itoa(instance)
	if duration == 1 {
		return base
	}
	return base + "_part" + strconv.Itoa(part)
}

// materialize converts assignments into the public Schedule shape. Any
// assignment whose OccupiedSlots length disagrees with the course
// duration is internal bookkeeping corruption, not a modeling
// infeasibility, and is reported as such.
func materialize(assignments []domain.Assignment, courseByID map[string]domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot) (domain.Schedule, error) {
	schedule := make(domain.Schedule)

	for _, a := range assignments {
		course, ok := courseByID[a.Session.CourseID]
		if !ok {
			return nil, internalf(nil, "unknown course %q in assignment", a.Session.CourseID)
		}
		if len(a.OccupiedSlots) != course.Duration {
			return nil, internalf(nil, "assignment for %s has %d occupied slots, want %d", a.Session.Key(), len(a.OccupiedSlots), course.Duration)
		}

		groupEntries, ok := schedule[a.Session.GroupID]
		if !ok {
			groupEntries = make(map[string]domain.ScheduleEntry)
			schedule[a.Session.GroupID] = groupEntries
		}

		teacherID := teachers[a.Placement.Teacher].ID
		roomID := rooms[a.Placement.Room].ID

		for part, slot := range a.OccupiedSlots {
			key := sessionPartKey(a.Session.CourseID, a.Session.Instance, part+1, course.Duration)
			groupEntries[key] = domain.ScheduleEntry{
				TimeSlot: timeslots[slot].ID,
				Teacher:  teacherID,
				Room:     roomID,
				CourseID: a.Session.CourseID,
			}
		}
	}

	return schedule, nil
}

// materializeDecoded converts the GA's (possibly partial) decoded
// sessions into a Schedule, silently omitting dropped sessions. The
// optimizer does not repair; the quality metrics are what reflect the
// resulting gaps.
func materializeDecoded(decoded []decodedSession, courseByID map[string]domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot) (domain.Schedule, error) {
	var assignments []domain.Assignment
	for _, d := range decoded {
		if d.dropped {
			continue
		}
		assignments = append(assignments, d.assignment)
	}
	return materialize(assignments, courseByID, teachers, rooms, timeslots)
}
