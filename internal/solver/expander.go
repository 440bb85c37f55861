package solver

import "github.com/sma-timetable/scheduler-core/internal/domain"

// expandSessions turns each (group, course) pair into frequency(course.type)
// independent SessionRequirements, numbered 1..frequency, preserving the
// group's course order and then instance order.
func expandSessions(groups []domain.Group, courseByID map[string]domain.Course) []domain.SessionRequirement {
	var sessions []domain.SessionRequirement
	for _, g := range groups {
		for _, courseID := range g.Courses {
			course, ok := courseByID[courseID]
			if !ok {
				continue
			}
			freq := course.Type.Frequency()
			for instance := 1; instance <= freq; instance++ {
				sessions = append(sessions, domain.SessionRequirement{
					GroupID:  g.ID,
					CourseID: courseID,
					Instance: instance,
				})
			}
		}
	}
	return sessions
}
