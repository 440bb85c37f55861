package solver

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

func slot(day string, idx int) domain.TimeSlot {
	return domain.TimeSlot{ID: day + "-" + strconv.Itoa(idx), Day: day, Label: "period", SlotIndex: idx}
}

func teacherFor(id string, courses ...string) domain.Teacher {
	set := make(map[string]struct{})
	for _, c := range courses {
		set[c] = struct{}{}
	}
	return domain.Teacher{ID: id, Name: id, CoursesHandled: set}
}

func TestScenarioS1TrivialFeasible(t *testing.T) {
	courses := []domain.Course{{ID: "C1", Type: domain.CourseTH, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C1")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}}
	timeslots := []domain.TimeSlot{slot("Mon", 0), slot("Tue", 1), slot("Wed", 2)}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C1"}}}

	result, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second, Seed: 7})
	if err != nil {
		t.Fatalf("expected feasible schedule, got error: %v", err)
	}

	if got := len(result.Schedule["g1"]); got != 3 {
		t.Fatalf("expected 3 schedule entries, got %d", got)
	}

	want := Metrics{Accuracy: 1, Precision: 1, Recall: 1, F1Score: 1}
	if result.Metrics != want {
		t.Fatalf("expected perfect metrics, got %+v", result.Metrics)
	}

	days := make(map[string]bool)
	for _, entry := range result.Schedule["g1"] {
		for _, ts := range timeslots {
			if ts.ID == entry.TimeSlot {
				days[ts.Day] = true
			}
		}
	}
	if len(days) != 3 {
		t.Fatalf("expected the 3 sessions on 3 distinct days, got %d distinct days", len(days))
	}
}

func TestScenarioS2MultiSlotLab(t *testing.T) {
	courses := []domain.Course{{ID: "C2", Type: domain.CourseLAB, Duration: 2}}
	teachers := []domain.Teacher{teacherFor("t1", "C2")}
	rooms := []domain.Room{{ID: "lab1", Kind: "lab"}}
	timeslots := []domain.TimeSlot{
		slot("Mon", 0), slot("Mon", 1), slot("Mon", 2),
		slot("Tue", 3), slot("Tue", 4), slot("Tue", 5),
	}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C2"}}}

	result, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second, Seed: 3})
	if err != nil {
		t.Fatalf("expected feasible schedule, got error: %v", err)
	}

	entries := result.Schedule["g1"]
	part1, part2 := 0, 0
	for key := range entries {
		if strings.HasSuffix(key, "_part1") {
			part1++
		}
		if strings.HasSuffix(key, "_part2") {
			part2++
		}
	}
	if part1 != 2 || part2 != 2 {
		t.Fatalf("expected 2 part1 and 2 part2 entries (2 instances), got part1=%d part2=%d", part1, part2)
	}
}

func TestScenarioS3TeacherContentionInfeasible(t *testing.T) {
	courses := []domain.Course{{ID: "C1", Type: domain.CourseTH, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C1")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}}
	timeslots := []domain.TimeSlot{slot("Mon", 0), slot("Tue", 1), slot("Wed", 2)}
	groups := []domain.Group{
		{ID: "g1", Courses: []string{"C1"}},
		{ID: "g2", Courses: []string{"C1"}},
	}

	_, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second})
	if err == nil {
		t.Fatal("expected infeasibility error")
	}
	infeasErr, ok := err.(*InfeasibilityError)
	if !ok {
		t.Fatalf("expected *InfeasibilityError, got %T: %v", err, err)
	}
	if infeasErr.Reason != SolverProvedInfeasible && infeasErr.Reason != SolverTimeout {
		t.Fatalf("unexpected reason: %s", infeasErr.Reason)
	}
}

func TestScenarioS4RoomKindFallback(t *testing.T) {
	courses := []domain.Course{{ID: "C3", Type: domain.CourseProject, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C3")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}, {ID: "r2", Kind: "classroom"}}
	timeslots := []domain.TimeSlot{slot("Mon", 0)}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C3"}}}

	result, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("expected fallback to classroom rooms to succeed, got: %v", err)
	}
	entry, ok := result.Schedule["g1"]["C3_1"]
	if !ok {
		t.Fatal("expected C3_1 entry in schedule")
	}
	if entry.Room != "r1" && entry.Room != "r2" {
		t.Fatalf("expected fallback room, got %q", entry.Room)
	}
}

func TestScenarioS5DaySeparation(t *testing.T) {
	courses := []domain.Course{{ID: "C4", Type: domain.CourseTH, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C4")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}}
	var timeslots []domain.TimeSlot
	idx := 0
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu"} {
		for p := 0; p < 3; p++ {
			timeslots = append(timeslots, slot(day, idx))
			idx++
		}
	}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C4"}}}

	result, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("expected feasible schedule, got: %v", err)
	}

	days := make(map[string]bool)
	for _, entry := range result.Schedule["g1"] {
		for _, ts := range timeslots {
			if ts.ID == entry.TimeSlot {
				days[ts.Day] = true
			}
		}
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 distinct days for 3 instances, got %d", len(days))
	}
}

func TestDeterminismSameSeedSameOutput(t *testing.T) {
	courses := []domain.Course{{ID: "C1", Type: domain.CourseTH, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C1")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}}
	timeslots := []domain.TimeSlot{slot("Mon", 0), slot("Tue", 1), slot("Wed", 2)}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C1"}}}
	opts := Options{FeasibilityTimeout: 2 * time.Second, Seed: 42}

	r1, err := Solve(courses, teachers, rooms, timeslots, groups, opts)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	r2, err := Solve(courses, teachers, rooms, timeslots, groups, opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(r1.Schedule["g1"]) != len(r2.Schedule["g1"]) {
		t.Fatalf("schedule sizes differ across runs with same seed")
	}
	for key, entry := range r1.Schedule["g1"] {
		other, ok := r2.Schedule["g1"][key]
		if !ok || other != entry {
			t.Fatalf("schedule entry %q differs across runs: %+v vs %+v", key, entry, other)
		}
	}
	if r1.BestFitness != r2.BestFitness {
		t.Fatalf("best fitness differs across runs: %v vs %v", r1.BestFitness, r2.BestFitness)
	}
}

func TestFitnessTraceNonDecreasing(t *testing.T) {
	courses := []domain.Course{{ID: "C1", Type: domain.CourseTH, Duration: 1}}
	teachers := []domain.Teacher{teacherFor("t1", "C1")}
	rooms := []domain.Room{{ID: "r1", Kind: "classroom"}}
	timeslots := []domain.TimeSlot{slot("Mon", 0), slot("Tue", 1), slot("Wed", 2)}
	groups := []domain.Group{{ID: "g1", Courses: []string{"C1"}}}

	result, err := Solve(courses, teachers, rooms, timeslots, groups, Options{FeasibilityTimeout: 2 * time.Second, Seed: 11})
	if err != nil {
		t.Fatalf("expected feasible schedule: %v", err)
	}

	for i := 1; i < len(result.FitnessTrace); i++ {
		if result.FitnessTrace[i] < result.FitnessTrace[i-1] {
			t.Fatalf("fitness trace decreased at generation %d: %v", i, result.FitnessTrace)
		}
	}
}
