// Package solver implements the two-stage timetable solver: a
// feasibility stage that encodes the problem as a boolean-placement CSP
// and searches for any conflict-free schedule, and an evolutionary stage
// that improves the soft-quality score of that schedule. Solve is the
// sole entry point; the other exported names are its options, result,
// metrics and error types.
package solver

import (
	"math/rand"
	"sort"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// Result is the output of a successful Solve call.
type Result struct {
	Schedule     domain.Schedule
	Metrics      Metrics
	BestFitness  float64
	FitnessTrace []float64 // best-so-far fitness per generation, non-decreasing
}

// Solve runs the full pipeline: expander -> enumerator -> feasibility
// solver -> evolutionary optimizer -> materializer -> metrics. The
// feasibility solver is a mandatory gate: if it cannot find a
// conflict-free schedule within its time budget, Solve returns an
// *InfeasibilityError and the evolutionary stage never runs.
func Solve(courses []domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot, groups []domain.Group, options ...Options) (*Result, error) {
	opts := Options{}
	if len(options) > 0 {
		opts = options[0]
	}
	opts = opts.withDefaults()

	courseByID := make(map[string]domain.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	sessions := expandSessions(groups, courseByID)

	enum, err := enumerate(sessions, courseByID, teachers, rooms, timeslots)
	if err != nil {
		return nil, err
	}

	search := newFeasibilitySearch(enum, opts.FeasibilityTimeout)
	chosen, err := search.run()
	if err != nil {
		return nil, err
	}
	assignments := assignmentsFromChoice(enum, chosen)

	canonical := buildCanonicalOrder(sessions, courseByID, teachers, rooms, timeslots)
	seedGenome := encodeGenome(canonical, assignments)

	fi := &fitnessInputs{
		order:      canonical,
		sessions:   sessions,
		courseByID: courseByID,
		teachers:   teachers,
		timeslots:  timeslots,
		days:       distinctDays(timeslots),
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bestGenes, bestFitness, trace := evolve(seedGenome, fi, opts, rng)

	decoded := decodeGenome(canonical, bestGenes, sessions, courseByID)

	schedule, err := materializeDecoded(decoded, courseByID, teachers, rooms, timeslots)
	if err != nil {
		return nil, err
	}

	metrics := computeMetrics(sessions, courseByID, decoded)

	return &Result{
		Schedule:     schedule,
		Metrics:      metrics,
		BestFitness:  bestFitness,
		FitnessTrace: trace,
	}, nil
}

func distinctDays(timeslots []domain.TimeSlot) []string {
	seen := make(map[string]struct{})
	var days []string
	for _, ts := range timeslots {
		if _, ok := seen[ts.Day]; !ok {
			seen[ts.Day] = struct{}{}
			days = append(days, ts.Day)
		}
	}
	sort.Strings(days)
	return days
}
