package solver

import (
	"math"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// Metrics holds the schedule quality measures, each in [0,1].
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

type pairKey struct {
	group  string
	course string
}

// computeMetrics scores accuracy, precision, recall, and F1 over the
// (possibly partial) decoded schedule. `sessions` and `decoded` are
// index-aligned; decoded[i].dropped
// means that required instance never made it into the schedule.
func computeMetrics(sessions []domain.SessionRequirement, courseByID map[string]domain.Course, decoded []decodedSession) Metrics {
	required := len(sessions)

	scheduledByPair := make(map[pairKey]int)
	freqByPair := make(map[pairKey]int)

	groupSlotCount := make(map[string]int)
	teacherSlotCount := make(map[string]int)
	roomSlotCount := make(map[string]int)

	scheduled := 0
	for i, d := range decoded {
		sess := sessions[i]
		pk := pairKey{sess.GroupID, sess.CourseID}
		if _, ok := freqByPair[pk]; !ok {
			freqByPair[pk] = courseByID[sess.CourseID].Type.Frequency()
		}
		if d.dropped {
			continue
		}
		scheduled++
		scheduledByPair[pk]++

		for _, slot := range d.assignment.OccupiedSlots {
			groupSlotCount[groupSlotKey(sess.GroupID, slot)]++
			teacherSlotCount[teacherSlotKey(d.assignment.Placement.Teacher, slot)]++
			roomSlotCount[roomSlotKey(d.assignment.Placement.Room, slot)]++
		}
	}

	correctlyScheduled := 0
	for pk, freq := range freqByPair {
		if scheduledByPair[pk] == freq {
			correctlyScheduled += scheduledByPair[pk]
		}
	}

	conflictFree := 0
	for i, d := range decoded {
		if d.dropped {
			continue
		}
		sess := sessions[i]
		ok := true
		for _, slot := range d.assignment.OccupiedSlots {
			if groupSlotCount[groupSlotKey(sess.GroupID, slot)] > 1 {
				ok = false
				break
			}
			if teacherSlotCount[teacherSlotKey(d.assignment.Placement.Teacher, slot)] > 1 {
				ok = false
				break
			}
			if roomSlotCount[roomSlotKey(d.assignment.Placement.Room, slot)] > 1 {
				ok = false
				break
			}
		}
		if ok {
			conflictFree++
		}
	}

	accuracy := ratio(float64(conflictFree), float64(scheduled))
	precision := ratio(float64(correctlyScheduled), float64(scheduled))
	recall := ratio(float64(correctlyScheduled), float64(required))
	f1 := harmonicMean(precision, recall)

	return Metrics{
		Accuracy:  round2(accuracy),
		Precision: round2(precision),
		Recall:    round2(recall),
		F1Score:   round2(f1),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func harmonicMean(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
