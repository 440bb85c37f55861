package solver

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// placement augments domain.Placement with the bookkeeping the feasibility
// and evolutionary stages need but that has no place in the domain type:
// which slots it occupies and which (group, course, instance, day) it
// belongs to.
type placement struct {
	domain.Placement
	GroupID       string
	CourseID      string
	Instance      int
	Day           string
	OccupiedSlots []int
}

// enumeration is the output of the candidate enumerator: every legal
// placement for every session, plus the inverted indices named in the
// design notes.
type enumeration struct {
	sessions   []domain.SessionRequirement
	placements []placement

	bySession     [][]int            // session index -> placement indices
	byGroupSlot   map[string][]int   // "group|slot" -> placement indices
	byTeacherSlot map[string][]int   // "teacherIdx|slot" -> placement indices
	byRoomSlot    map[string][]int   // "roomIdx|slot" -> placement indices
	byPairDay     map[string][]int   // "group|course|day" -> placement indices (constraint E)
}

func groupSlotKey(groupID string, slot int) string {
	return groupID + "|" + strconv.Itoa(slot)
}

func teacherSlotKey(teacherIdx, slot int) string {
	return strconv.Itoa(teacherIdx) + "|" + strconv.Itoa(slot)
}

func roomSlotKey(roomIdx, slot int) string {
	return strconv.Itoa(roomIdx) + "|" + strconv.Itoa(slot)
}

func pairDayKey(groupID, courseID, day string) string {
	return groupID + "|" + courseID + "|" + day
}

// dayOrder groups timeslot indices by day, each sorted ascending by
// SlotIndex. This is the canonical ordering used throughout the solver.
func dayOrder(timeslots []domain.TimeSlot) map[string][]int {
	byDay := make(map[string][]int)
	for i := range timeslots {
		byDay[timeslots[i].Day] = append(byDay[timeslots[i].Day], i)
	}
	for day := range byDay {
		idxs := byDay[day]
		sort.Slice(idxs, func(a, b int) bool {
			return timeslots[idxs[a]].SlotIndex < timeslots[idxs[b]].SlotIndex
		})
		byDay[day] = idxs
	}
	return byDay
}

// legalRooms implements the room-kind matching, falling back to every
// room when no room matches the course's preferred kind (never a single
// leaked room).
func legalRooms(courseType domain.CourseType, rooms []domain.Room) []int {
	var keyword string
	switch courseType {
	case domain.CourseLAB:
		keyword = "lab"
	case domain.CourseProject:
		keyword = "project"
	case domain.CourseTH, domain.CoursePR:
		keyword = "classroom"
	}

	var preferred []int
	for i, r := range rooms {
		if keyword != "" && strings.Contains(strings.ToLower(r.Kind), keyword) {
			preferred = append(preferred, i)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	all := make([]int, len(rooms))
	for i := range rooms {
		all[i] = i
	}
	return all
}

// legalTeachers implements T(course).
func legalTeachers(courseID string, teachers []domain.Teacher) []int {
	var out []int
	for i, t := range teachers {
		if t.CanTeach(courseID) {
			out = append(out, i)
		}
	}
	return out
}

// legalStartSlots implements S(duration): a start slot is legal iff its
// day has at least duration-1 further consecutive slots (in SlotIndex
// order) following it. Returns, for each legal start index (into
// timeslots), the full list of occupied timeslot indices.
func legalStartSlots(duration int, byDay map[string][]int) map[int][]int {
	out := make(map[int][]int)
	for _, dayIdxs := range byDay {
		for pos := 0; pos+duration <= len(dayIdxs); pos++ {
			start := dayIdxs[pos]
			occupied := make([]int, duration)
			copy(occupied, dayIdxs[pos:pos+duration])
			out[start] = occupied
		}
	}
	return out
}

// enumerate builds the full legal-placement set for every session,
// failing fast with the infeasibility reasons the enumerator itself
// is responsible for detecting (no eligible teacher, room, or slot).
func enumerate(
	sessions []domain.SessionRequirement,
	courseByID map[string]domain.Course,
	teachers []domain.Teacher,
	rooms []domain.Room,
	timeslots []domain.TimeSlot,
) (*enumeration, error) {
	byDay := dayOrder(timeslots)

	enum := &enumeration{
		sessions:      sessions,
		bySession:     make([][]int, len(sessions)),
		byGroupSlot:   make(map[string][]int),
		byTeacherSlot: make(map[string][]int),
		byRoomSlot:    make(map[string][]int),
		byPairDay:     make(map[string][]int),
	}

	legalTeachersByCourse := make(map[string][]int)
	legalRoomsByCourse := make(map[string][]int)
	legalStartsByDuration := make(map[int]map[int][]int)

	for i, sess := range sessions {
		course := courseByID[sess.CourseID]

		ts, ok := legalTeachersByCourse[sess.CourseID]
		if !ok {
			ts = legalTeachers(sess.CourseID, teachers)
			legalTeachersByCourse[sess.CourseID] = ts
		}
		if len(ts) == 0 {
			return nil, infeasible(NoTeacherForCourse, sess.CourseID)
		}

		rs, ok := legalRoomsByCourse[sess.CourseID]
		if !ok {
			rs = legalRooms(course.Type, rooms)
			legalRoomsByCourse[sess.CourseID] = rs
		}
		if len(rs) == 0 {
			return nil, infeasible(NoRoomForType, string(course.Type))
		}

		starts, ok := legalStartsByDuration[course.Duration]
		if !ok {
			starts = legalStartSlots(course.Duration, byDay)
			legalStartsByDuration[course.Duration] = starts
		}
		if len(starts) == 0 {
			return nil, infeasible(NoConsecutiveSlots, sess.CourseID)
		}

		startIdxs := make([]int, 0, len(starts))
		for start := range starts {
			startIdxs = append(startIdxs, start)
		}
		sort.Ints(startIdxs)

		for _, start := range startIdxs {
			occupied := starts[start]
			day := timeslots[start].Day
			for _, teacherIdx := range ts {
				for _, roomIdx := range rs {
					p := placement{
						Placement: domain.Placement{
							Session:   i,
							StartSlot: start,
							Teacher:   teacherIdx,
							Room:      roomIdx,
						},
						GroupID:       sess.GroupID,
						CourseID:      sess.CourseID,
						Instance:      sess.Instance,
						Day:           day,
						OccupiedSlots: occupied,
					}
					idx := len(enum.placements)
					enum.placements = append(enum.placements, p)
					enum.bySession[i] = append(enum.bySession[i], idx)

					for _, slot := range occupied {
						gk := groupSlotKey(sess.GroupID, slot)
						enum.byGroupSlot[gk] = append(enum.byGroupSlot[gk], idx)
						tk := teacherSlotKey(teacherIdx, slot)
						enum.byTeacherSlot[tk] = append(enum.byTeacherSlot[tk], idx)
						rk := roomSlotKey(roomIdx, slot)
						enum.byRoomSlot[rk] = append(enum.byRoomSlot[rk], idx)
					}
					pdk := pairDayKey(sess.GroupID, sess.CourseID, day)
					enum.byPairDay[pdk] = append(enum.byPairDay[pdk], idx)
				}
			}
		}
	}

	return enum, nil
}
