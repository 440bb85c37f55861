package solver

import (
	"sort"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// canonicalOrder fixes the index arrays the GA genome is expressed
// against: timeslots and genome session order are fixed by ascending
// id/slot-index; teachers and rooms by ascending id. This is what makes
// encode/decode deterministic given sorted inputs.
type canonicalOrder struct {
	timeslotOrder []int // canonical idx -> original timeslots idx
	teacherOrder  []int // canonical idx -> original teachers idx
	roomOrder     []int // canonical idx -> original rooms idx

	timeslotCanon map[int]int // original timeslots idx -> canonical idx
	teacherCanon  map[int]int
	roomCanon     map[int]int

	genomeSessions []int // genome position (/3) -> index into `sessions`

	byDay       map[string][]int // day -> original timeslot idx, ascending SlotIndex
	slotDay     map[int]string   // original timeslot idx -> day
	slotDayPos  map[int]int      // original timeslot idx -> position within its day list
}

func buildCanonicalOrder(sessions []domain.SessionRequirement, courseByID map[string]domain.Course, teachers []domain.Teacher, rooms []domain.Room, timeslots []domain.TimeSlot) *canonicalOrder {
	c := &canonicalOrder{
		timeslotCanon: make(map[int]int),
		teacherCanon:  make(map[int]int),
		roomCanon:     make(map[int]int),
		slotDay:       make(map[int]string),
		slotDayPos:    make(map[int]int),
	}

	c.timeslotOrder = orderByKey(len(timeslots), func(i int) int { return timeslots[i].SlotIndex })
	for canon, orig := range c.timeslotOrder {
		c.timeslotCanon[orig] = canon
	}

	c.teacherOrder = orderByID(len(teachers), func(i int) string { return teachers[i].ID })
	for canon, orig := range c.teacherOrder {
		c.teacherCanon[orig] = canon
	}

	c.roomOrder = orderByID(len(rooms), func(i int) string { return rooms[i].ID })
	for canon, orig := range c.roomOrder {
		c.roomCanon[orig] = canon
	}

	c.byDay = dayOrder(timeslots)
	for day, idxs := range c.byDay {
		for pos, orig := range idxs {
			c.slotDay[orig] = day
			c.slotDayPos[orig] = pos
		}
	}

	c.genomeSessions = genomeSessionOrder(sessions, courseByID)

	return c
}

// orderByKey returns indices 0..n-1 sorted ascending by the supplied
// integer key (used for timeslots, keyed by SlotIndex).
func orderByKey(n int, key func(int) int) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool { return key(idxs[a]) < key(idxs[b]) })
	return idxs
}

// orderByID returns indices 0..n-1 sorted ascending by string id.
func orderByID(n int, id func(int) string) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool { return id(idxs[a]) < id(idxs[b]) })
	return idxs
}

// genomeSessionOrder fixes the genome's session ordering: groups
// ascending id, then distinct courses ascending id within the group,
// then instances ascending. Returns indices into `sessions`.
func genomeSessionOrder(sessions []domain.SessionRequirement, courseByID map[string]domain.Course) []int {
	type key struct {
		group  string
		course string
	}
	byPair := make(map[key][]int)
	var pairs []key
	for i, s := range sessions {
		k := key{s.GroupID, s.CourseID}
		if _, ok := byPair[k]; !ok {
			pairs = append(pairs, k)
		}
		byPair[k] = append(byPair[k], i)
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].group != pairs[b].group {
			return pairs[a].group < pairs[b].group
		}
		return pairs[a].course < pairs[b].course
	})

	var out []int
	for _, k := range pairs {
		idxs := byPair[k]
		sort.Slice(idxs, func(a, b int) bool { return sessions[idxs[a]].Instance < sessions[idxs[b]].Instance })
		out = append(out, idxs...)
	}
	return out
}

// encodeGenome builds the genome, seeding it from a fully-resolved
// feasibility-stage assignment list (indexed like `sessions`/enum.sessions).
func encodeGenome(order *canonicalOrder, assignments []domain.Assignment) []int {
	genes := make([]int, 3*len(order.genomeSessions))
	for k, sessionIdx := range order.genomeSessions {
		a := assignments[sessionIdx]
		genes[3*k] = order.timeslotCanon[a.Placement.StartSlot]
		genes[3*k+1] = order.teacherCanon[a.Placement.Teacher]
		genes[3*k+2] = order.roomCanon[a.Placement.Room]
	}
	return genes
}

// decodedSession has dropped set (and a zero assignment) when the genome
// drops a session (insufficient consecutive slots remained in the decoded
// day).
type decodedSession struct {
	assignment domain.Assignment
	dropped    bool
}

// decodeGenome reapplies the enumeration from raw gene values.
// Modulo-decoding is intentional, and sessions are dropped rather than
// repaired when the decoded day lacks room for `duration` consecutive
// slots.
func decodeGenome(order *canonicalOrder, genes []int, sessions []domain.SessionRequirement, courseByID map[string]domain.Course) []decodedSession {
	out := make([]decodedSession, len(sessions))
	nTimeslots := len(order.timeslotOrder)
	nTeachers := len(order.teacherOrder)
	nRooms := len(order.roomOrder)

	for k, sessionIdx := range order.genomeSessions {
		sess := sessions[sessionIdx]
		course := courseByID[sess.CourseID]

		startGene, teacherGene, roomGene := genes[3*k], genes[3*k+1], genes[3*k+2]

		canonStart := mod(startGene, nTimeslots)
		origStart := order.timeslotOrder[canonStart]

		day := order.slotDay[origStart]
		dayList := order.byDay[day]
		pos := order.slotDayPos[origStart]

		if pos+course.Duration > len(dayList) {
			out[sessionIdx] = decodedSession{dropped: true}
			continue
		}

		occupied := make([]int, course.Duration)
		copy(occupied, dayList[pos:pos+course.Duration])

		canonTeacher := mod(teacherGene, nTeachers)
		canonRoom := mod(roomGene, nRooms)
		origTeacher := order.teacherOrder[canonTeacher]
		origRoom := order.roomOrder[canonRoom]

		out[sessionIdx] = decodedSession{
			assignment: domain.Assignment{
				Session: sess,
				Placement: domain.Placement{
					Session:   sessionIdx,
					StartSlot: origStart,
					Teacher:   origTeacher,
					Room:      origRoom,
				},
				OccupiedSlots: occupied,
			},
		}
	}

	return out
}

func mod(v, n int) int {
	if n <= 0 {
		return 0
	}
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}
