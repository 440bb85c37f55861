package solver

import (
	"sort"
	"time"

	"github.com/sma-timetable/scheduler-core/internal/domain"
)

// feasibilitySearch finds a placement for every session with a
// depth-first backtracking search (no CP-SAT binding exists in the
// dependency ecosystem available to this module, see DESIGN.md). Each
// candidate is checked only against the placements already committed;
// the remaining sessions' candidates are not pruned ahead of time.
// Sessions are tried most-constrained-first (fewest legal placements),
// which is the classical MRV heuristic for this style of search and
// keeps the branching factor low on the cases the enumerator tends to
// produce.
type feasibilitySearch struct {
	enum     *enumeration
	order    []int // session indices, most-constrained-first
	deadline time.Time

	usedGroupSlot   map[string]bool
	usedTeacherSlot map[string]bool
	usedRoomSlot    map[string]bool
	usedPairDay     map[string]bool

	chosen []int // per session (in original index space): placement idx, -1 if unset

	nodes int
}

func newFeasibilitySearch(enum *enumeration, timeout time.Duration) *feasibilitySearch {
	order := make([]int, len(enum.sessions))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(enum.bySession[order[a]]) < len(enum.bySession[order[b]])
	})

	chosen := make([]int, len(enum.sessions))
	for i := range chosen {
		chosen[i] = -1
	}

	return &feasibilitySearch{
		enum:            enum,
		order:           order,
		deadline:        time.Now().Add(timeout),
		usedGroupSlot:   make(map[string]bool),
		usedTeacherSlot: make(map[string]bool),
		usedRoomSlot:    make(map[string]bool),
		usedPairDay:     make(map[string]bool),
		chosen:          chosen,
	}
}

// run returns the chosen placement index per session on success.
func (s *feasibilitySearch) run() ([]int, error) {
	ok, timedOut := s.backtrack(0)
	if timedOut {
		return nil, infeasible(SolverTimeout, "")
	}
	if !ok {
		return nil, infeasible(SolverProvedInfeasible, "")
	}
	return s.chosen, nil
}

func (s *feasibilitySearch) backtrack(pos int) (ok bool, timedOut bool) {
	if pos == len(s.order) {
		return true, false
	}

	s.nodes++
	if s.nodes%2048 == 0 && time.Now().After(s.deadline) {
		return false, true
	}

	sessionIdx := s.order[pos]
	sess := s.enum.sessions[sessionIdx]

	for _, placementIdx := range s.enum.bySession[sessionIdx] {
		p := s.enum.placements[placementIdx]

		if !s.fits(sess, p) {
			continue
		}

		s.commit(sess, p)
		s.chosen[sessionIdx] = placementIdx

		if done, timedOut := s.backtrack(pos + 1); done || timedOut {
			return done, timedOut
		}

		s.uncommit(sess, p)
		s.chosen[sessionIdx] = -1
	}

	return false, false
}

func (s *feasibilitySearch) fits(sess domain.SessionRequirement, p placement) bool {
	pdk := pairDayKey(sess.GroupID, sess.CourseID, p.Day)
	if s.usedPairDay[pdk] {
		return false
	}
	for _, slot := range p.OccupiedSlots {
		if s.usedGroupSlot[groupSlotKey(sess.GroupID, slot)] {
			return false
		}
		if s.usedTeacherSlot[teacherSlotKey(p.Teacher, slot)] {
			return false
		}
		if s.usedRoomSlot[roomSlotKey(p.Room, slot)] {
			return false
		}
	}
	return true
}

func (s *feasibilitySearch) commit(sess domain.SessionRequirement, p placement) {
	s.usedPairDay[pairDayKey(sess.GroupID, sess.CourseID, p.Day)] = true
	for _, slot := range p.OccupiedSlots {
		s.usedGroupSlot[groupSlotKey(sess.GroupID, slot)] = true
		s.usedTeacherSlot[teacherSlotKey(p.Teacher, slot)] = true
		s.usedRoomSlot[roomSlotKey(p.Room, slot)] = true
	}
}

func (s *feasibilitySearch) uncommit(sess domain.SessionRequirement, p placement) {
	delete(s.usedPairDay, pairDayKey(sess.GroupID, sess.CourseID, p.Day))
	for _, slot := range p.OccupiedSlots {
		delete(s.usedGroupSlot, groupSlotKey(sess.GroupID, slot))
		delete(s.usedTeacherSlot, teacherSlotKey(p.Teacher, slot))
		delete(s.usedRoomSlot, roomSlotKey(p.Room, slot))
	}
}

// assignmentsFromChoice converts a per-session placement-index choice into
// the Assignment slice the materializer and the GA seed consume.
func assignmentsFromChoice(enum *enumeration, chosen []int) []domain.Assignment {
	out := make([]domain.Assignment, len(chosen))
	for sessionIdx, placementIdx := range chosen {
		p := enum.placements[placementIdx]
		out[sessionIdx] = domain.Assignment{
			Session:       enum.sessions[sessionIdx],
			Placement:     p.Placement,
			OccupiedSlots: p.OccupiedSlots,
		}
	}
	return out
}
