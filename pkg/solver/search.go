package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

var errBudget = errors.New("backtrack budget spent")

// search is the explicit state of the depth-first placement. Every change
// made while trying a candidate (used, assign) is reverted before the next
// candidate is tried or the frame returns.
type search struct {
	ctx   context.Context
	board *hw.Board

	slots []slot
	cands [][]int // candidate board pin indices per slot, board order

	used   []bool // by board pin index
	assign []int  // board pin index per slot, -1 while open

	backtracks int
	limit      int
	nodes      int
	deepest    int // furthest slot index that ran out of candidates
}

// newSearch orders the slots by tier and then by how few candidates they
// have. The sort is stable, so equal slots keep collection order and the
// search stays deterministic.
func newSearch(ctx context.Context, st *state, slots []slot, limit int) *search {
	type ranked struct {
		sl    slot
		cands []int
	}
	rs := make([]ranked, len(slots))
	for i, sl := range slots {
		rs[i] = ranked{sl: sl, cands: st.candidates(sl)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		ti, tj := rs[i].sl.req.Capability.Tier(), rs[j].sl.req.Capability.Tier()
		if ti != tj {
			return ti < tj
		}
		return len(rs[i].cands) < len(rs[j].cands)
	})

	s := &search{
		ctx:     ctx,
		board:   st.board,
		slots:   make([]slot, len(rs)),
		cands:   make([][]int, len(rs)),
		used:    append([]bool(nil), st.reserved...),
		assign:  make([]int, len(rs)),
		limit:   limit,
		deepest: -1,
	}
	for i, r := range rs {
		s.slots[i] = r.sl
		s.cands[i] = r.cands
		s.assign[i] = -1
	}
	return s
}

// place fills slot i and everything after it. It returns false with a nil
// error when the subtree has no solution, and a non-nil error when the
// budget or the context ran out.
func (s *search) place(i int) (bool, error) {
	if i == len(s.slots) {
		return true, nil
	}
	s.nodes++
	if s.nodes&0xff == 0 {
		if err := s.ctx.Err(); err != nil {
			return false, err
		}
	}

	for _, pin := range s.cands[i] {
		if s.used[pin] {
			continue
		}
		s.used[pin] = true
		s.assign[i] = pin

		ok, err := s.place(i + 1)
		if ok {
			return true, nil
		}

		s.used[pin] = false
		s.assign[i] = -1
		if err != nil {
			return false, err
		}
		s.backtracks++
		if s.backtracks > s.limit {
			return false, errBudget
		}
	}

	if i > s.deepest {
		s.deepest = i
	}
	return false, nil
}

// exhausted converts a budget or context error into a failure.
func (s *search) exhausted(err error) *Failure {
	f := &Failure{
		Kind:       KindSearchExhausted,
		Backtracks: s.backtracks,
	}
	if errors.Is(err, errBudget) {
		f.Message = fmt.Sprintf("gave up after %d backtracks placing %d requirement(s) on %s; remove a component or pick a larger board",
			s.backtracks, len(s.slots), s.board.ID)
	} else {
		f.Message = fmt.Sprintf("search cancelled after %d backtracks: %v", s.backtracks, err)
		f.cause = err
	}
	if s.deepest >= 0 {
		sl := s.slots[s.deepest]
		f.Requirements = []string{sl.key}
		f.Components = []string{sl.instance.ID}
		f.Capability = sl.req.Capability.String()
	}
	return f
}

// noFit reports a fully explored search with no solution. The requirement
// named is the furthest one that ran out of free candidates.
func (s *search) noFit() *Failure {
	f := &Failure{
		Kind:       KindPinShortage,
		Backtracks: s.backtracks,
	}
	if s.deepest < 0 {
		f.Message = fmt.Sprintf("no conflict-free assignment on %s", s.board.ID)
		return f
	}
	sl := s.slots[s.deepest]
	var pins []string
	for _, idx := range s.cands[s.deepest] {
		pins = append(pins, s.board.Pins[idx].ID)
	}
	f.Message = fmt.Sprintf("no free %s pin left for %s once the other requirements are placed (candidates %v)",
		sl.req.Capability, sl.key, pins)
	f.Capability = sl.req.Capability.String()
	f.Requirements = []string{sl.key}
	f.Components = []string{sl.instance.ID}
	f.Pins = pins
	return f
}
