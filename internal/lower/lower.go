// Package lower walks a binarized FSM and produces the sequence of
// segments that implements it, per spec.md §4.5.
package lower

import (
	"github.com/xyproto/tinyjit/internal/diag"
	"github.com/xyproto/tinyjit/internal/fsm"
	"github.com/xyproto/tinyjit/internal/segment"
)

// prologueID is an id above every possible FSM state id (state ids
// start at 0, so the prologue needs an id that cannot collide with one;
// FSM state ids are assigned from 0 upward and the prologue is emitted
// before any of them are referenced as jump targets, so reserving the
// maximum uint32 value keeps the two id spaces disjoint without needing a
// remapping pass).
const prologueID = ^uint32(0)

// Lower returns the ordered segment sequence for a binarized FSM: a
// StackPrologue, one segment per state (start first, success and failure
// last), ending with the Success and Failure epilogues. A state's segment
// id matches its FSM state id, so branch targets in the emitted segments
// refer to FSM state ids directly.
//
// stateOrder tries to place each state's natural fall-through successor
// immediately after it, which is sufficient for a single ε-chain but not
// when two or more independent states need the same fall-through
// successor (most commonly Success or Failure, reached by fall-through
// from every accepting/rejecting alternative) -- only one claimant can
// actually end up adjacent. The pass below detects every case where a
// segment's required fall-through successor isn't physically next and
// inserts an explicit segment.Jump to make it so, rather than relying on
// adjacency the ordering pass cannot guarantee for more than one claimant
// per target.
func Lower(f *fsm.FSM) []segment.Segment {
	type item struct {
		seg      segment.Segment
		ftTarget uint32
		hasFT    bool
	}

	order := stateOrder(f)
	items := make([]item, 0, len(order)+3)
	items = append(items, item{seg: segment.NewStackPrologue(prologueID)})
	for _, id := range order {
		target, ok := requiredFallThrough(f, id)
		items = append(items, item{seg: lowerState(f, id), ftTarget: target, hasFT: ok})
	}
	items = append(items, item{seg: segment.NewSuccess(f.Success())})
	items = append(items, item{seg: segment.NewFailure(f.Failure())})

	nextSyntheticID := prologueID - 1
	out := make([]segment.Segment, 0, len(items)+4)
	for i, it := range items {
		out = append(out, it.seg)
		if !it.hasFT {
			continue
		}
		var nextID uint32
		hasNext := i+1 < len(items)
		if hasNext {
			nextID = items[i+1].seg.ID()
		}
		if !hasNext || nextID != it.ftTarget {
			out = append(out, segment.NewJump(nextSyntheticID, it.ftTarget))
			nextSyntheticID--
		}
	}
	return out
}

// requiredFallThrough returns the state id that the given state's segment
// depends on being its immediate physical successor (the NoOp's lone edge
// target, or a two-edge branch's non-jump edge target), and false if the
// state has no such requirement (zero out-edges).
func requiredFallThrough(f *fsm.FSM, id uint32) (target uint32, ok bool) {
	edges := f.IterTransitions(id)
	switch len(edges) {
	case 0:
		return 0, false
	case 1:
		return edges[0].Target, true
	case 2:
		target, _, ok := fallThroughEdge(edges)
		return target, ok
	default:
		return 0, false
	}
}

// stateOrder returns every non-distinguished state id, start first, in an
// order where each state's natural fall-through successor (if the state
// binarizes to a two-edge branch) immediately follows it — required so
// that ConsumingMatchBranch/ConsumingElseBranch's "fall through to the
// next segment" semantics are correct. This is a DFS starting at start,
// following the non-jump (fall-through) edge first.
func stateOrder(f *fsm.FSM) []uint32 {
	visited := map[uint32]bool{
		f.Success(): true,
		f.Failure(): true,
	}
	var order []uint32

	var visit func(id uint32)
	visit = func(id uint32) {
		if visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)

		edges := f.IterTransitions(id)
		fallThrough, jumpTarget, hasFallThrough := fallThroughEdge(edges)
		if hasFallThrough {
			// Visit the fall-through successor immediately so it
			// lands in the very next position (required for the
			// branch segment's implicit "fall through" semantics).
			visit(fallThrough)
			// The jump target doesn't need to be adjacent, but its
			// own fall-through chain still needs visiting as a unit
			// rather than being scattered by the id-order catch-all
			// below.
			visit(jumpTarget)
			return
		}
		// Single-edge (NoOp) state: its one edge's target is also its
		// fall-through successor.
		if len(edges) == 1 {
			visit(edges[0].Target)
		}
	}
	visit(f.Start())

	// Any state unreachable by fall-through from start (shouldn't occur
	// for a connected binarized FSM built by internal/binarize, but
	// guards against a caller-constructed FSM skipping states) is
	// appended in id order so every state still gets a segment.
	for _, id := range f.IterStates() {
		if !visited[id] {
			visited[id] = true
			order = append(order, id)
		}
	}
	return order
}

// fallThroughEdge identifies, for a two-edge binarized state, which edge is
// the "falls through to the next segment" edge (the Epsilon edge of an
// Epsilon+Char/Remainder pair, or the Char edge of a Char+Remainder pair),
// and returns false if the state isn't a two-edge branch at all.
func fallThroughEdge(edges []fsm.Edge) (target uint32, jumpTarget uint32, ok bool) {
	if len(edges) != 2 {
		return 0, 0, false
	}
	a, b := edges[0], edges[1]
	switch {
	case a.Label.Kind == fsm.Epsilon:
		return a.Target, b.Target, true
	case b.Label.Kind == fsm.Epsilon:
		return b.Target, a.Target, true
	case a.Label.Kind == fsm.Char && b.Label.Kind == fsm.Remainder:
		return a.Target, b.Target, true
	case b.Label.Kind == fsm.Char && a.Label.Kind == fsm.Remainder:
		return b.Target, a.Target, true
	default:
		return 0, 0, false
	}
}

func lowerState(f *fsm.FSM, id uint32) segment.Segment {
	edges := f.IterTransitions(id)

	switch len(edges) {
	case 0:
		return segment.NewNoOp(id)
	case 1:
		return segment.NewNoOp(id)
	case 2:
		a, b := edges[0], edges[1]
		switch {
		case a.Label.Kind == fsm.Epsilon && (b.Label.Kind == fsm.Char || b.Label.Kind == fsm.Remainder):
			return matchOrElse(id, b, a.Target)
		case b.Label.Kind == fsm.Epsilon && (a.Label.Kind == fsm.Char || a.Label.Kind == fsm.Remainder):
			return matchOrElse(id, a, b.Target)
		case a.Label.Kind == fsm.Char && b.Label.Kind == fsm.Remainder:
			return segment.NewConsumingElseBranch(id, a.Label.Letter, b.Target)
		case b.Label.Kind == fsm.Char && a.Label.Kind == fsm.Remainder:
			return segment.NewConsumingElseBranch(id, b.Label.Letter, a.Target)
		default:
			diag.Fatal(diag.CategoryContract, "state %d has an un-lowerable two-edge shape (not binarized)", id)
		}
	}
	diag.Fatal(diag.CategoryContract, "state %d has out-degree %d; FSM is not binarized", id, len(edges))
	return nil
}

// matchOrElse builds the segment for a (Epsilon -> fallThrough, consuming
// -> target) pair. A Char consuming edge becomes a ConsumingMatchBranch
// (jump on match). A Remainder consuming edge ("any character not
// otherwise claimed") is not representable as a single immediate
// comparison, so an Epsilon+Remainder pair aborts with a contract
// violation. The binarizer produces that pair when an input state's
// Remainder edge directly follows an Epsilon edge; such FSMs are not
// lowered.
func matchOrElse(id uint32, consuming fsm.Edge, fallThrough uint32) segment.Segment {
	if consuming.Label.Kind != fsm.Char {
		diag.Fatal(diag.CategoryContract, "state %d: Epsilon-paired consuming edge must be a Char edge", id)
	}
	return segment.NewConsumingMatchBranch(id, consuming.Label.Letter, consuming.Target)
}
