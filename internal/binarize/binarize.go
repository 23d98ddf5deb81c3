// Package binarize lowers an arbitrary FSM into canonical binary form: every
// state has at most one character-consuming out-edge and at most one
// non-consuming fallback edge, per spec.md §4.2.
package binarize

import "github.com/xyproto/tinyjit/internal/fsm"

// ToBinarized returns a new FSM, over the same alphabet, equivalent to f,
// in which every non-terminal state has out-degree <= 2 with at most one
// consuming edge. The three distinguished states keep their roles.
func ToBinarized(f *fsm.FSM) *fsm.FSM {
	out, err := fsm.New(f.Alphabet)
	if err != nil {
		// f.Alphabet was already validated when f was built; this
		// cannot happen in correct usage.
		panic(err)
	}

	// input id -> output id, for every input state, including the three
	// distinguished ones.
	mirror := make(map[uint32]uint32, f.NumStates())
	mirror[f.Start()] = out.Start()
	mirror[f.Success()] = out.Success()
	mirror[f.Failure()] = out.Failure()
	for _, id := range f.IterStates() {
		if _, ok := mirror[id]; !ok {
			mirror[id] = out.AddState()
		}
	}

	visited := make(map[uint32]bool)
	walk(f, out, f.Start(), mirror, visited)
	return out
}

func walk(in, out *fsm.FSM, stateID uint32, mirror map[uint32]uint32, visited map[uint32]bool) {
	if visited[stateID] {
		return
	}
	visited[stateID] = true

	edges := in.IterTransitions(stateID)
	m := mirror[stateID]

	switch len(edges) {
	case 0:
		// Emit nothing.
	case 1:
		e := edges[0]
		emit(out, m, e.Target, mirror, e.Label)
		walk(in, out, e.Target, mirror, visited)
	default:
		prev := m
		for _, e := range edges {
			if e.Label.Kind == fsm.Remainder {
				emit(out, prev, e.Target, mirror, e.Label)
				walk(in, out, e.Target, mirror, visited)
				break // Remainder is last; fall-through terminates the chain.
			}
			k := out.AddState()
			mustAdd(out.AddEpsilon(prev, k))
			emit(out, k, e.Target, mirror, e.Label)
			prev = k
			walk(in, out, e.Target, mirror, visited)
		}
	}
}

// emit adds one edge, of the given label kind, from 'from' (an output-side
// id) to the output mirror of 'to' (an input-side id).
func emit(out *fsm.FSM, from, to uint32, mirror map[uint32]uint32, label fsm.EdgeLabel) {
	target := mirror[to]
	var err error
	switch label.Kind {
	case fsm.Char:
		err = out.AddTransition(from, target, label.Letter)
	case fsm.Epsilon:
		err = out.AddEpsilon(from, target)
	case fsm.Remainder:
		err = out.AddRemainder(from, target)
	}
	mustAdd(err)
}

func mustAdd(err error) {
	if err != nil {
		// Every input edge was already valid on the input FSM; the
		// binarizer only ever reproduces a subset of it (plus fresh
		// intermediate states it fully controls), so this can only
		// happen for a genuine implementation bug.
		panic(err)
	}
}
