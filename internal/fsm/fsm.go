// Package fsm implements the nondeterministic finite-state-machine graph
// that tinyjit compiles: states with stable numeric ids, and out-edges
// labeled with a literal character, an epsilon transition, or a remainder
// (fallback) transition.
package fsm

import "github.com/xyproto/tinyjit/internal/diag"

// EdgeKind distinguishes the three label variants an edge can carry.
type EdgeKind int

const (
	// Char consumes one input character equal to Letter.
	Char EdgeKind = iota
	// Epsilon consumes no input; a nondeterministic branch.
	Epsilon
	// Remainder consumes one input character, matching iff that
	// character is in the alphabet and not claimed by a sibling Char
	// edge on the same source state.
	Remainder
)

// EdgeLabel is the tagged label carried by an out-edge.
type EdgeLabel struct {
	Kind   EdgeKind
	Letter byte // only meaningful when Kind == Char
}

// Edge is one out-edge of a State: a label plus the target state id.
type Edge struct {
	Target uint32
	Label  EdgeLabel
}

// State is a single FSM node. id is assigned monotonically at creation and
// is stable for the lifetime of the FSM.
type State struct {
	ID       uint32
	OutEdges []Edge
}

// FSM is an in-memory directed graph over a fixed alphabet. The first three
// states, in order, are always start, success, and failure.
type FSM struct {
	Alphabet []byte
	states   []*State // arena: states are never relocated, ids index into this slice
	nextID   uint32

	startID, successID, failureID uint32
}

// New returns a fresh FSM with start/success/failure pre-populated. Returns
// a CategoryConstruction error if the alphabet contains a duplicate
// character.
func New(alphabet []byte) (*FSM, error) {
	seen := make(map[byte]bool, len(alphabet))
	for _, c := range alphabet {
		if seen[c] {
			return nil, diag.New(diag.CategoryConstruction, "duplicate alphabet character %q", c)
		}
		seen[c] = true
	}

	f := &FSM{Alphabet: append([]byte(nil), alphabet...)}
	f.startID = f.addStateLocked().ID
	f.successID = f.addStateLocked().ID
	f.failureID = f.addStateLocked().ID
	return f, nil
}

func (f *FSM) addStateLocked() *State {
	s := &State{ID: f.nextID}
	f.nextID++
	f.states = append(f.states, s)
	return s
}

// AddState allocates a new state with a fresh id and returns its id. The
// returned id remains a valid handle across every subsequent AddState call:
// states live in a flat, append-only arena and are addressed by id, never
// by pointer into a relocatable container.
func (f *FSM) AddState() uint32 {
	return f.addStateLocked().ID
}

// Start, Success, Failure return the three distinguished state ids.
func (f *FSM) Start() uint32   { return f.startID }
func (f *FSM) Success() uint32 { return f.successID }
func (f *FSM) Failure() uint32 { return f.failureID }

func (f *FSM) state(id uint32) *State {
	if int(id) >= len(f.states) {
		diag.Fatal(diag.CategoryContract, "no such state id %d", id)
	}
	return f.states[id]
}

func (f *FSM) isTerminal(id uint32) bool {
	return id == f.successID || id == f.failureID
}

func (f *FSM) hasRemainder(s *State) bool {
	for _, e := range s.OutEdges {
		if e.Label.Kind == Remainder {
			return true
		}
	}
	return false
}

func (f *FSM) hasChar(s *State, c byte) bool {
	for _, e := range s.OutEdges {
		if e.Label.Kind == Char && e.Label.Letter == c {
			return true
		}
	}
	return false
}

// AddTransition adds a Char(letter) edge from 'from' to 'to'. Returns a
// *diag.CompileError (CategoryConstruction) if this would create a
// duplicate Char edge on 'from', add an edge after its Remainder edge, or
// target success/failure as a source. On error, 'from' is left unchanged.
func (f *FSM) AddTransition(from, to uint32, letter byte) error {
	return f.addEdge(from, to, EdgeLabel{Kind: Char, Letter: letter})
}

// AddEpsilon adds a non-consuming Epsilon edge from 'from' to 'to'.
func (f *FSM) AddEpsilon(from, to uint32) error {
	return f.addEdge(from, to, EdgeLabel{Kind: Epsilon})
}

// AddRemainder adds the (at most one) Remainder edge to 'from'. No further
// edges may be added to 'from' afterward.
func (f *FSM) AddRemainder(from, to uint32) error {
	return f.addEdge(from, to, EdgeLabel{Kind: Remainder})
}

func (f *FSM) addEdge(from, to uint32, label EdgeLabel) error {
	if from == f.successID || from == f.failureID {
		return diag.New(diag.CategoryConstruction, "cannot add out-edges to the success or failure state")
	}
	src := f.state(from)
	_ = f.state(to) // validates 'to' exists

	if f.hasRemainder(src) {
		return diag.New(diag.CategoryConstruction, "state %d already has a Remainder edge; no further edges may be added", from)
	}
	if label.Kind == Char && f.hasChar(src, label.Letter) {
		return diag.New(diag.CategoryConstruction, "state %d already has a Char(%q) edge", from, label.Letter)
	}

	src.OutEdges = append(src.OutEdges, Edge{Target: to, Label: label})
	return nil
}

// IterStates returns every state id in creation order. Restartable: each
// call returns a fresh, independent slice.
func (f *FSM) IterStates() []uint32 {
	out := make([]uint32, len(f.states))
	for i, s := range f.states {
		out[i] = s.ID
	}
	return out
}

// IterTransitions returns the out-edges of the given state, in the order
// they were added.
func (f *FSM) IterTransitions(state uint32) []Edge {
	s := f.state(state)
	out := make([]Edge, len(s.OutEdges))
	copy(out, s.OutEdges)
	return out
}

// NumStates returns the number of states, including the three distinguished
// ones.
func (f *FSM) NumStates() int { return len(f.states) }
