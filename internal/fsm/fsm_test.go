package fsm

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestCanBuild(t *testing.T) {
	f, err := New([]byte{'a', 'b', 'c', 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	initial := f.Start()
	state2 := f.AddState()
	mustAdd(t, f.AddTransition(initial, state2, 'c'))
	mustAdd(t, f.AddTransition(state2, state2, 'a'))
	mustAdd(t, f.AddTransition(state2, state2, 'b'))
	state3 := f.AddState()
	mustAdd(t, f.AddTransition(state2, state3, 'c'))
	state4 := f.AddState()
	for _, letter := range []byte{'a', 'b', 'c'} {
		mustAdd(t, f.AddTransition(state3, state4, letter))
	}
	mustAdd(t, f.AddTransition(state4, f.Success(), 0))

	expectedStates := []uint32{initial, state2, state3, state4, f.Success(), f.Failure()}
	observed := f.IterStates()
	sort.Slice(observed, func(i, j int) bool { return observed[i] < observed[j] })
	sort.Slice(expectedStates, func(i, j int) bool { return expectedStates[i] < expectedStates[j] })
	if !reflect.DeepEqual(observed, expectedStates) {
		t.Fatalf("states = %v, want %v", observed, expectedStates)
	}

	type edge struct {
		to     uint32
		letter byte
	}
	want := map[uint32][]edge{
		initial: {{state2, 'c'}},
		state2:  {{state2, 'a'}, {state2, 'b'}, {state3, 'c'}},
		state3:  {{state4, 'a'}, {state4, 'b'}, {state4, 'c'}},
		state4:  {{f.Success(), 0}},
	}
	for _, id := range f.IterStates() {
		var got []edge
		for _, e := range f.IterTransitions(id) {
			if e.Label.Kind != Char {
				t.Fatalf("state %d: expected only Char edges, got kind %v", id, e.Label.Kind)
			}
			got = append(got, edge{e.Target, e.Label.Letter})
		}
		if w, ok := want[id]; ok {
			if !reflect.DeepEqual(got, w) {
				t.Errorf("state %d transitions = %v, want %v", id, got, w)
			}
		} else if len(got) != 0 {
			t.Errorf("state %d: expected no transitions, got %v", id, got)
		}
	}
}

func TestDuplicateCharRejected(t *testing.T) {
	f, _ := New([]byte{'a', 'b'})
	s1 := f.AddState()
	s2 := f.AddState()
	mustAdd(t, f.AddTransition(s1, s2, 'a'))
	if err := f.AddTransition(s1, s2, 'a'); err == nil {
		t.Fatal("expected duplicate Char edge to be rejected")
	}
	// FSM left unchanged: still exactly one out-edge.
	if got := len(f.IterTransitions(s1)); got != 1 {
		t.Fatalf("out-edges after rejected add = %d, want 1", got)
	}
}

func TestEdgeAfterRemainderRejected(t *testing.T) {
	f, _ := New([]byte{'a', 'b'})
	s1 := f.AddState()
	s2 := f.AddState()
	mustAdd(t, f.AddRemainder(s1, s2))
	if err := f.AddTransition(s1, s2, 'a'); err == nil {
		t.Fatal("expected edge after Remainder to be rejected")
	}
}

func TestDuplicateAlphabetRejected(t *testing.T) {
	if _, err := New([]byte{'a', 'a'}); err == nil {
		t.Fatal("expected duplicate alphabet character to be rejected")
	}
}

func TestToDotCoalescesAndRendersRemainder(t *testing.T) {
	f, _ := New([]byte{'a', 'b', 'c', 'd', 'e', 'f'}) // > maxElseSize
	s1 := f.AddState()
	mustAdd(t, f.AddTransition(f.Start(), s1, 'a'))
	mustAdd(t, f.AddTransition(f.Start(), s1, 'b'))
	mustAdd(t, f.AddRemainder(f.Start(), f.Failure()))

	dot := f.ToDot()
	if !strings.Contains(dot, "a,b") {
		t.Errorf("expected coalesced \"a,b\" label in dot output:\n%s", dot)
	}
	if !strings.Contains(dot, "else") {
		t.Errorf("expected \"else\" label for large-alphabet Remainder:\n%s", dot)
	}
}

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
}
