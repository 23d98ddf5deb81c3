// Package demo builds the six named example FSMs from spec.md §8, shared
// between the compiler's own end-to-end tests and the CLI's -pattern demo
// gallery.
package demo

import "github.com/xyproto/tinyjit/internal/fsm"

// Names lists every demo FSM, in the order spec.md §8 presents them.
var Names = []string{"a", "a-star-b", "a-or-b-c", "abc", "long-jump-stress", "empty"}

// Build constructs the named demo FSM, or an error if the name is unknown.
func Build(name string) (*fsm.FSM, error) {
	switch name {
	case "a":
		return literalA()
	case "a-star-b":
		return aStarB()
	case "a-or-b-c":
		return aOrBC()
	case "abc":
		return abc()
	case "long-jump-stress":
		return longJumpStress(200)
	case "empty":
		return emptyAlphabetSurrogate()
	default:
		return nil, errUnknown(name)
	}
}

type errUnknown string

func (e errUnknown) Error() string { return "unknown demo FSM: " + string(e) }

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// literalA: alphabet {a, \0}. start -a-> s1, s1 -\0-> success; both states
// fall back to failure on anything else.
func literalA() (*fsm.FSM, error) {
	f, err := fsm.New([]byte{'a', 0})
	if err != nil {
		return nil, err
	}
	s1 := f.AddState()
	must(f.AddTransition(f.Start(), s1, 'a'))
	must(f.AddRemainder(f.Start(), f.Failure()))
	must(f.AddTransition(s1, f.Success(), 0))
	must(f.AddRemainder(s1, f.Failure()))
	return f, nil
}

// aStarB: "a*b" over alphabet {a, b, \0}. A single looping state consumes
// any number of 'a's, then a 'b' followed by end-of-input succeeds.
func aStarB() (*fsm.FSM, error) {
	f, err := fsm.New([]byte{'a', 'b', 0})
	if err != nil {
		return nil, err
	}
	loop := f.AddState()
	afterB := f.AddState()

	must(f.AddEpsilon(f.Start(), loop))
	must(f.AddTransition(loop, loop, 'a'))
	must(f.AddTransition(loop, afterB, 'b'))
	must(f.AddRemainder(loop, f.Failure()))
	must(f.AddTransition(afterB, f.Success(), 0))
	must(f.AddRemainder(afterB, f.Failure()))
	return f, nil
}

// aOrBC: "(a|b)c" over alphabet {a, b, c, \0}.
func aOrBC() (*fsm.FSM, error) {
	f, err := fsm.New([]byte{'a', 'b', 'c', 0})
	if err != nil {
		return nil, err
	}
	afterFirst := f.AddState()

	must(f.AddTransition(f.Start(), afterFirst, 'a'))
	must(f.AddTransition(f.Start(), afterFirst, 'b'))
	must(f.AddRemainder(f.Start(), f.Failure()))
	must(f.AddTransition(afterFirst, f.Success(), 'c'))
	must(f.AddRemainder(afterFirst, f.Failure()))
	return f, nil
}

// abc: literal three-character match over alphabet {a, b, c, \0}.
func abc() (*fsm.FSM, error) {
	f, err := fsm.New([]byte{'a', 'b', 'c', 0})
	if err != nil {
		return nil, err
	}
	s1 := f.AddState()
	s2 := f.AddState()
	s3 := f.AddState()

	must(f.AddTransition(f.Start(), s1, 'a'))
	must(f.AddRemainder(f.Start(), f.Failure()))
	must(f.AddTransition(s1, s2, 'b'))
	must(f.AddRemainder(s1, f.Failure()))
	must(f.AddTransition(s2, s3, 'c'))
	must(f.AddRemainder(s2, f.Failure()))
	must(f.AddTransition(s3, f.Success(), 0))
	must(f.AddRemainder(s3, f.Failure()))
	return f, nil
}

// longJumpStress builds a chain of n optional 'a' steps followed by a
// mandatory 'b': the regular expression "a{0,n}b", which forces some of
// the resulting conditional jumps past the 8-bit displacement range,
// exercising the 32-bit jump encoding (spec.md §8 scenario 5).
func longJumpStress(n int) (*fsm.FSM, error) {
	f, err := fsm.New([]byte{'a', 'b', 0})
	if err != nil {
		return nil, err
	}

	afterB := f.AddState()
	must(f.AddTransition(afterB, f.Success(), 0))
	must(f.AddRemainder(afterB, f.Failure()))

	// Build right-to-left: step[i] optionally consumes 'a' and falls
	// through to step[i+1], or jumps straight to the 'b' state.
	next := afterB
	bState := f.AddState()
	must(f.AddTransition(bState, afterB, 'b'))
	must(f.AddRemainder(bState, f.Failure()))
	next = bState

	cur := next
	for i := 0; i < n; i++ {
		step := f.AddState()
		// Char edge listed before the Epsilon sibling: the binarizer
		// threads edges in order, so the 'a' edge lowers to a
		// ConsumingMatchBranch whose fall-through leads along the
		// Epsilon path to the 'b' state.
		must(f.AddTransition(step, cur, 'a'))
		must(f.AddEpsilon(step, bState))
		cur = step
	}
	must(f.AddEpsilon(f.Start(), cur))
	return f, nil
}

// emptyAlphabetSurrogate accepts only the empty string: start -Epsilon->
// success, alphabet {\0}.
func emptyAlphabetSurrogate() (*fsm.FSM, error) {
	f, err := fsm.New([]byte{0})
	if err != nil {
		return nil, err
	}
	must(f.AddEpsilon(f.Start(), f.Success()))
	return f, nil
}
