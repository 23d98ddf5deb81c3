// Package compile wires fsm, binarize, lower, and subroutine together into
// the single entrypoint spec.md's pipeline describes: FSM graph -> binarize
// -> lower -> subroutine -> bytes.
package compile

import (
	"fmt"

	"github.com/xyproto/tinyjit/internal/binarize"
	"github.com/xyproto/tinyjit/internal/diag"
	"github.com/xyproto/tinyjit/internal/fsm"
	"github.com/xyproto/tinyjit/internal/lower"
	"github.com/xyproto/tinyjit/internal/subroutine"
)

// Compile binarizes f, lowers it to a segment sequence, and assembles and
// finalizes a Subroutine from it. Contract violations and capacity errors
// (spec.md §7 categories 1-2), which the segment/subroutine layers signal
// by panicking with a *diag.CompileError, are recovered here and returned
// as a normal Go error — mirroring the teacher's compilerError()-panics/
// RunCLI-recovers split (main.go).
func Compile(f *fsm.FSM) (sub *subroutine.Subroutine, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*diag.CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	diag.Tracef("binarizing FSM with %d states", f.NumStates())
	bin := binarize.ToBinarized(f)

	segs := lower.Lower(bin)
	diag.Tracef("lowered to %d segments", len(segs))

	sub = subroutine.New()
	for _, seg := range segs {
		sub.AddSegment(seg)
	}
	sub.Finalize()
	diag.Tracef("finalized subroutine: %d bytes", sub.Size())

	return sub, nil
}

// CompileBytes is a convenience wrapper returning the final machine code
// directly.
func CompileBytes(f *fsm.FSM) ([]byte, error) {
	sub, err := Compile(f)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return sub.WriteCode(), nil
}
