// Package subroutine owns an ordered collection of code segments and runs
// the two-pass branch-displacement resolution described in spec.md §4.4.
// Grounded on original_source/assembly_segment.h/.cc's AssemblySubroutine.
package subroutine

import (
	"strings"

	"github.com/xyproto/tinyjit/internal/diag"
	"github.com/xyproto/tinyjit/internal/segment"
)

type lifecycle int

const (
	lifecycleBuilding lifecycle = iota
	lifecycleFinalized
)

// Subroutine is an ordered sequence of owned segments, plus the side map
// from stable segment id to layout position that AbsoluteOffset and
// MaximumDistance need.
type Subroutine struct {
	segments []segment.Segment
	posOf    map[uint32]int
	state    lifecycle
}

// New returns an empty Subroutine, ready to accept segments.
func New() *Subroutine {
	return &Subroutine{posOf: make(map[uint32]int)}
}

// AddSegment appends a segment. Fails (aborts) if its id collides with a
// previously added segment, or if the subroutine has already been
// finalized — both are contract violations, not recoverable conditions.
func (s *Subroutine) AddSegment(seg segment.Segment) {
	if s.state == lifecycleFinalized {
		diag.Fatal(diag.CategoryContract, "AddSegment called after Finalize")
	}
	if _, exists := s.posOf[seg.ID()]; exists {
		diag.Fatal(diag.CategoryContract, "duplicate segment id %d", seg.ID())
	}
	s.posOf[seg.ID()] = len(s.segments)
	s.segments = append(s.segments, seg)
}

// Finalize runs the two passes described in spec.md §4.4: first every
// segment commits to a size (consulting only MaximumDistance, which is
// valid regardless of finalization state), then every segment commits its
// relative offset (consulting AbsoluteOffset, now meaningful because every
// size is fixed). No DetermineOffset call may happen before every
// DetermineSize call has completed.
func (s *Subroutine) Finalize() {
	if s.state == lifecycleFinalized {
		diag.Fatal(diag.CategoryContract, "Finalize called twice")
	}
	for _, seg := range s.segments {
		seg.DetermineSize(s)
	}
	for _, seg := range s.segments {
		seg.DetermineOffset(s)
	}
	s.state = lifecycleFinalized
}

// MaximumDistance implements segment.OffsetInterface: an upper bound on the
// byte distance between the segments with ids a and b, computed by summing
// MaxSize() over every segment strictly between them in layout order.
// Symmetric in a and b; valid at any point in the lifecycle.
func (s *Subroutine) MaximumDistance(a, b uint32) int {
	pa, pb := s.posOf[a], s.posOf[b]
	if pa > pb {
		pa, pb = pb, pa
	}
	total := 0
	for i := pa + 1; i < pb; i++ {
		total += s.segments[i].MaxSize()
	}
	return total
}

// AbsoluteOffset implements segment.OffsetInterface: the exact start offset
// of the segment with the given id, valid only once every segment's size
// has been committed (i.e. after the first Finalize pass).
func (s *Subroutine) AbsoluteOffset(id uint32) int {
	pos, ok := s.posOf[id]
	if !ok {
		diag.Fatal(diag.CategoryContract, "AbsoluteOffset: no such segment id %d", id)
	}
	offset := 0
	for i := 0; i < pos; i++ {
		offset += s.segments[i].Size()
	}
	return offset
}

// Size is the sum of every segment's final size. Only valid after
// Finalize.
func (s *Subroutine) Size() int {
	s.requireFinalized("Size")
	total := 0
	for _, seg := range s.segments {
		total += seg.Size()
	}
	return total
}

// WriteCode writes the final byte stream for every segment, in order, into
// a freshly allocated buffer sized to exactly Size() bytes.
func (s *Subroutine) WriteCode() []byte {
	s.requireFinalized("WriteCode")
	buf := make([]byte, 0, s.Size())
	for _, seg := range s.segments {
		buf = seg.WriteCode(buf)
	}
	return buf
}

// DebugString concatenates every segment's assembly-like listing, suitable
// for feeding to an external assembler and diffing against WriteCode's
// output.
func (s *Subroutine) DebugString() string {
	s.requireFinalized("DebugString")
	var sb strings.Builder
	for _, seg := range s.segments {
		sb.WriteString(seg.DebugString())
	}
	return sb.String()
}

func (s *Subroutine) requireFinalized(op string) {
	if s.state != lifecycleFinalized {
		diag.Fatal(diag.CategoryContract, "%s called before Finalize", op)
	}
}
