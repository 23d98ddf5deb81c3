// Package segment implements the four-phase code-segment lifecycle of
// spec.md §4.3: size-upper-bound, determine-size, determine-offset,
// emit-bytes. Each segment variant here is grounded byte-for-byte on
// original_source/assembly_segment.h and assembly_segment.cc.
package segment

// OffsetInterface is the pair of pure queries a segment needs during
// layout. Implemented by subroutine.Subroutine.
type OffsetInterface interface {
	// MaximumDistance is an upper bound on the byte distance between the
	// segments with the given ids, symmetric in a and b.
	MaximumDistance(a, b uint32) int
	// AbsoluteOffset is the exact start offset, in bytes from the
	// subroutine entry, of the segment with the given id. Only valid
	// once every segment's size has been determined.
	AbsoluteOffset(id uint32) int
}

// Segment is a single unit of emitted machine code with a stable id. Each
// concrete segment variant enforces its own slice of spec.md §4.3's
// Built->Sized->Placed->Emitted contract (see branch.go's sized flag and
// jumpSeg's width field) rather than sharing a generic phase tracker, since
// the static segments in static.go have no ordering to enforce at all.
type Segment interface {
	ID() uint32

	// MaxSize is an upper bound on Size, callable in any phase.
	MaxSize() int

	// DetermineSize commits the segment to a concrete size. Must be
	// called at most once, before DetermineOffset.
	DetermineSize(off OffsetInterface)

	// DetermineOffset resolves any internal relative displacements, now
	// that every segment's size (and therefore absolute offset) is
	// fixed. Must be called at most once, after DetermineSize.
	DetermineOffset(off OffsetInterface)

	// Size is the segment's final size. Only valid after DetermineSize.
	Size() int

	// WriteCode appends this segment's bytes to buf and returns the
	// advanced slice. Only valid after DetermineOffset.
	WriteCode(buf []byte) []byte

	// DebugString renders an AT&T-syntax listing fragment. Only valid
	// after DetermineOffset (the segment's displacement, if any, must be
	// known to print a meaningful annotation).
	DebugString() string
}
