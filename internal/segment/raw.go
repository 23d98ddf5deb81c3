package segment

import "fmt"

// RawBytes is a fixed byte sequence with no internal displacements, the same
// shape as the static.go segments but carrying caller-supplied code instead
// of one of the compiler's own fixed prologue/epilogue sequences. Used by
// internal/elfexec to splice hand-written entry-point glue into the same
// Subroutine that lays out a compiled matcher.
type RawBytes struct{ staticSegment }

// NewRawBytes returns a fixed-content segment with the given id.
func NewRawBytes(id uint32, code []byte) *RawBytes {
	return &RawBytes{staticSegment{id: id, code: append([]byte(nil), code...)}}
}

func (r *RawBytes) DebugString() string {
	return fmt.Sprintf(".section_%d:\n    .byte % x\n", r.id, r.code)
}
