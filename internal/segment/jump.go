package segment

import "github.com/xyproto/tinyjit/internal/diag"

// width is the resolved displacement encoding for a conditional jump.
type width int

const (
	widthUnset width = iota
	width8
	width32
)

const (
	k8BitMax  = 127         // exclusive upper bound; int8 max is 127
	k32BitMax = 2147483647  // int32 max
	// k16BitThreshold mirrors the original's collapsed 16-bit check
	// (spec.md §9): x86-64 has no near-jump rel16 encoding, so any
	// distance that would have picked "16-bit" is routed to the 32-bit
	// encoding exactly like a distance that picks "32-bit" outright.
	k16BitThreshold = 32767
)

// condition picks the opcode pair used by the jump sub-segment: je for
// ConsumingMatchBranch (jump on match), jne for ConsumingElseBranch (jump
// on mismatch).
type condition int

const (
	condEqual condition = iota
	condNotEqual
)

// jumpSeg is the shared "emit the narrowest conditional jump to a given
// id" helper, embedded by value into both branching segment types rather
// than shared via inheritance, per spec.md §9's composition guidance.
// Grounded on original_source/assembly_segment.cc's
// ConsumingMatchNonConsumingNonMatch offset/size logic.
type jumpSeg struct {
	parentID       uint32
	targetID       uint32
	cond           condition
	parentPreamble int // bytes of the outer segment that precede this jump

	w              width
	relativeOffset int32
}

// rel8Size and rel32Size are this jump's encoded sizes at each width.
const (
	rel8Size  = 2 // opcode + 1-byte displacement
	rel32Size = 6 // 0x0f + opcode + 4-byte displacement
)

func (j *jumpSeg) maxSize() int { return rel32Size }

func (j *jumpSeg) determineSize(off OffsetInterface) {
	maxInterSegment := off.MaximumDistance(j.parentID, j.targetID)
	maxDistance := maxInterSegment + j.parentPreamble + j.maxSize()

	switch {
	case maxDistance < k8BitMax:
		j.w = width8
	case maxDistance < k16BitThreshold:
		j.w = width32
	case maxDistance < k32BitMax:
		j.w = width32
	default:
		diag.Fatal(diag.CategoryCapacity, "displacement of %d bytes does not fit in a signed 32-bit relative offset", maxDistance)
	}
}

func (j *jumpSeg) size() int {
	switch j.w {
	case width8:
		return rel8Size
	case width32:
		return rel32Size
	default:
		diag.Fatal(diag.CategoryContract, "jump size() called before determine_size()")
		return 0
	}
}

func (j *jumpSeg) determineOffset(off OffsetInterface) {
	if j.w == widthUnset {
		diag.Fatal(diag.CategoryContract, "jump determine_offset() called before determine_size()")
	}
	thisStart := off.AbsoluteOffset(j.parentID)
	targetStart := off.AbsoluteOffset(j.targetID)
	jmpSource := thisStart + j.parentPreamble + j.size()
	j.relativeOffset = int32(targetStart - jmpSource)
}

// writeCode appends this jump's opcode and displacement bytes.
func (j *jumpSeg) writeCode(buf []byte) []byte {
	switch j.w {
	case width8:
		op := byte(0x74) // je rel8
		if j.cond == condNotEqual {
			op = 0x75 // jne rel8
		}
		return append(buf, op, byte(int8(j.relativeOffset)))
	case width32:
		op := byte(0x84) // je rel32
		if j.cond == condNotEqual {
			op = 0x85 // jne rel32
		}
		d := uint32(j.relativeOffset)
		return append(buf, 0x0f, op,
			byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
	default:
		diag.Fatal(diag.CategoryContract, "jump write_code() called before determine_size()")
		return buf
	}
}

func (j *jumpSeg) mnemonic() string {
	if j.cond == condEqual {
		return "je"
	}
	return "jne"
}
