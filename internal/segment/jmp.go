package segment

import (
	"fmt"

	"github.com/xyproto/tinyjit/internal/diag"
)

const (
	uncondRel8Size  = 2 // 0xeb + 1-byte displacement
	uncondRel32Size = 5 // 0xe9 + 4-byte displacement
)

// Jump is a standalone unconditional "jmp" segment, used by internal/lower
// to give a state a guaranteed physical successor when its natural
// fall-through target can't be placed adjacent to it in layout order --
// most commonly when two or more independent states each need to fall
// through into the same shared terminal (success/failure) or merge point:
// only one claimant can actually be physically last before that target, so
// every other claimant gets an explicit Jump instead of relying on
// adjacency the layout pass cannot guarantee for more than one state per
// target. Shares branch.go/jump.go's narrowest-encoding discipline, but as
// its own top-level segment rather than a sub-segment embedded in a parent
// (a Jump has no preamble of its own to account for).
type Jump struct {
	id       uint32
	targetID uint32

	w              width
	relativeOffset int32
}

// NewJump builds an unconditional jump segment with the given id, targeting
// the segment with id targetID.
func NewJump(id, targetID uint32) *Jump {
	return &Jump{id: id, targetID: targetID}
}

func (j *Jump) ID() uint32   { return j.id }
func (j *Jump) MaxSize() int { return uncondRel32Size }

func (j *Jump) DetermineSize(off OffsetInterface) {
	maxInterSegment := off.MaximumDistance(j.id, j.targetID)
	maxDistance := maxInterSegment + j.MaxSize()

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

func (j *Jump) Size() int {
	switch j.w {
	case width8:
		return uncondRel8Size
	case width32:
		return uncondRel32Size
	default:
		diag.Fatal(diag.CategoryContract, "Jump.Size called before DetermineSize")
		return 0
	}
}

func (j *Jump) DetermineOffset(off OffsetInterface) {
	if j.w == widthUnset {
		diag.Fatal(diag.CategoryContract, "Jump.DetermineOffset called before DetermineSize")
	}
	jmpSource := off.AbsoluteOffset(j.id) + j.Size()
	targetStart := off.AbsoluteOffset(j.targetID)
	j.relativeOffset = int32(targetStart - jmpSource)
}

func (j *Jump) WriteCode(buf []byte) []byte {
	switch j.w {
	case width8:
		return append(buf, 0xeb, byte(int8(j.relativeOffset)))
	case width32:
		d := uint32(j.relativeOffset)
		return append(buf, 0xe9, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
	default:
		diag.Fatal(diag.CategoryContract, "Jump.WriteCode called before DetermineSize")
		return buf
	}
}

func (j *Jump) DebugString() string {
	return fmt.Sprintf(".section_%d:\n    jmp .section_%d  ; offset %#x\n", j.id, j.targetID, j.relativeOffset)
}
