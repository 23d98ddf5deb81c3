package segment

import (
	"fmt"

	"github.com/xyproto/tinyjit/internal/diag"
)

const callSize = 5 // 0xe8 + 4-byte little-endian rel32

// Call is an unconditional "call rel32" to another segment in the same
// Subroutine. Unlike the conditional branches in branch.go/jump.go, a call
// instruction has no narrower encoding to choose between, so there is
// nothing for DetermineSize to resolve beyond the fixed size; DetermineOffset
// still has to wait for every segment's size to be fixed before it can
// compute a correct displacement. Used by internal/elfexec to call into a
// compiled matcher subroutine from hand-written _start glue.
type Call struct {
	id             uint32
	targetID       uint32
	relativeOffset int32
	sized          bool
}

// NewCall builds a call segment with the given id, targeting the segment
// with id targetID.
func NewCall(id uint32, targetID uint32) *Call {
	return &Call{id: id, targetID: targetID}
}

func (c *Call) ID() uint32   { return c.id }
func (c *Call) MaxSize() int { return callSize }

func (c *Call) DetermineSize(OffsetInterface) { c.sized = true }

func (c *Call) DetermineOffset(off OffsetInterface) {
	if !c.sized {
		diag.Fatal(diag.CategoryContract, "DetermineOffset called before DetermineSize")
	}
	callSource := off.AbsoluteOffset(c.id) + callSize
	targetStart := off.AbsoluteOffset(c.targetID)
	c.relativeOffset = int32(targetStart - callSource)
}

func (c *Call) Size() int { return callSize }

func (c *Call) WriteCode(buf []byte) []byte {
	d := uint32(c.relativeOffset)
	return append(buf, 0xe8, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
}

func (c *Call) DebugString() string {
	return fmt.Sprintf(".section_%d:\n    call .section_%d  ; offset %#x\n", c.id, c.targetID, c.relativeOffset)
}
