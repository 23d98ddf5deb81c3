package segment

import (
	"fmt"

	"github.com/xyproto/tinyjit/internal/diag"
)

const preambleSize = 3 // mov $LL, %al ; scasb
const concludeSize = 3 // dec %rdi

// ConsumingMatchBranch consumes one character; on match, jumps to
// matchTarget; on mismatch, falls through having undone the consumption
// (scasb always advances %rdi, so the fall-through path decrements it
// back). Grounded on
// original_source/assembly_segment.h/.cc's ConsumingMatchNonConsumingNonMatch.
type ConsumingMatchBranch struct {
	id     uint32
	letter byte
	jmp    jumpSeg
	sized  bool
}

// NewConsumingMatchBranch builds a match-branch segment with the given id,
// matched letter, and jump target state id.
func NewConsumingMatchBranch(id uint32, letter byte, matchTarget uint32) *ConsumingMatchBranch {
	return &ConsumingMatchBranch{
		id:     id,
		letter: letter,
		jmp: jumpSeg{
			parentID:       id,
			targetID:       matchTarget,
			cond:           condEqual,
			parentPreamble: preambleSize,
		},
	}
}

func (b *ConsumingMatchBranch) ID() uint32 { return b.id }

func (b *ConsumingMatchBranch) MaxSize() int {
	return preambleSize + b.jmp.maxSize() + concludeSize
}

func (b *ConsumingMatchBranch) DetermineSize(off OffsetInterface) {
	b.jmp.determineSize(off)
	b.sized = true
}

func (b *ConsumingMatchBranch) DetermineOffset(off OffsetInterface) {
	if !b.sized {
		diag.Fatal(diag.CategoryContract, "DetermineOffset called before DetermineSize")
	}
	b.jmp.determineOffset(off)
}

func (b *ConsumingMatchBranch) Size() int {
	return preambleSize + b.jmp.size() + concludeSize
}

func (b *ConsumingMatchBranch) WriteCode(buf []byte) []byte {
	buf = append(buf, 0xb0, b.letter, 0xae) // mov $letter, %al ; scasb
	buf = b.jmp.writeCode(buf)
	buf = append(buf, 0x48, 0xff, 0xcf) // dec %rdi
	return buf
}

func (b *ConsumingMatchBranch) DebugString() string {
	return fmt.Sprintf(
		".section_%d:\n    mov $0x%02x, %%al  ; %q\n    scasb\n    %s .section_%d  ; offset %#x\n    dec %%rdi\n",
		b.id, b.letter, rune(b.letter), b.jmp.mnemonic(), b.jmp.targetID, b.jmp.relativeOffset)
}

// ConsumingElseBranch consumes one character; on match, falls through
// (the consumed character is the desired one); on mismatch, jumps to
// elseTarget. Grounded on spec.md §4.3.2's ConsumingElseBranch, which the
// original C++ source left as a blank stub (ConsumingMatchElse) per
// spec.md §9 — implemented here from scratch against the spec, not
// against the stub.
type ConsumingElseBranch struct {
	id     uint32
	letter byte
	jmp    jumpSeg
	sized  bool
}

// NewConsumingElseBranch builds an else-branch segment with the given id,
// matched letter, and jump target state id.
func NewConsumingElseBranch(id uint32, letter byte, elseTarget uint32) *ConsumingElseBranch {
	return &ConsumingElseBranch{
		id:     id,
		letter: letter,
		jmp: jumpSeg{
			parentID:       id,
			targetID:       elseTarget,
			cond:           condNotEqual,
			parentPreamble: preambleSize,
		},
	}
}

func (b *ConsumingElseBranch) ID() uint32 { return b.id }

func (b *ConsumingElseBranch) MaxSize() int {
	return preambleSize + b.jmp.maxSize()
}

func (b *ConsumingElseBranch) DetermineSize(off OffsetInterface) {
	b.jmp.determineSize(off)
	b.sized = true
}

func (b *ConsumingElseBranch) DetermineOffset(off OffsetInterface) {
	if !b.sized {
		diag.Fatal(diag.CategoryContract, "DetermineOffset called before DetermineSize")
	}
	b.jmp.determineOffset(off)
}

func (b *ConsumingElseBranch) Size() int {
	return preambleSize + b.jmp.size()
}

func (b *ConsumingElseBranch) WriteCode(buf []byte) []byte {
	buf = append(buf, 0xb0, b.letter, 0xae) // mov $letter, %al ; scasb
	buf = b.jmp.writeCode(buf)
	return buf
}

func (b *ConsumingElseBranch) DebugString() string {
	return fmt.Sprintf(
		".section_%d:\n    mov $0x%02x, %%al  ; %q\n    scasb\n    %s .section_%d  ; offset %#x\n",
		b.id, b.letter, rune(b.letter), b.jmp.mnemonic(), b.jmp.targetID, b.jmp.relativeOffset)
}
