package subroutine

import (
	"testing"

	"github.com/xyproto/tinyjit/internal/segment"
)

func TestSizeEqualsSumOfSegments(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewStackPrologue(0))
	s.AddSegment(segment.NewSuccess(1))
	s.AddSegment(segment.NewFailure(2))
	s.Finalize()

	want := 4 + 9 + 4
	if s.Size() != want {
		t.Fatalf("Size() = %d, want %d", s.Size(), want)
	}
	code := s.WriteCode()
	if len(code) != s.Size() {
		t.Fatalf("len(WriteCode()) = %d, want Size() = %d", len(code), s.Size())
	}
}

func TestWriteCodeBeginsWithPrologue(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewStackPrologue(0))
	s.AddSegment(segment.NewSuccess(1))
	s.Finalize()

	code := s.WriteCode()
	want := []byte{0x55, 0x48, 0x89, 0xe5}
	for i, b := range want {
		if code[i] != b {
			t.Fatalf("code[%d] = %#x, want %#x", i, code[i], b)
		}
	}
}

func TestShortJumpWhenTargetIsAdjacent(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewStackPrologue(0))
	s.AddSegment(segment.NewConsumingMatchBranch(1, 'a', 2))
	s.AddSegment(segment.NewFailure(10)) // fall-through path, irrelevant to the jump
	s.AddSegment(segment.NewSuccess(2))  // match target, immediately reachable
	s.Finalize()

	code := s.WriteCode()
	// segment 1 starts right after the 4-byte prologue.
	branchStart := 4
	// je opcode is the 4th byte of the branch (after 0xb0 LL 0xae).
	if code[branchStart+3] != 0x74 {
		t.Fatalf("expected je rel8 (0x74) at offset %d, got %#x (full code % x)", branchStart+3, code[branchStart+3], code)
	}
}

func TestLongJumpWhenTargetIsFar(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewStackPrologue(0))
	s.AddSegment(segment.NewConsumingMatchBranch(1, 'a', 1000))
	// Pad with enough intervening segments that the maximum distance
	// exceeds the 8-bit range, forcing the 32-bit encoding.
	for i := uint32(2); i < 60; i++ {
		s.AddSegment(segment.NewConsumingElseBranch(i, 'z', 0))
	}
	s.AddSegment(segment.NewSuccess(1000))
	s.Finalize()

	db := s.DebugString()
	if db == "" {
		t.Fatal("expected non-empty debug string")
	}
	code := s.WriteCode()
	branchStart := 4
	if code[branchStart+3] != 0x0f || code[branchStart+4] != 0x84 {
		t.Fatalf("expected je rel32 (0f 84) at offset %d, got % x", branchStart+3, code[branchStart+3:branchStart+5])
	}
}

func TestAddSegmentDuplicateIDAborts(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewNoOp(0))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate segment id")
		}
	}()
	s.AddSegment(segment.NewNoOp(0))
}

func TestAddSegmentAfterFinalizeAborts(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewNoOp(0))
	s.Finalize()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic adding a segment after Finalize")
		}
	}()
	s.AddSegment(segment.NewNoOp(1))
}

func TestSizeBeforeFinalizeAborts(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewNoOp(0))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Size before Finalize")
		}
	}()
	s.Size()
}

func TestDebugStringIdempotent(t *testing.T) {
	s := New()
	s.AddSegment(segment.NewStackPrologue(0))
	s.AddSegment(segment.NewSuccess(1))
	s.Finalize()

	a := s.DebugString()
	b := s.DebugString()
	if a != b {
		t.Fatalf("DebugString not idempotent:\n%q\nvs\n%q", a, b)
	}
}
