package segment

import "testing"

// fakeOffsets is a minimal OffsetInterface for unit-testing segments in
// isolation from internal/subroutine.
type fakeOffsets struct {
	maxDistance map[[2]uint32]int
	absolute    map[uint32]int
}

func (f *fakeOffsets) MaximumDistance(a, b uint32) int {
	if d, ok := f.maxDistance[[2]uint32{a, b}]; ok {
		return d
	}
	if d, ok := f.maxDistance[[2]uint32{b, a}]; ok {
		return d
	}
	return 0
}

func (f *fakeOffsets) AbsoluteOffset(id uint32) int {
	return f.absolute[id]
}

func TestStaticSegmentBytes(t *testing.T) {
	cases := []struct {
		name string
		seg  Segment
		want []byte
	}{
		{"prologue", NewStackPrologue(0), []byte{0x55, 0x48, 0x89, 0xe5}},
		{"success", NewSuccess(1), []byte{0x48, 0xc7, 0xc0, 0x01, 0x00, 0x00, 0x00, 0x5d, 0xc3}},
		{"failure", NewFailure(2), []byte{0x31, 0xc0, 0x5d, 0xc3}},
		{"noop", NewNoOp(3), nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			off := &fakeOffsets{}
			c.seg.DetermineSize(off)
			c.seg.DetermineOffset(off)
			if c.seg.Size() != c.seg.MaxSize() {
				t.Errorf("size %d != max_size %d", c.seg.Size(), c.seg.MaxSize())
			}
			got := c.seg.WriteCode(nil)
			if string(got) != string(c.want) {
				t.Errorf("bytes = % x, want % x", got, c.want)
			}
		})
	}
}

func TestConsumingMatchBranchShortJump(t *testing.T) {
	// segment 0 is the branch itself; target is segment 1, immediately
	// adjacent, so the maximum inter-segment distance is 0.
	off := &fakeOffsets{
		maxDistance: map[[2]uint32]int{{0, 1}: 0},
		// jmp_source = absolute_offset(0) + preamble(3) + jump size(2) = 5;
		// placing the target at offset 5 makes the relative displacement 0.
		absolute: map[uint32]int{0: 0, 1: 5},
	}
	b := NewConsumingMatchBranch(0, 'a', 1)
	b.DetermineSize(off)
	if b.jmp.w != width8 {
		t.Fatalf("width = %v, want width8", b.jmp.w)
	}
	b.DetermineOffset(off)

	code := b.WriteCode(nil)
	want := []byte{
		0xb0, 'a', // mov $'a', %al
		0xae,       // scasb
		0x74, 0x00, // je rel8 (target immediately follows: offset 0)
		0x48, 0xff, 0xcf, // dec %rdi
	}
	if string(code) != string(want) {
		t.Fatalf("bytes = % x, want % x", code, want)
	}
}

func TestConsumingElseBranchLongJumpEscalation(t *testing.T) {
	// Force a distance large enough that only the 32-bit encoding fits.
	off := &fakeOffsets{
		maxDistance: map[[2]uint32]int{{0, 1}: 1000},
		absolute:    map[uint32]int{0: 0, 1: 1000},
	}
	b := NewConsumingElseBranch(0, 'x', 1)
	b.DetermineSize(off)
	if b.jmp.w != width32 {
		t.Fatalf("width = %v, want width32", b.jmp.w)
	}
	b.DetermineOffset(off)

	code := b.WriteCode(nil)
	if len(code) != 9 {
		t.Fatalf("len(code) = %d, want 9 (3 preamble + 6 rel32 jump)", len(code))
	}
	if code[3] != 0x0f || code[4] != 0x85 {
		t.Fatalf("expected 0f 85 (jne rel32) at offset 3, got % x", code[3:5])
	}
}

func TestConsumingMatchBranchSizeNeverExceedsMaxSize(t *testing.T) {
	off := &fakeOffsets{
		maxDistance: map[[2]uint32]int{{0, 1}: 0},
		absolute:    map[uint32]int{0: 0, 1: 5},
	}
	b := NewConsumingMatchBranch(0, 'a', 1)
	// Size() before DetermineSize aborts, so it is not called here; the
	// invariant is only asserted post-sizing below.
	b.DetermineSize(off)
	if b.Size() > b.MaxSize() {
		t.Fatalf("size %d > max_size %d", b.Size(), b.MaxSize())
	}
}

func TestCapacityErrorAborts(t *testing.T) {
	off := &fakeOffsets{
		maxDistance: map[[2]uint32]int{{0, 1}: 1 << 33},
		absolute:    map[uint32]int{},
	}
	b := NewConsumingMatchBranch(0, 'a', 1)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic for an unrepresentable displacement")
		}
	}()
	b.DetermineSize(off)
}

func TestContractViolationAborts(t *testing.T) {
	b := NewConsumingMatchBranch(0, 'a', 1)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic calling DetermineOffset before DetermineSize")
		}
	}()
	b.DetermineOffset(&fakeOffsets{})
}
