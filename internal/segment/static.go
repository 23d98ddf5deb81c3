package segment

import "fmt"

// staticSegment is the shared implementation for a fixed byte sequence
// whose size never changes: determine_size and determine_offset are
// no-ops, size() == max_size() always. Grounded on
// original_source/assembly_segment.h's StaticCodeSegment base class;
// modeled here as embedded-by-value composition rather than inheritance,
// per spec.md §9's guidance.
type staticSegment struct {
	id   uint32
	code []byte
}

func (s *staticSegment) ID() uint32                      { return s.id }
func (s *staticSegment) MaxSize() int                    { return len(s.code) }
func (s *staticSegment) Size() int                       { return len(s.code) }
func (s *staticSegment) DetermineSize(OffsetInterface)   {}
func (s *staticSegment) DetermineOffset(OffsetInterface) {}
func (s *staticSegment) WriteCode(buf []byte) []byte {
	return append(buf, s.code...)
}

// NoOp is a zero-byte segment that exists solely to give a binarized FSM
// state with a single out-edge a stable segment id for jump targets to
// refer to (spec.md §4.5).
type NoOp struct{ staticSegment }

// NewNoOp returns a zero-byte segment with the given id.
func NewNoOp(id uint32) *NoOp {
	return &NoOp{staticSegment{id: id}}
}

func (n *NoOp) DebugString() string {
	return fmt.Sprintf(".section_%d:\n    ; no-op\n", n.id)
}

// StackPrologue pushes %rbp and sets up the frame: "push %rbp; mov %rsp,
// %rbp".
type StackPrologue struct{ staticSegment }

var stackPrologueCode = []byte{0x55, 0x48, 0x89, 0xe5}

// NewStackPrologue returns the fixed stack-frame prologue segment.
func NewStackPrologue(id uint32) *StackPrologue {
	return &StackPrologue{staticSegment{id: id, code: stackPrologueCode}}
}

func (p *StackPrologue) DebugString() string {
	return fmt.Sprintf(".section_%d:\n    push %%rbp\n    mov %%rsp, %%rbp\n", p.id)
}

// Success sets %rax = 1 and returns.
type Success struct{ staticSegment }

var successCode = []byte{0x48, 0xc7, 0xc0, 0x01, 0x00, 0x00, 0x00, 0x5d, 0xc3}

// NewSuccess returns the fixed success-epilogue segment.
func NewSuccess(id uint32) *Success {
	return &Success{staticSegment{id: id, code: successCode}}
}

func (s *Success) DebugString() string {
	return fmt.Sprintf(".section_%d:  ; success\n    mov $1, %%rax\n    pop %%rbp\n    retq\n", s.id)
}

// Failure sets %rax = 0 (via xor) and returns.
type Failure struct{ staticSegment }

var failureCode = []byte{0x31, 0xc0, 0x5d, 0xc3}

// NewFailure returns the fixed failure-epilogue segment.
func NewFailure(id uint32) *Failure {
	return &Failure{staticSegment{id: id, code: failureCode}}
}

func (f *Failure) DebugString() string {
	return fmt.Sprintf(".section_%d:  ; failure\n    xor %%eax, %%eax\n    pop %%rbp\n    retq\n", f.id)
}
