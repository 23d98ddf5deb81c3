// Package elfexec writes a minimal static, non-PIE ELF64 executable that
// calls a compiled matcher subroutine against argv[1] and exits with its
// match result as the process exit code — a from-scratch simplification of
// the teacher's elf_writer.go/elf_complete.go (which targets dynamically
// linked, multi-section, multi-architecture executables): one PT_LOAD
// segment, no section headers, no dynamic linking, no .rodata/.data. Models
// original_source/example/runner.cc's CLI-driver role, but as a freestanding
// _start rather than a libc-linked main.
package elfexec

import (
	"encoding/binary"
	"fmt"

	"github.com/xyproto/tinyjit/internal/binarize"
	"github.com/xyproto/tinyjit/internal/diag"
	"github.com/xyproto/tinyjit/internal/fsm"
	"github.com/xyproto/tinyjit/internal/lower"
	"github.com/xyproto/tinyjit/internal/segment"
	"github.com/xyproto/tinyjit/internal/subroutine"
)

const (
	baseAddr      = 0x400000
	pageSize      = 0x1000
	elfHeaderSize = 64
	progHdrSize   = 56
	numProgHdrs   = 1
	headerSize    = elfHeaderSize + numProgHdrs*progHdrSize
)

// Reserved segment ids for the hand-written _start glue, chosen from the
// middle of the uint32 space so they never collide with an FSM's state ids
// (small, dense, starting at 0) or with lower.Lower's own reserved ids (the
// prologue at ^uint32(0), and synthetic jumps counting down from just below
// it).
const (
	stubMovArgvID = uint32(1) << 31
	stubCallID    = stubMovArgvID + 1
	stubExitID    = stubMovArgvID + 2
)

// Build compiles f into a matcher and wraps it in a freestanding _start that
// reads argv[1], calls the matcher, and exits with 1 (matched) or 0
// (unmatched) as the process exit status. Returns the complete ELF64 file
// contents.
func Build(f *fsm.FSM) ([]byte, error) {
	sub, err := buildSubroutine(f)
	if err != nil {
		return nil, err
	}
	text := sub.WriteCode()
	return wrapELF(text), nil
}

func buildSubroutine(f *fsm.FSM) (sub *subroutine.Subroutine, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*diag.CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	bin := binarize.ToBinarized(f)
	matcherSegs := lower.Lower(bin)

	sub = subroutine.New()

	// mov rdi, [rsp+0x10]: argv[1], the second command-line argument,
	// sitting 0x10 bytes above rsp at process entry (rsp -> argc,
	// rsp+8 -> argv[0], rsp+0x10 -> argv[1]).
	sub.AddSegment(segment.NewRawBytes(stubMovArgvID, []byte{0x48, 0x8b, 0x7c, 0x24, 0x10}))
	sub.AddSegment(segment.NewCall(stubCallID, matcherSegs[0].ID()))
	// movzx edi, al ; mov eax, 60 ; syscall -- exit(matched) via sys_exit,
	// using the matcher's %al return value (see segment.Success/Failure)
	// directly as the process exit status.
	sub.AddSegment(segment.NewRawBytes(stubExitID, []byte{
		0x0f, 0xb6, 0xf8,
		0xb8, 0x3c, 0x00, 0x00, 0x00,
		0x0f, 0x05,
	}))

	for _, seg := range matcherSegs {
		sub.AddSegment(seg)
	}
	sub.Finalize()
	diag.Tracef("elfexec: assembled %d bytes of text (glue + matcher)", sub.Size())
	return sub, nil
}

func wrapELF(text []byte) []byte {
	entry := uint64(baseAddr + headerSize)
	fileSize := uint64(headerSize + len(text))

	buf := make([]byte, 0, fileSize)

	// e_ident
	buf = append(buf, 0x7f, 'E', 'L', 'F',
		2, // ELFCLASS64
		1, // ELFDATA2LSB
		1, // EV_CURRENT
		3, // ELFOSABI_LINUX
	)
	buf = append(buf, make([]byte, 8)...) // e_ident padding

	buf = le16(buf, 2)        // e_type: ET_EXEC
	buf = le16(buf, 0x3e)     // e_machine: EM_X86_64
	buf = le32(buf, 1)        // e_version
	buf = le64(buf, entry)    // e_entry
	buf = le64(buf, elfHeaderSize) // e_phoff
	buf = le64(buf, 0)        // e_shoff
	buf = le32(buf, 0)        // e_flags
	buf = le16(buf, elfHeaderSize)
	buf = le16(buf, progHdrSize)
	buf = le16(buf, numProgHdrs)
	buf = le16(buf, 0) // e_shentsize
	buf = le16(buf, 0) // e_shnum
	buf = le16(buf, 0) // e_shstrndx

	// PT_LOAD covering the entire file: headers + text, read + execute.
	buf = le32(buf, 1) // p_type: PT_LOAD
	buf = le32(buf, 5) // p_flags: PF_R | PF_X
	buf = le64(buf, 0)
	buf = le64(buf, baseAddr)
	buf = le64(buf, baseAddr)
	buf = le64(buf, fileSize)
	buf = le64(buf, fileSize)
	buf = le64(buf, pageSize)

	if len(buf) != headerSize {
		panic(fmt.Sprintf("elfexec: header size mismatch: wrote %d, want %d", len(buf), headerSize))
	}

	buf = append(buf, text...)
	return buf
}

func le16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func le32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func le64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
