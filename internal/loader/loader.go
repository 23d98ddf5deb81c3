//go:build amd64

// Package loader maps compiled machine code into executable memory and
// exposes it as a callable Go function, the way original_source/regexjit.cc's
// init_procedures/mmap pairing does, ported from raw mmap(2)/memcpy onto
// golang.org/x/sys/unix the way the teacher's filewatcher_unix.go already
// does for this codebase's other direct-syscall needs.
package loader

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// callProcedure is implemented in trampoline_amd64.s: it loads addr into a
// register and CALLs it with arg in %rdi, matching the System V AMD64 ABI
// the generated code expects, then returns whatever ended up in %rax. A
// hand-written func value cannot stand in for this jump: Go's own calling
// convention assigns argument registers differently from System V, so the
// generated code must always be entered through this trampoline rather than
// called as a plain Go func.
func callProcedure(addr, arg uintptr) uintptr

// Procedure is a loaded matcher: the System V AMD64 "uint8_t fn(const char*)"
// entrypoint spec.md's ABI section describes, called from Go through the
// callProcedure trampoline. Match reports whether the subroutine returned 1.
type Procedure struct {
	mem []byte // the mmap'd, PROT_EXEC region; retained so Close can munmap it
}

// Load maps code into a fresh, page-aligned, executable region and returns a
// Procedure ready to call. code must be the output of subroutine.WriteCode
// (or compile.CompileBytes) for a Subroutine built from a StackPrologue
// through Success/Failure epilogues.
func Load(code []byte) (*Procedure, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("loader: empty code")
	}

	mem, err := unix.Mmap(-1, 0, len(code),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("loader: mmap: %w", err)
	}
	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("loader: mprotect: %w", err)
	}

	return &Procedure{mem: mem}, nil
}

// Match calls the loaded subroutine with input as its sole argument, exactly
// as regex(argv[1]) does in original_source/example/runner.cc. input must be
// NUL-terminated for the generated code's scasb-driven scan to terminate
// correctly; Match appends a trailing 0 byte itself so callers can pass a
// plain Go string's bytes.
func (p *Procedure) Match(input []byte) bool {
	buf := make([]byte, len(input)+1)
	copy(buf, input)
	// buf[len(input)] is already the zero value, serving as the NUL
	// terminator the compiled scasb loop scans for.

	result := callProcedure(uintptr(unsafe.Pointer(&p.mem[0])), uintptr(unsafe.Pointer(&buf[0])))
	return result == 1
}

// Close unmaps the loaded code. The Procedure must not be called again
// afterward.
func (p *Procedure) Close() error {
	if p.mem == nil {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	return err
}
