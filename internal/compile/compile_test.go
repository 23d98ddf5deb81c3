package compile

import (
	"testing"

	"github.com/xyproto/tinyjit/internal/demo"
)

// Every demo scenario's emitted code must begin with the stack prologue and
// satisfy the general shape spec.md §8 calls for: bytes starting with
// 55 48 89 e5, and (except for the trivial empty-alphabet scenario) at least
// one scasb (0xae) opcode.
func TestDemoScenariosCompile(t *testing.T) {
	prologue := []byte{0x55, 0x48, 0x89, 0xe5}

	for _, name := range demo.Names {
		name := name
		t.Run(name, func(t *testing.T) {
			f, err := demo.Build(name)
			if err != nil {
				t.Fatalf("demo.Build(%q): %v", name, err)
			}
			code, err := CompileBytes(f)
			if err != nil {
				t.Fatalf("CompileBytes(%q): %v", name, err)
			}
			if len(code) < len(prologue) {
				t.Fatalf("%s: code too short: % x", name, code)
			}
			for i, b := range prologue {
				if code[i] != b {
					t.Fatalf("%s: code[%d] = %#x, want %#x (prologue)", name, i, code[i], b)
				}
			}

			hasScasb := false
			for _, b := range code {
				if b == 0xae {
					hasScasb = true
					break
				}
			}
			if name == "empty" {
				if hasScasb {
					t.Fatalf("%s: expected no scasb byte for a language with no consuming transitions", name)
				}
			} else if !hasScasb {
				t.Fatalf("%s: expected at least one scasb (0xae) byte, got % x", name, code)
			}
		})
	}
}

// TestLongJumpStressForcesWideEncoding checks that scenario 5 actually
// exercises the 32-bit jump path somewhere in the emitted code, not just the
// narrow 8-bit one every other scenario uses exclusively.
func TestLongJumpStressForcesWideEncoding(t *testing.T) {
	f, err := demo.Build("long-jump-stress")
	if err != nil {
		t.Fatalf("demo.Build: %v", err)
	}
	code, err := CompileBytes(f)
	if err != nil {
		t.Fatalf("CompileBytes: %v", err)
	}

	hasRel32Jump := false
	for i := 0; i+1 < len(code); i++ {
		if code[i] == 0x0f && (code[i+1] == 0x84 || code[i+1] == 0x85) {
			hasRel32Jump = true
			break
		}
	}
	if !hasRel32Jump {
		t.Fatalf("expected at least one rel32 conditional jump (0f 84/85) in long-jump-stress output, got %d bytes", len(code))
	}
}

// TestCompileIsDeterministic checks that compiling the same FSM twice
// produces byte-identical output, since nothing in the pipeline should
// depend on map iteration order or other nondeterminism.
func TestCompileIsDeterministic(t *testing.T) {
	for _, name := range demo.Names {
		f1, err := demo.Build(name)
		if err != nil {
			t.Fatalf("demo.Build(%q): %v", name, err)
		}
		f2, err := demo.Build(name)
		if err != nil {
			t.Fatalf("demo.Build(%q): %v", name, err)
		}
		c1, err := CompileBytes(f1)
		if err != nil {
			t.Fatalf("CompileBytes(%q) #1: %v", name, err)
		}
		c2, err := CompileBytes(f2)
		if err != nil {
			t.Fatalf("CompileBytes(%q) #2: %v", name, err)
		}
		if len(c1) != len(c2) {
			t.Fatalf("%s: nondeterministic length: %d vs %d", name, len(c1), len(c2))
		}
		for i := range c1 {
			if c1[i] != c2[i] {
				t.Fatalf("%s: nondeterministic byte at %d: %#x vs %#x", name, i, c1[i], c2[i])
			}
		}
	}
}

// TestSubroutineSizeMatchesWrittenCode checks the invariant that Size()
// always equals the length of WriteCode()'s output, across every demo
// scenario, not just the hand-picked cases in internal/subroutine's own
// tests.
func TestSubroutineSizeMatchesWrittenCode(t *testing.T) {
	for _, name := range demo.Names {
		f, err := demo.Build(name)
		if err != nil {
			t.Fatalf("demo.Build(%q): %v", name, err)
		}
		sub, err := Compile(f)
		if err != nil {
			t.Fatalf("Compile(%q): %v", name, err)
		}
		code := sub.WriteCode()
		if len(code) != sub.Size() {
			t.Fatalf("%s: len(WriteCode()) = %d, want Size() = %d", name, len(code), sub.Size())
		}
	}
}

// TestEndsWithEpilogues checks every demo scenario's code ends with the
// failure epilogue, since internal/lower always appends Success then
// Failure last.
func TestEndsWithEpilogues(t *testing.T) {
	failure := []byte{0x31, 0xc0, 0x5d, 0xc3}
	for _, name := range demo.Names {
		f, err := demo.Build(name)
		if err != nil {
			t.Fatalf("demo.Build(%q): %v", name, err)
		}
		code, err := CompileBytes(f)
		if err != nil {
			t.Fatalf("CompileBytes(%q): %v", name, err)
		}
		if len(code) < len(failure) {
			t.Fatalf("%s: code too short for trailing failure epilogue: % x", name, code)
		}
		tail := code[len(code)-len(failure):]
		for i, b := range failure {
			if tail[i] != b {
				t.Fatalf("%s: trailing bytes % x, want failure epilogue % x", name, tail, failure)
			}
		}
	}
}
