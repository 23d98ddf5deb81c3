// Command tinyjit compiles a finite-state machine describing a regular
// language into x86-64 machine code and, optionally, a runnable static
// executable or an in-process match test. The FSM itself is never parsed
// from regex syntax here — see internal/demo for the handful of
// hand-assembled example languages this CLI drives against (spec.md's own
// scope explicitly excludes surface regex syntax, treating it as an
// external collaborator).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xyproto/tinyjit/internal/compile"
	"github.com/xyproto/tinyjit/internal/demo"
	"github.com/xyproto/tinyjit/internal/diag"
	"github.com/xyproto/tinyjit/internal/elfexec"
	"github.com/xyproto/tinyjit/internal/fsm"
	"github.com/xyproto/tinyjit/internal/loader"
)

const versionString = "tinyjit 0.1.0"

// VerboseMode mirrors the teacher's global verbosity flag, gating
// diag.Tracef output.
var VerboseMode bool

func main() {
	var patternFlag = flag.String("pattern", "a", "demo FSM to compile: "+strings.Join(demo.Names, ", "))
	var outputFilenameFlag = flag.String("o", "", "write a standalone Linux/amd64 ELF64 executable to this path")
	var runFlag = flag.String("run", "", "load the compiled matcher in-process and test it against this string")
	var dotFlag = flag.Bool("dot", false, "print the FSM's Graphviz dot representation and exit")
	var debugAsmFlag = flag.Bool("debug-asm", false, "print an AT&T-syntax listing of the compiled subroutine")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	var verbose = flag.Bool("v", false, "verbose mode (show compilation trace messages)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (show compilation trace messages)")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	VerboseMode = *verbose || *verboseLong
	diag.Verbose = VerboseMode
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "DEBUG main: VerboseMode enabled\n")
	}

	f, err := demo.Build(*patternFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tinyjit:", err)
		os.Exit(1)
	}

	if *dotFlag {
		fmt.Print(f.ToDot())
		return
	}

	sub, err := compile.Compile(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tinyjit: compile error:", err)
		os.Exit(1)
	}

	if *debugAsmFlag {
		fmt.Print(sub.DebugString())
	}

	if *outputFilenameFlag != "" {
		writeExecutable(f, *outputFilenameFlag)
	}

	if *runFlag != "" {
		matchInProcess(sub.WriteCode(), *runFlag)
	}

	if !*debugAsmFlag && *outputFilenameFlag == "" && *runFlag == "" {
		fmt.Printf("compiled %q: %d states, %d bytes of machine code\n", *patternFlag, f.NumStates(), sub.Size())
	}
}

// writeExecutable rebuilds f into a standalone ELF64 executable (rather
// than reusing sub's already-finalized segments) since elfexec.Build needs
// to splice its own _start glue segments into the same Subroutine as the
// matcher, which requires lowering and finalizing from scratch.
func writeExecutable(f *fsm.FSM, path string) {
	data, err := elfexec.Build(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tinyjit: elfexec:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "tinyjit: writing executable:", err)
		os.Exit(1)
	}
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "DEBUG main: wrote %d bytes to %s\n", len(data), path)
	}
}

// matchInProcess loads code via internal/loader and runs it against input,
// printing the same two lines original_source/example/runner.cc's own CLI
// driver does.
func matchInProcess(code []byte, input string) {
	proc, err := loader.Load(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tinyjit: loader:", err)
		os.Exit(1)
	}
	defer proc.Close()

	if proc.Match([]byte(input)) {
		fmt.Println("Matched.")
	} else {
		fmt.Println("Did not match.")
	}
}
