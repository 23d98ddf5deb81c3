// Package diag holds tinyjit's error and tracing conventions.
package diag

import (
	"fmt"
	"os"
)

// Category classifies a CompileError the way spec.md's error model splits
// failures into three buckets.
type Category int

const (
	// CategoryConstruction covers FSM construction errors: adding a
	// duplicate Char edge, or adding an edge after a Remainder edge.
	// These are surfaced to the caller; the FSM is left unchanged.
	CategoryConstruction Category = iota

	// CategoryContract covers lifecycle-ordering violations: calling
	// determine_offset before determine_size, writing code before
	// offsets are resolved, registering a duplicate segment id, adding
	// a segment to a finalized subroutine. Always a programming error.
	CategoryContract

	// CategoryCapacity covers a displacement that does not fit in a
	// signed 32-bit relative offset.
	CategoryCapacity
)

func (c Category) String() string {
	switch c {
	case CategoryConstruction:
		return "construction error"
	case CategoryContract:
		return "contract violation"
	case CategoryCapacity:
		return "capacity error"
	default:
		return "error"
	}
}

// CompileError is tinyjit's single error type, returned for
// CategoryConstruction and carried inside a panic for the other two
// categories (see the doc on internal/compile's Compile for the recover
// boundary).
type CompileError struct {
	Category Category
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// New builds a CompileError with a formatted message.
func New(cat Category, format string, args ...interface{}) *CompileError {
	return &CompileError{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// Fatal panics with a CompileError. Used for contract violations and
// capacity errors, which spec.md treats as programming/configuration
// errors rather than recoverable conditions (§7).
func Fatal(cat Category, format string, args ...interface{}) {
	panic(New(cat, format, args...))
}

// Verbose gates Tracef output. Set from main's -v flag.
var Verbose bool

// Tracef writes a diagnostic line to stderr when Verbose is set. Mirrors
// the teacher's VerboseMode-gated fmt.Fprintln(os.Stderr, ...) idiom.
func Tracef(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
