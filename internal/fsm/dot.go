package fsm

import (
	"fmt"
	"strconv"
	"strings"
)

// maxElseSize mirrors the original's kMaxElseSize: above this many alphabet
// characters, a Remainder edge renders as the literal "else" rather than
// the enumerated set of characters it actually covers.
const maxElseSize = 5

func translateLetter(c byte) string {
	if c == 0 {
		return "\\\\0"
	}
	return string(rune(c))
}

// ToDot renders the FSM as a Graphviz "digraph FSM { ... }" body for
// diagnostic tooling. Edges sharing a destination from the same source are
// coalesced onto one visual edge with a comma-separated label, in the order
// their labels were first encountered.
func (f *FSM) ToDot() string {
	var sb strings.Builder
	sb.WriteString("digraph FSM {\n")

	for _, id := range f.IterStates() {
		remaining := make(map[byte]bool, len(f.Alphabet))
		for _, c := range f.Alphabet {
			remaining[c] = true
		}

		// dest -> ordered labels, plus an ordering of first-seen dests.
		labelsByDest := make(map[uint32][]string)
		var destOrder []uint32
		seenDest := make(map[uint32]bool)

		for _, edge := range f.IterTransitions(id) {
			var labelStr string
			switch edge.Label.Kind {
			case Remainder:
				if len(f.Alphabet) <= maxElseSize {
					var left []byte
					for _, c := range f.Alphabet {
						if remaining[c] {
							left = append(left, c)
						}
					}
					for _, c := range left {
						labelsByDest[edge.Target] = append(labelsByDest[edge.Target], translateLetter(c))
					}
				} else {
					labelsByDest[edge.Target] = append(labelsByDest[edge.Target], "else")
				}
				if !seenDest[edge.Target] {
					seenDest[edge.Target] = true
					destOrder = append(destOrder, edge.Target)
				}
				// Remainder must be the last edge; stop processing.
				goto renderState
			case Epsilon:
				labelStr = "eps."
			case Char:
				delete(remaining, edge.Label.Letter)
				labelStr = translateLetter(edge.Label.Letter)
			}
			labelsByDest[edge.Target] = append(labelsByDest[edge.Target], labelStr)
			if !seenDest[edge.Target] {
				seenDest[edge.Target] = true
				destOrder = append(destOrder, edge.Target)
			}
		}

	renderState:
		for _, dest := range destOrder {
			fmt.Fprintf(&sb, "  %s -> %s [ label=\" %s\" ]\n",
				strconv.FormatUint(uint64(id), 10),
				strconv.FormatUint(uint64(dest), 10),
				strings.Join(labelsByDest[dest], ","))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
