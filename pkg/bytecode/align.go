package bytecode

import "github.com/astviz/astviz/pkg/astgraph"

// NoNode marks instructions that align to no graph node.
const NoNode = -1

// Align maps each instruction to the graph node whose span contains the
// instruction's source line, preferring the most deeply nested match: the
// node covering the fewest lines wins, with later pre-order position
// breaking remaining ties (later means deeper or further right in source).
//
// Instructions without line information map to NoNode rather than failing;
// synthetic instructions are expected and not an error.
func Align(instrs []Instruction, g *astgraph.Graph) []int {
	out := make([]int, len(instrs))
	for i, ins := range instrs {
		out[i] = nodeForLine(g, ins.Line)
	}
	return out
}

func nodeForLine(g *astgraph.Graph, line int) int {
	if line <= 0 {
		return NoNode
	}

	best := NoNode
	bestLines := 0
	for _, n := range g.Nodes {
		if !n.Span.ContainsLine(line) {
			continue
		}
		lc := n.Span.LineCount()
		if best == NoNode || lc <= bestLines {
			best = n.ID
			bestLines = lc
		}
	}
	return best
}
