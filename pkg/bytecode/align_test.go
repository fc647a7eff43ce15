package bytecode

import (
	"testing"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/syntax"
)

// alignGraph covers two source lines: a module spanning both, a statement
// per line, and a leaf on line 1 sharing the statement's span.
func alignGraph() *astgraph.Graph {
	return &astgraph.Graph{
		Nodes: []astgraph.Node{
			{ID: 0, Label: "module", Span: syntax.Span{StartLine: 1, EndLine: 2}},
			{ID: 1, Label: "assignment", Span: syntax.Span{StartLine: 1, EndLine: 1}},
			{ID: 2, Label: "x", Span: syntax.Span{StartLine: 1, EndLine: 1}},
			{ID: 3, Label: "return_statement", Span: syntax.Span{StartLine: 2, EndLine: 2}},
		},
		Edges: []astgraph.Edge{
			{From: 0, To: 1, Role: ".body[0]"},
			{From: 1, To: 2, Role: ".left"},
			{From: 0, To: 3, Role: ".body[1]"},
		},
	}
}

func TestAlign(t *testing.T) {
	g := alignGraph()
	instrs := []Instruction{
		{Offset: 0, Opcode: "RESUME", Line: 0},
		{Offset: 2, Opcode: "LOAD_CONST", Line: 1},
		{Offset: 4, Opcode: "RETURN_VALUE", Line: 2},
		{Offset: 6, Opcode: "NOP", Line: 9},
	}

	got := Align(instrs, g)
	want := []int{NoNode, 2, 3, NoNode}

	if len(got) != len(want) {
		t.Fatalf("got %d alignments, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d aligned to %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAlignInnermostWins(t *testing.T) {
	// Line 1 is covered by the module (2 lines), the assignment (1 line),
	// and the leaf (1 line). The fewest-lines rule eliminates the module;
	// the later pre-order id breaks the remaining tie toward the leaf.
	g := alignGraph()
	got := nodeForLine(g, 1)
	if got != 2 {
		t.Errorf("nodeForLine(1) = %d, want the leaf node 2", got)
	}
}

func TestAlignNoLine(t *testing.T) {
	g := alignGraph()
	if got := nodeForLine(g, 0); got != NoNode {
		t.Errorf("nodeForLine(0) = %d, want NoNode", got)
	}
	if got := nodeForLine(g, -3); got != NoNode {
		t.Errorf("nodeForLine(-3) = %d, want NoNode", got)
	}
}

func TestAlignUncoveredLine(t *testing.T) {
	g := alignGraph()
	if got := nodeForLine(g, 50); got != NoNode {
		t.Errorf("nodeForLine(50) = %d, want NoNode", got)
	}
}

func TestAlignEmptyGraph(t *testing.T) {
	got := Align([]Instruction{{Offset: 0, Opcode: "RESUME", Line: 1}}, &astgraph.Graph{})
	if len(got) != 1 || got[0] != NoNode {
		t.Errorf("alignment against empty graph = %v, want [NoNode]", got)
	}
}
