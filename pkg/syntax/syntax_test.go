package syntax

import "testing"

func TestSpanContainsLine(t *testing.T) {
	s := Span{StartLine: 2, StartCol: 1, EndLine: 4, EndCol: 10}

	tests := []struct {
		line int
		want bool
	}{
		{1, false},
		{2, true},
		{3, true},
		{4, true},
		{5, false},
	}
	for _, tt := range tests {
		if got := s.ContainsLine(tt.line); got != tt.want {
			t.Errorf("ContainsLine(%d) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestSpanLineCount(t *testing.T) {
	if got := (Span{StartLine: 3, EndLine: 3}).LineCount(); got != 1 {
		t.Errorf("single-line span LineCount = %d, want 1", got)
	}
	if got := (Span{StartLine: 1, EndLine: 5}).LineCount(); got != 5 {
		t.Errorf("multi-line span LineCount = %d, want 5", got)
	}
}

func TestSpanString(t *testing.T) {
	s := Span{StartLine: 1, StartCol: 5, EndLine: 2, EndCol: 8}
	if got, want := s.String(), "1:5-2:8"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFieldChildren(t *testing.T) {
	a := &Node{Kind: "identifier", Text: "a"}
	b := &Node{Kind: "identifier", Text: "b"}

	tests := []struct {
		name  string
		field Field
		want  int
	}{
		{"scalar", Field{Name: "operator", Kind: ScalarField, Scalar: "+"}, 0},
		{"child", Field{Name: "left", Kind: ChildField, Child: a}, 1},
		{"list", Field{Kind: ListField, List: []*Node{a, b}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.field.Children()); got != tt.want {
				t.Errorf("Children() returned %d nodes, want %d", got, tt.want)
			}
		})
	}
}

func TestNodeField(t *testing.T) {
	n := &Node{
		Kind: "binary_operator",
		Fields: []Field{
			{Name: "left", Kind: ChildField, Child: &Node{Kind: "integer", Text: "1"}},
			{Name: "operator", Kind: ScalarField, Scalar: "+"},
			{Name: "right", Kind: ChildField, Child: &Node{Kind: "integer", Text: "2"}},
		},
	}

	f, ok := n.Field("operator")
	if !ok {
		t.Fatal("Field(operator) not found")
	}
	if f.Scalar != "+" {
		t.Errorf("operator scalar = %q, want %q", f.Scalar, "+")
	}
	if _, ok := n.Field("missing"); ok {
		t.Error("Field(missing) found, want not found")
	}
}

func TestNodeIsLeaf(t *testing.T) {
	leaf := &Node{Kind: "identifier", Text: "x"}
	if !leaf.IsLeaf() {
		t.Error("node without fields should be a leaf")
	}

	scalarOnly := &Node{
		Kind:   "pass_statement",
		Fields: []Field{{Name: "keyword", Kind: ScalarField, Scalar: "pass"}},
	}
	if !scalarOnly.IsLeaf() {
		t.Error("node with only scalar fields should be a leaf")
	}

	withChild := &Node{
		Kind:   "expression_statement",
		Fields: []Field{{Kind: ListField, List: []*Node{leaf}}},
	}
	if withChild.IsLeaf() {
		t.Error("node with child-bearing fields should not be a leaf")
	}
}

func TestNodeDepth(t *testing.T) {
	leaf := &Node{Kind: "integer", Text: "1"}
	mid := &Node{Kind: "expression_statement", Fields: []Field{{Kind: ListField, List: []*Node{leaf}}}}
	root := &Node{Kind: "module", Fields: []Field{{Kind: ListField, List: []*Node{mid}}}}

	if got := leaf.Depth(); got != 1 {
		t.Errorf("leaf Depth = %d, want 1", got)
	}
	if got := root.Depth(); got != 3 {
		t.Errorf("root Depth = %d, want 3", got)
	}
}
