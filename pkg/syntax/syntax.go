// Package syntax parses Python source text into an immutable syntax tree.
//
// Parsing is delegated to tree-sitter; the resulting tree is converted into
// [Node] values that carry the node kind, an ordered list of fields, and the
// source span. Once built, a tree is never mutated - downstream consumers
// (classification, graph building, bytecode alignment) treat it as read-only
// input.
package syntax

import "fmt"

// Span is a half-open region of source text. Lines and columns are 1-based.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// ContainsLine reports whether the span covers the given 1-based line.
func (s Span) ContainsLine(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// LineCount returns the number of source lines the span covers.
func (s Span) LineCount() int {
	return s.EndLine - s.StartLine + 1
}

// String returns the span in "line:col-line:col" form.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

// FieldKind distinguishes the three shapes a field value can take.
type FieldKind int

const (
	// ScalarField holds a literal token value (operator text, keywords).
	ScalarField FieldKind = iota
	// ChildField holds exactly one child node.
	ChildField
	// ListField holds an ordered sequence of child nodes.
	ListField
)

// Field is one named slot of a syntax node. Name is the grammar field name,
// or empty for positional children (statement lists, argument sequences).
// Exactly one of Scalar, Child, or List is meaningful, selected by Kind.
type Field struct {
	Name   string
	Kind   FieldKind
	Scalar string
	Child  *Node
	List   []*Node
}

// Children returns the field's child nodes regardless of kind.
// Scalar fields have none.
func (f Field) Children() []*Node {
	switch f.Kind {
	case ChildField:
		return []*Node{f.Child}
	case ListField:
		return f.List
	default:
		return nil
	}
}

// Node is one vertex of the parsed syntax tree. Fields preserve the
// grammar's declaration order, which makes every traversal of the tree
// deterministic. Text is populated for leaf nodes only and holds the
// node's source text.
type Node struct {
	Kind   string
	Text   string
	Fields []Field
	Span   Span
}

// Field returns the first field with the given name.
func (n *Node) Field(name string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// IsLeaf reports whether the node has no child-bearing fields.
func (n *Node) IsLeaf() bool {
	for _, f := range n.Fields {
		if f.Kind != ScalarField {
			return false
		}
	}
	return true
}

// Depth returns the height of the tree rooted at n. A leaf has depth 1.
func (n *Node) Depth() int {
	max := 0
	for _, f := range n.Fields {
		for _, c := range f.Children() {
			if d := c.Depth(); d > max {
				max = d
			}
		}
	}
	return max + 1
}
