package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultMaxDepth bounds tree depth during conversion. Inputs nested deeper
// than this are rejected with a DepthError before the recursive walk can
// exhaust the stack.
const DefaultMaxDepth = 1000

// Mode selects the parse context for a source snippet.
type Mode int

const (
	// ModeModule parses the source as a module (a statement sequence).
	ModeModule Mode = iota
	// ModeExpression parses the source as a single expression. The grammar
	// has no dedicated expression entry point, so the text is parsed as a
	// module and must consist of exactly one expression statement, whose
	// inner expression becomes the root.
	ModeExpression
)

// ParseModeString converts a mode name ("module" or "expression") to a Mode.
func ParseModeString(s string) (Mode, error) {
	switch s {
	case "module":
		return ModeModule, nil
	case "expression":
		return ModeExpression, nil
	}
	return 0, fmt.Errorf("invalid parse mode: %q (must be 'module' or 'expression')", s)
}

// ParseError reports malformed source. Positions are 1-based.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// DepthError reports that the input tree exceeds the configured depth bound.
type DepthError struct {
	Limit int
}

// Error implements the error interface.
func (e *DepthError) Error() string {
	return fmt.Sprintf("recursion limit exceeded: tree depth is over the configured bound of %d", e.Limit)
}

// Parser converts Python source text into a [Node] tree.
// A Parser is cheap to construct and safe for sequential reuse; each Parse
// call creates its own tree-sitter parser instance.
type Parser struct {
	maxDepth int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth sets the tree depth bound. Values < 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n >= 1 {
			p.maxDepth = n
		}
	}
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses source and returns the root of the converted tree.
//
// Malformed source yields a *ParseError with position information; trees
// nested beyond the depth bound yield a *DepthError. The returned tree is
// fully detached from tree-sitter state and immutable.
func (p *Parser) Parse(ctx context.Context, source string, mode Mode) (*Node, error) {
	src := []byte(source)

	sp := sitter.NewParser()
	sp.SetLanguage(python.GetLanguage())

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstSyntaxError(root, src)
	}

	node, err := convert(root, src, 1, p.maxDepth)
	if err != nil {
		return nil, err
	}

	if mode == ModeExpression {
		return unwrapExpression(node)
	}
	return node, nil
}

// convert translates one tree-sitter node (and its subtree) into a Node.
//
// Field grouping rules:
//   - anonymous tokens bound to a grammar field (e.g. the operator of a
//     binary expression) become scalar fields holding the token text
//   - named children bound to a field become a child field, promoted to a
//     list field when the grammar repeats the name
//   - named children without a field name are gathered, in order, into a
//     single unnamed list field (statement and element sequences)
//
// Comments are dropped: they are trivia, not program structure.
func convert(n *sitter.Node, src []byte, depth, maxDepth int) (*Node, error) {
	if depth > maxDepth {
		return nil, &DepthError{Limit: maxDepth}
	}

	out := &Node{Kind: n.Type(), Span: spanOf(n)}

	cursor := sitter.NewTreeCursor(n)
	defer cursor.Close()

	if cursor.GoToFirstChild() {
		for {
			child := cursor.CurrentNode()
			name := cursor.CurrentFieldName()
			switch {
			case !child.IsNamed():
				if name != "" {
					out.Fields = append(out.Fields, Field{Name: name, Kind: ScalarField, Scalar: child.Content(src)})
				}
			case child.Type() == "comment":
				// skip
			default:
				converted, err := convert(child, src, depth+1, maxDepth)
				if err != nil {
					return nil, err
				}
				appendChild(out, name, converted)
			}
			if !cursor.GoToNextSibling() {
				break
			}
		}
	}

	if out.IsLeaf() {
		out.Text = n.Content(src)
	}
	return out, nil
}

// appendChild attaches a converted child under the field with the given
// name, creating the field on first use and promoting it to a list when
// the name repeats.
func appendChild(parent *Node, name string, child *Node) {
	for i := range parent.Fields {
		f := &parent.Fields[i]
		if f.Name != name || f.Kind == ScalarField {
			continue
		}
		if f.Kind == ChildField {
			f.Kind = ListField
			f.List = []*Node{f.Child, child}
			f.Child = nil
		} else {
			f.List = append(f.List, child)
		}
		return
	}

	if name == "" {
		parent.Fields = append(parent.Fields, Field{Kind: ListField, List: []*Node{child}})
		return
	}
	parent.Fields = append(parent.Fields, Field{Name: name, Kind: ChildField, Child: child})
}

// unwrapExpression extracts the sole expression from a single-statement
// module, for ModeExpression parses.
func unwrapExpression(root *Node) (*Node, error) {
	fail := func(n *Node, msg string) error {
		return &ParseError{Line: n.Span.StartLine, Col: n.Span.StartCol, Message: msg}
	}

	if root.Kind != "module" || len(root.Fields) != 1 {
		return nil, fail(root, "expression mode requires a single expression")
	}
	stmts := root.Fields[0].Children()
	if len(stmts) != 1 || stmts[0].Kind != "expression_statement" {
		return nil, fail(root, "expression mode requires a single expression")
	}
	inner := stmts[0].Children()
	if len(inner) != 1 {
		return nil, fail(stmts[0], "expression mode requires a single expression")
	}
	return inner[0], nil
}

// Children returns all child nodes of n, in field order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, f := range n.Fields {
		out = append(out, f.Children()...)
	}
	return out
}

func spanOf(n *sitter.Node) Span {
	start, end := n.StartPoint(), n.EndPoint()
	return Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

// firstSyntaxError locates the first ERROR or missing node in a parse tree
// and converts it into a *ParseError.
func firstSyntaxError(n *sitter.Node, src []byte) error {
	if n.Type() == "ERROR" || n.IsMissing() {
		snippet := n.Content(src)
		if len(snippet) > 20 {
			snippet = snippet[:20] + "..."
		}
		msg := fmt.Sprintf("invalid syntax near %q", snippet)
		if n.IsMissing() {
			msg = fmt.Sprintf("missing %s", n.Type())
		}
		p := spanOf(n)
		return &ParseError{Line: p.StartLine, Col: p.StartCol, Message: msg}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.HasError() || child.IsMissing() {
			return firstSyntaxError(child, src)
		}
	}
	p := spanOf(n)
	return &ParseError{Line: p.StartLine, Col: p.StartCol, Message: "invalid syntax"}
}
