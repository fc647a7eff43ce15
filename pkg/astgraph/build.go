package astgraph

import (
	"errors"
	"fmt"

	"github.com/astviz/astviz/pkg/classify"
	"github.com/astviz/astviz/pkg/syntax"
)

// Mode selects the graph building policy.
type Mode int

const (
	// Raw emits every visited syntax node as its own graph node.
	Raw Mode = iota
	// Optimized elides transparent wrapper nodes: a node with exactly one
	// structural field holding exactly one child and no scalar fields is
	// skipped, its child spliced into the parent with the original edge
	// role preserved.
	Optimized
)

// ParseMode converts a mode name ("raw" or "optimized") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw":
		return Raw, nil
	case "optimized":
		return Optimized, nil
	}
	return 0, fmt.Errorf("invalid render mode: %q (must be 'raw' or 'optimized')", s)
}

// String returns the mode name.
func (m Mode) String() string {
	if m == Optimized {
		return "optimized"
	}
	return "raw"
}

// ClassifyFunc resolves a syntax node to its classification.
type ClassifyFunc func(*syntax.Node) (classify.Classification, error)

// Options configures a build pass.
type Options struct {
	// Mode selects raw or optimized output. Defaults to Raw.
	Mode Mode

	// MaxDepth bounds recursion into the tree. Defaults to
	// syntax.DefaultMaxDepth; inputs deeper than the bound are rejected
	// with a *syntax.DepthError before the stack can be exhausted.
	MaxDepth int

	// Fallback enables generic rendering for unsupported node kinds
	// instead of aborting the build.
	Fallback bool

	// Classify resolves node classifications. Defaults to classify.Classify.
	Classify ClassifyFunc
}

// Build walks the tree depth-first in pre-order and produces the graph.
//
// Building is a pure function of (tree, options): two invocations over the
// same input yield identical node ids, labels, and edge lists. The input
// tree is never mutated.
//
// Error conditions: *syntax.DepthError past MaxDepth, ErrMalformedTree when
// a classification names a nil child, and classify.ErrUnsupportedKind for
// unknown kinds unless Fallback is set.
func Build(tree *syntax.Node, opts Options) (*Graph, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil root", ErrMalformedTree)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = syntax.DefaultMaxDepth
	}
	if opts.Classify == nil {
		opts.Classify = classify.Classify
	}

	b := &builder{opts: opts, graph: &Graph{}}
	if err := b.walk(tree, -1, "", 1); err != nil {
		return nil, err
	}
	return b.graph, nil
}

type builder struct {
	opts  Options
	graph *Graph
}

func (b *builder) classify(n *syntax.Node) (classify.Classification, error) {
	c, err := b.opts.Classify(n)
	if err == nil {
		return c, nil
	}
	if b.opts.Fallback && errors.Is(err, classify.ErrUnsupportedKind) {
		return classify.Generic(n), nil
	}
	return classify.Classification{}, err
}

// walk emits a graph node for n (unless elided) and recurses into its
// structural fields in the classifier's declared order.
func (b *builder) walk(n *syntax.Node, parent int, role string, depth int) error {
	if depth > b.opts.MaxDepth {
		return &syntax.DepthError{Limit: b.opts.MaxDepth}
	}

	c, err := b.classify(n)
	if err != nil {
		return err
	}

	if b.opts.Mode == Optimized {
		if child, ok := spliceTarget(c); ok {
			return b.walk(child, parent, role, depth+1)
		}
	}

	id := len(b.graph.Nodes)
	b.graph.Nodes = append(b.graph.Nodes, Node{ID: id, Label: c.Label, Span: n.Span, Origin: n})
	if parent >= 0 {
		b.graph.Edges = append(b.graph.Edges, Edge{From: parent, To: id, Role: role})
	}

	for _, f := range c.Structural {
		for i, child := range f.Nodes {
			if child == nil {
				return fmt.Errorf("%w: %s field %q holds a nil child", ErrMalformedTree, n.Kind, f.Role)
			}
			childRole := "." + f.Role
			if f.Sequence {
				childRole = fmt.Sprintf(".%s[%d]", f.Role, i)
			}
			if err := b.walk(child, id, childRole, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// spliceTarget reports whether a classified node is a transparent wrapper
// and returns the single child to splice in its place. The test is purely
// structural: one structural field, one child, no scalar fields.
func spliceTarget(c classify.Classification) (*syntax.Node, bool) {
	if len(c.Scalars) != 0 || len(c.Structural) != 1 {
		return nil, false
	}
	if len(c.Structural[0].Nodes) != 1 {
		return nil, false
	}
	return c.Structural[0].Nodes[0], true
}
