// Package astgraph turns a parsed syntax tree into a renderable graph.
//
// The graph is the complete, serializable render contract: an ordered list
// of nodes (id, label, source span) and an ordered list of labeled edges.
// Any drawing backend can reconstruct an identical picture from this pair
// alone. Node ids are assigned in strict pre-order visitation sequence; the
// ordering is observable API, since consumers rely on id order matching
// source order.
package astgraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/astviz/astviz/pkg/syntax"
)

var (
	// ErrMalformedTree indicates the classifier and builder disagree about
	// tree shape (e.g. a structural field holding a nil child). This is a
	// bug in a classification rule, never a user input problem.
	ErrMalformedTree = errors.New("malformed tree")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node id outside the graph.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMultipleParents is returned by [Graph.Validate] when a node has
	// more than one incoming edge. Graphs must be forests.
	ErrMultipleParents = errors.New("node has more than one incoming edge")

	// ErrMultipleRoots is returned by [Graph.Validate] when more than one
	// node has no incoming edge.
	ErrMultipleRoots = errors.New("graph has more than one root")

	// ErrBackEdge is returned by [Graph.Validate] when an edge does not
	// point from a lower id to a higher one. Pre-order id assignment makes
	// forward-only edges a structural guarantee of acyclicity.
	ErrBackEdge = errors.New("edge does not follow pre-order direction")
)

// Node is one vertex of the rendered graph.
//
// Origin is a back-reference to the syntax node the vertex was derived
// from, used for cross-highlighting; it never owns the tree and is not
// serialized. Ids are stable for the lifetime of one build but not across
// rebuilds.
type Node struct {
	ID     int          `json:"id"`
	Label  string       `json:"label"`
	Span   syntax.Span  `json:"span"`
	Origin *syntax.Node `json:"-"`
}

// Edge is a directed, role-labeled connection between two nodes.
// Roles name the structural field that produced the edge: ".left" for
// single-child fields, ".body[0]" for sequence elements.
type Edge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Role string `json:"role,omitempty"`
}

// Graph is an ordered node/edge list forming a forest.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Root returns the unique node with no incoming edge.
func (g *Graph) Root() (Node, bool) {
	if len(g.Nodes) == 0 {
		return Node{}, false
	}
	indeg := g.inDegrees()
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			return n, true
		}
	}
	return Node{}, false
}

// Leaves returns all nodes with no outgoing edge, in id order.
func (g *Graph) Leaves() []Node {
	hasChild := make([]bool, len(g.Nodes))
	for _, e := range g.Edges {
		if e.From >= 0 && e.From < len(g.Nodes) {
			hasChild[e.From] = true
		}
	}
	var out []Node
	for _, n := range g.Nodes {
		if !hasChild[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the forest invariant: every node except exactly one root
// has in-degree 1, edge endpoints are valid, and edges point strictly
// forward in id order (which rules out cycles).
func (g *Graph) Validate() error {
	n := len(g.Nodes)
	for i, node := range g.Nodes {
		if node.ID != i {
			return fmt.Errorf("%w: node at index %d has id %d", ErrInvalidEdgeEndpoint, i, node.ID)
		}
	}

	indeg := make([]int, n)
	for _, e := range g.Edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return fmt.Errorf("%w: %d->%d", ErrInvalidEdgeEndpoint, e.From, e.To)
		}
		if e.From >= e.To {
			return fmt.Errorf("%w: %d->%d", ErrBackEdge, e.From, e.To)
		}
		indeg[e.To]++
		if indeg[e.To] > 1 {
			return fmt.Errorf("%w: node %d", ErrMultipleParents, e.To)
		}
	}

	roots := 0
	for _, d := range indeg {
		if d == 0 {
			roots++
		}
	}
	if n > 0 && roots != 1 {
		return fmt.Errorf("%w: found %d roots", ErrMultipleRoots, roots)
	}
	return nil
}

func (g *Graph) inDegrees() map[int]int {
	indeg := make(map[int]int, len(g.Nodes))
	for _, e := range g.Edges {
		indeg[e.To]++
	}
	return indeg
}

// Marshal converts a Graph to indented JSON bytes.
// Output ordering follows node and edge insertion order, so output is
// byte-identical across calls for the same graph.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a Graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a Graph to a JSON file with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Read decodes a JSON graph and validates the forest invariant.
func Read(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// ReadFile reads a JSON file and returns the decoded, validated Graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
