// Package classify maps syntax node kinds to display rules.
//
// Classification decides, for each node, its display label, which fields are
// structural (child-bearing) and which are scalar (literal attributes folded
// into the label). Dispatch is a static table from kind tag to a small rule
// record, so unsupported kinds are an explicit, testable condition rather
// than an uncaught case.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/astviz/astviz/pkg/syntax"
)

// ErrUnsupportedKind is returned by [Classify] for node kinds without a rule.
// Callers can degrade gracefully with [Generic] or abort.
var ErrUnsupportedKind = errors.New("unsupported node kind")

// ScalarValue is one literal attribute of a node (operator text, tokens).
type ScalarValue struct {
	Name  string
	Value string
}

// StructuralField is one child-bearing field of a node, in declaration
// order. Sequence marks fields that hold an ordered list of children, which
// get an index suffix in edge roles.
type StructuralField struct {
	Role     string
	Nodes    []*syntax.Node
	Sequence bool
}

// Classification is the result of classifying one node: a ready display
// label (scalars already folded in) plus the structural fields to recurse
// into, in deterministic order.
type Classification struct {
	Label      string
	Structural []StructuralField
	Scalars    []ScalarValue
}

// Rule describes how to classify one node kind.
type Rule struct {
	// Label overrides the kind tag as the first label line.
	Label string
	// PositionalRole names the unnamed child sequence (statement lists,
	// elements). Defaults to "children".
	PositionalRole string
	// Inline renders leaf nodes as their source text instead of the kind
	// tag, so literals and identifiers show up as compact leaves.
	Inline bool
}

// defaultPositionalRole names unnamed child sequences when the rule does not.
const defaultPositionalRole = "children"

// Classify returns the classification for n, or ErrUnsupportedKind when the
// node's kind has no rule in the table.
func Classify(n *syntax.Node) (Classification, error) {
	rule, ok := rules[n.Kind]
	if !ok {
		return Classification{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, n.Kind)
	}
	return apply(n, rule), nil
}

// Generic classifies a node without a kind-specific rule: the kind tag is
// the label and every field is structural. This is the fallback rendering
// for grammar kinds the table does not know.
func Generic(n *syntax.Node) Classification {
	return apply(n, Rule{})
}

// Supported reports whether a classification rule exists for the kind.
func Supported(kind string) bool {
	_, ok := rules[kind]
	return ok
}

func apply(n *syntax.Node, rule Rule) Classification {
	var c Classification

	for _, f := range n.Fields {
		switch f.Kind {
		case syntax.ScalarField:
			c.Scalars = append(c.Scalars, ScalarValue{Name: f.Name, Value: f.Scalar})
		case syntax.ChildField:
			c.Structural = append(c.Structural, StructuralField{
				Role:  f.Name,
				Nodes: []*syntax.Node{f.Child},
			})
		case syntax.ListField:
			role := f.Name
			if role == "" {
				role = rule.PositionalRole
			}
			if role == "" {
				role = defaultPositionalRole
			}
			c.Structural = append(c.Structural, StructuralField{
				Role:     role,
				Nodes:    f.List,
				Sequence: true,
			})
		}
	}

	c.Label = buildLabel(n, rule, c.Scalars)
	return c
}

// buildLabel renders the display label: inline leaves show their source
// text; everything else shows the kind tag with one "name: value" line per
// scalar field, joined by newlines.
func buildLabel(n *syntax.Node, rule Rule, scalars []ScalarValue) string {
	if rule.Inline && n.IsLeaf() {
		return n.Text
	}

	head := rule.Label
	if head == "" {
		head = n.Kind
	}

	parts := make([]string, 0, 1+len(scalars))
	parts = append(parts, head)
	for _, s := range scalars {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Name, s.Value))
	}
	return strings.Join(parts, "\n")
}
