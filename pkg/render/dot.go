package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/astviz/astviz/pkg/astgraph"
)

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG],
// or fed to any other Graphviz frontend.
func ToDOT(g *astgraph.Graph, st Style) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")

	fmt.Fprintf(&buf, "  graph [bgcolor=\"transparent\" fontname=%q fontcolor=%q fontsize=%d rankdir=%s ranksep=%g nodesep=%g splines=%s ratio=compress",
		st.FontName, st.FontColor, st.FontSize, st.RankDir, st.RankSep, st.NodeSep, st.Splines)
	if size := st.sizeAttr(); size != "" {
		buf.WriteString(" " + size)
	}
	buf.WriteString("];\n")

	fmt.Fprintf(&buf, "  node [fontname=%q fontcolor=%q fontsize=%d shape=box style=\"rounded,filled\" fillcolor=%q color=%q penwidth=%g];\n",
		st.FontName, st.FontColor, st.FontSize, st.FillColor, st.BorderColor, st.PenWidth)
	fmt.Fprintf(&buf, "  edge [fontname=%q fontcolor=%q fontsize=%d color=%q penwidth=%g arrowsize=%g];\n",
		st.FontName, st.EdgeFontColor, st.EdgeFontSize, st.EdgeColor, st.EdgePenWidth, st.EdgeArrowSize)
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %d [label=\"%s\"];\n", n.ID, escapeLabel(n.Label))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %d -> %d [label=\"%s\"];\n", e.From, e.To, escapeLabel(e.Role))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// escapeLabel makes a label safe inside a double-quoted DOT string.
// Multi-line labels use the \n escape, matching Graphviz line breaks.
var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG, true)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG, false)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format, normalize bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if normalize {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element to a zero-origin viewBox
// with explicit width/height, which embeds cleanly in HTML containers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
