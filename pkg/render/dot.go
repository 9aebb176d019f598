// Package render turns computed layouts into viewable artifacts.
//
// The layout engine owns all geometry, so rendering pins every element at
// its computed position instead of re-running a layout algorithm: nodes
// carry `pos="x,y!"` attributes and the emitted DOT selects the neato
// engine, which honors pinned positions and only routes edge splines.
// SVG and PNG output use [github.com/goccy/go-graphviz] in-process.
package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
)

// pointsPerUnit maps layout units to DOT points. Layout coordinates are
// already pixel-ish, so 1:1 keeps gaps readable.
const pointsPerUnit = 1.0

// ToDOT converts a laid-out graph to Graphviz DOT with pinned positions.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Containers are drawn as grey rounded boxes beneath their contents;
// z-order is preserved by emitting nodes in ascending z.
func ToDOT(res *layout.Result) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  graph [layout=neato, splines=true, outputorder=nodesfirst];\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	nodes := make([]graph.Node, len(res.Nodes))
	copy(nodes, res.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return zOf(&nodes[i]) < zOf(&nodes[j])
	})

	for i := range nodes {
		n := &nodes[i]
		if n.Transform == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, nodeAttrs(n))
	}

	buf.WriteString("\n")
	for i := range res.Edges {
		e := &res.Edges[i]
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func zOf(n *graph.Node) int {
	if n.Transform == nil {
		return 0
	}
	return n.Transform.Z
}

func nodeAttrs(n *graph.Node) string {
	t := n.Transform
	cx := (t.X + t.Width/2) * pointsPerUnit
	// DOT's y axis points up; layout's points down.
	cy := -(t.Y + t.Height/2) * pointsPerUnit

	// Graphviz sizes are in inches (72 points each).
	attrs := fmt.Sprintf("label=%q, pos=\"%.2f,%.2f!\", width=%.4f, height=%.4f, fixedsize=true",
		n.ID, cx, cy, t.Width*pointsPerUnit/72, t.Height*pointsPerUnit/72)
	if n.IsContainer() {
		attrs += `, fillcolor=lightgrey, labelloc=t`
	}
	return attrs
}
