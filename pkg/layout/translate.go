package layout

import (
	"math"

	"github.com/nestflow/nestflow/pkg/assemble"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/hierarchy"
	"github.com/nestflow/nestflow/pkg/solver"
)

// translate converts solved centers and group boxes into top-left node
// transforms and edge polylines, then shifts the whole drawing so its
// bounding box starts at the origin.
func translate(g *graph.Graph, h *hierarchy.Info, asm *assemble.Result, verts []solver.Vertex) *Result {
	res := &Result{}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, node := range g.Nodes() {
		n := *node
		n.Children = append([]string(nil), node.Children...)
		n.Ports = append([]graph.Port(nil), node.Ports...)

		t := graph.Transform{Z: h.Depth(n.ID)}
		if gi, ok := asm.GroupOf[n.ID]; ok {
			grp := asm.Groups[gi]
			t.X, t.Y = grp.X, grp.Y
			t.Width, t.Height = grp.Width, grp.Height
		} else if vi, ok := asm.VertexOf[n.ID]; ok && vi < len(verts) {
			v := verts[vi]
			t.X, t.Y = v.X-v.Width/2, v.Y-v.Height/2
			t.Width, t.Height = v.Width, v.Height
		}
		n.Transform = &t

		minX = math.Min(minX, t.X)
		minY = math.Min(minY, t.Y)
		maxX = math.Max(maxX, t.X+t.Width)
		maxY = math.Max(maxY, t.Y+t.Height)

		res.Nodes = append(res.Nodes, n)
	}

	maxDepth := h.MaxDepth()
	for _, edge := range g.Edges() {
		e := *edge
		from := endpointCenter(asm, verts, e.From)
		to := endpointCenter(asm, verts, e.To)
		e.Points = []graph.Point{from, to}

		// Edges between siblings draw just above their common parent's
		// contents; boundary-crossing edges draw above everything.
		pf, _ := g.Parent(e.From)
		pt, _ := g.Parent(e.To)
		if pf == pt {
			e.Z = h.Depth(e.From)
		} else {
			e.Z = maxDepth + 1
		}
		res.Edges = append(res.Edges, e)
	}

	if len(res.Nodes) == 0 {
		return res
	}

	// Normalize to the origin.
	for i := range res.Nodes {
		res.Nodes[i].Transform.X -= minX
		res.Nodes[i].Transform.Y -= minY
	}
	for i := range res.Edges {
		for j := range res.Edges[i].Points {
			res.Edges[i].Points[j].X -= minX
			res.Edges[i].Points[j].Y -= minY
		}
	}
	res.Width = maxX - minX
	res.Height = maxY - minY
	return res
}

// endpointCenter is the group box center for containers and the vertex
// center for leaves.
func endpointCenter(asm *assemble.Result, verts []solver.Vertex, id string) graph.Point {
	if gi, ok := asm.GroupOf[id]; ok {
		grp := asm.Groups[gi]
		return graph.Point{X: grp.X + grp.Width/2, Y: grp.Y + grp.Height/2}
	}
	if vi, ok := asm.VertexOf[id]; ok && vi < len(verts) {
		return graph.Point{X: verts[vi].X, Y: verts[vi].Y}
	}
	return graph.Point{}
}
