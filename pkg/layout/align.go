package layout

import (
	"github.com/nestflow/nestflow/pkg/assemble"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/hierarchy"
	"github.com/nestflow/nestflow/pkg/solver"
)

// alignContainers centers the direct children of every AlignChildren
// container on the axis perpendicular to the container's flow. Each
// child's whole subtree is translated rigidly. Siblings the solver had
// separated only on the perpendicular axis (unconnected children carry
// no flow-axis constraint between them) can land on top of each other,
// so overlap removal is re-run afterwards with the push axis of every
// aligned level pinned to its flow axis; that restores separation
// without undoing the centering. Group bounds are recomputed last.
func alignContainers(g *graph.Graph, h *hierarchy.Info, asm *assemble.Result, verts []solver.Vertex, opts Options) {
	axisOf := make(map[int]solver.Axis)
	for _, node := range g.Nodes() {
		if !node.IsContainer() || !node.AlignChildren {
			continue
		}
		flow := resolveFlow(g, node.ID, opts.Flow)
		flowAxis := solver.Vertical
		alignAxis := solver.Horizontal
		if flow.Horizontal() {
			flowAxis, alignAxis = alignAxis, flowAxis
		}

		// Mean of the children's centers on the alignment axis.
		var sum float64
		var n int
		for _, childID := range node.Children {
			c, ok := childCenter(asm, verts, childID, alignAxis)
			if !ok {
				continue
			}
			sum += c
			n++
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)

		for _, childID := range node.Children {
			c, ok := childCenter(asm, verts, childID, alignAxis)
			if !ok {
				continue
			}
			translateSubtree(h, asm, verts, childID, alignAxis, mean-c)
		}
		if gi, ok := asm.GroupOf[node.ID]; ok {
			axisOf[gi] = flowAxis
		}
	}
	if len(axisOf) > 0 {
		solver.RepairOverlaps(verts, asm.Constraints, asm.Groups, axisOf, opts.GridUnit)
		solver.ComputeBounds(verts, asm.Groups)
	}
}

// resolveFlow walks up from the node until an explicit flow is found,
// falling back to the engine default.
func resolveFlow(g *graph.Graph, id string, def graph.Flow) graph.Flow {
	for id != "" {
		node, ok := g.Node(id)
		if !ok {
			break
		}
		if node.Flow != graph.FlowInherit {
			return node.Flow
		}
		id, _ = g.Parent(id)
	}
	return def
}

// childCenter reports the child's current center coordinate on the axis:
// the vertex center for a leaf, the group box center otherwise.
func childCenter(asm *assemble.Result, verts []solver.Vertex, id string, axis solver.Axis) (float64, bool) {
	if gi, ok := asm.GroupOf[id]; ok {
		grp := asm.Groups[gi]
		if axis == solver.Horizontal {
			return grp.X + grp.Width/2, true
		}
		return grp.Y + grp.Height/2, true
	}
	vi, ok := asm.VertexOf[id]
	if !ok || vi >= len(verts) {
		return 0, false
	}
	if axis == solver.Horizontal {
		return verts[vi].X, true
	}
	return verts[vi].Y, true
}

// translateSubtree shifts every leaf vertex under id by delta on the axis.
func translateSubtree(h *hierarchy.Info, asm *assemble.Result, verts []solver.Vertex, id string, axis solver.Axis, delta float64) {
	if delta == 0 {
		return
	}
	for _, leaf := range h.Leaves(id) {
		vi, ok := asm.VertexOf[leaf]
		if !ok || vi >= len(verts) {
			continue
		}
		if axis == solver.Horizontal {
			verts[vi].X += delta
		} else {
			verts[vi].Y += delta
		}
	}
}
