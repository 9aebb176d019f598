// Package assemble converts a graph model plus its hierarchy analysis
// into the solver's vocabulary: vertices, groups, links, and directional
// separation constraints.
//
// Leaves become real vertices sized by their clamped dimensions.
// Containers become a zero-size dummy vertex (a loose-pass anchor) plus
// a group over their direct children. Edges become links between the
// endpoint anchors and separation constraints oriented by the flow
// direction of the endpoints' lowest common ancestor. Because group
// constraints do not propagate to nested descendants in the solver, each
// edge's constraint is duplicated across the full cross product of the
// endpoints' leaf descendants; this keeps satisfaction checkable at the
// leaf level no matter how deeply either endpoint is nested.
package assemble

import (
	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/hierarchy"
	"github.com/nestflow/nestflow/pkg/solver"
)

// Options configures assembly.
type Options struct {
	// DefaultFlow is the engine-wide flow direction used when no
	// ancestor declares one.
	DefaultFlow graph.Flow

	// Gap is the fixed clearance enforced between separated elements.
	Gap float64

	// Padding is the interior padding of every container group.
	Padding float64

	// MinSize replaces zero or negative leaf dimensions. Unmeasured
	// content commonly reports degenerate sizes; they are clamped, not
	// rejected.
	MinSize float64
}

// Result is the assembled solver input. Vertices are ordered real-first:
// Vertices[:RealCount] are leaf vertices, the rest are container dummies.
// The strict pass consumes the real slices; the loose pass additionally
// consumes the Loose* slices and the dummy vertices.
type Result struct {
	Vertices  []solver.Vertex
	RealCount int

	// VertexOf maps a node ID to its anchor vertex: the real vertex for
	// a leaf, the dummy vertex for a container.
	VertexOf map[string]int

	// GroupOf maps a container ID to its group index.
	GroupOf map[string]int
	Groups  []*solver.Group

	Links       []solver.Link
	Constraints []solver.Constraint

	// Loose-pass-only structure: cohesion links from container dummies
	// to their children, and anchor links/constraints that touch a dummy
	// vertex.
	LooseLinks       []solver.Link
	LooseConstraints []solver.Constraint
}

// LoosePassLinks returns the union of real and loose links.
func (r *Result) LoosePassLinks() []solver.Link {
	out := make([]solver.Link, 0, len(r.Links)+len(r.LooseLinks))
	out = append(out, r.Links...)
	return append(out, r.LooseLinks...)
}

// LoosePassConstraints returns the union of real and loose constraints.
func (r *Result) LoosePassConstraints() []solver.Constraint {
	out := make([]solver.Constraint, 0, len(r.Constraints)+len(r.LooseConstraints))
	out = append(out, r.Constraints...)
	return append(out, r.LooseConstraints...)
}

// Build assembles the solver input for one layout pass. Every edge
// endpoint is resolved before any vertex is constructed; a dangling
// reference aborts assembly with a *errors.ReferenceError naming the
// missing ID.
func Build(g *graph.Graph, h *hierarchy.Info, opts Options) (*Result, error) {
	for _, e := range g.Edges() {
		if _, ok := g.Node(e.From); !ok {
			return nil, &errors.ReferenceError{ID: e.From, EdgeID: e.ID}
		}
		if _, ok := g.Node(e.To); !ok {
			return nil, &errors.ReferenceError{ID: e.To, EdgeID: e.ID}
		}
	}

	r := &Result{
		VertexOf: make(map[string]int),
		GroupOf:  make(map[string]int),
	}

	// Real vertices first, post-order so children precede parents.
	for _, root := range g.Roots() {
		r.addLeafVertices(g, root, opts)
	}
	r.RealCount = len(r.Vertices)
	for _, root := range g.Roots() {
		r.addContainers(g, root, opts)
	}

	for _, e := range g.Edges() {
		r.addEdge(g, h, e, opts)
	}

	return r, nil
}

// addLeafVertices creates real vertices for every leaf under id.
func (r *Result) addLeafVertices(g *graph.Graph, id string, opts Options) {
	n, _ := g.Node(id)
	if n.IsContainer() {
		for _, child := range n.Children {
			r.addLeafVertices(g, child, opts)
		}
		return
	}
	w, ht := clampSize(n.Width, opts.MinSize), clampSize(n.Height, opts.MinSize)
	r.VertexOf[id] = len(r.Vertices)
	r.Vertices = append(r.Vertices, solver.Vertex{Width: w, Height: ht})
}

// addContainers creates, post-order, a dummy vertex and a group per
// container, wiring cohesion links from the dummy to each direct child's
// anchor.
func (r *Result) addContainers(g *graph.Graph, id string, opts Options) {
	n, _ := g.Node(id)
	if !n.IsContainer() {
		return
	}
	for _, child := range n.Children {
		r.addContainers(g, child, opts)
	}

	dummy := len(r.Vertices)
	r.Vertices = append(r.Vertices, solver.Vertex{})
	r.VertexOf[id] = dummy

	group := &solver.Group{Padding: opts.Padding}
	for _, child := range n.Children {
		cn, _ := g.Node(child)
		if cn.IsContainer() {
			group.Groups = append(group.Groups, r.GroupOf[child])
		} else {
			group.Leaves = append(group.Leaves, r.VertexOf[child])
		}
		// Cohesion pull only; the loose pass uses it to keep the
		// container's contents clustered.
		r.LooseLinks = append(r.LooseLinks, solver.Link{
			Source: dummy,
			Target: r.VertexOf[child],
			Length: opts.Gap,
		})
	}
	r.GroupOf[id] = len(r.Groups)
	r.Groups = append(r.Groups, group)
}

// addEdge wires one edge: an anchor link, an anchor separation
// constraint, and the leaf cross-product duplication.
func (r *Result) addEdge(g *graph.Graph, h *hierarchy.Info, e *graph.Edge, opts Options) {
	from, _ := g.Node(e.From)
	to, _ := g.Node(e.To)
	vFrom, vTo := r.VertexOf[e.From], r.VertexOf[e.To]
	bothReal := from.IsLeaf() && to.IsLeaf()

	anchorLink := solver.Link{
		Source: vFrom,
		Target: vTo,
		Length: opts.Gap + (maxExtent(r.Vertices[vFrom])+maxExtent(r.Vertices[vTo]))/2,
	}
	if bothReal {
		r.Links = append(r.Links, anchorLink)
	} else {
		r.LooseLinks = append(r.LooseLinks, anchorLink)
	}

	// Self-edges carry no flow: no LCA exists for a node and itself in
	// any useful sense, so they never generate separation constraints.
	if e.IsSelfEdge() {
		return
	}

	flow := r.edgeFlow(g, h, e, opts)
	axis := solver.Vertical
	if flow.Horizontal() {
		axis = solver.Horizontal
	}

	left, right := e.From, e.To
	if flow.Reversed() {
		left, right = right, left
	}
	vLeft, vRight := r.VertexOf[left], r.VertexOf[right]

	// Leaf endpoints are their own leaf sets, so the cross product below
	// already yields the anchor constraint; only dummy-touching anchors
	// need a loose-pass copy.
	if !bothReal {
		r.LooseConstraints = append(r.LooseConstraints,
			r.separation(axis, vLeft, vRight, opts.Gap))
	}

	// Duplicate over every leaf pair so satisfaction is checkable at the
	// leaf level regardless of nesting, with a same-direction link per
	// pair keeping the loose pass consistent with the strict pass.
	for _, la := range h.Leaves(left) {
		for _, lb := range h.Leaves(right) {
			if la == lb {
				continue
			}
			va, vb := r.VertexOf[la], r.VertexOf[lb]
			r.Constraints = append(r.Constraints, r.separation(axis, va, vb, opts.Gap))
			if !bothReal {
				r.Links = append(r.Links, solver.Link{
					Source: va,
					Target: vb,
					Length: opts.Gap + (maxExtent(r.Vertices[va])+maxExtent(r.Vertices[vb]))/2,
				})
			}
		}
	}
}

// separation builds a constraint between vertex centers: the gap is the
// configured clearance plus both half-extents along the axis, so the
// clearance applies between box borders, not centers.
func (r *Result) separation(axis solver.Axis, left, right int, gap float64) solver.Constraint {
	return solver.Constraint{
		Axis:  axis,
		Left:  left,
		Right: right,
		Gap:   gap + axisExtent(r.Vertices[left], axis)/2 + axisExtent(r.Vertices[right], axis)/2,
	}
}

// edgeFlow resolves the flow direction governing an edge: the flow of
// the endpoints' lowest common ancestor, walking up through inheriting
// ancestors, or the engine default when the endpoints share no ancestor.
func (r *Result) edgeFlow(g *graph.Graph, h *hierarchy.Info, e *graph.Edge, opts Options) graph.Flow {
	lca, ok := h.LCA(e.From, e.To)
	if !ok {
		return opts.DefaultFlow
	}
	for id := lca; ; {
		n, _ := g.Node(id)
		if n.Flow != graph.FlowInherit {
			return n.Flow
		}
		parent, hasParent := h.Parent(id)
		if !hasParent {
			return opts.DefaultFlow
		}
		id = parent
	}
}

func clampSize(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

func maxExtent(v solver.Vertex) float64 {
	if v.Width > v.Height {
		return v.Width
	}
	return v.Height
}

func axisExtent(v solver.Vertex, axis solver.Axis) float64 {
	if axis == solver.Horizontal {
		return v.Width
	}
	return v.Height
}
