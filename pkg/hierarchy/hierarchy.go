// Package hierarchy analyzes the containment forest of a graph model.
//
// A single depth-first traversal produces the parent lookup, per-node
// depth (distance from root) and height (generations of descendants),
// and detects containment cycles. Leaf descendant sets are computed
// lazily per query and cached. The lowest-common-ancestor query walks
// both ancestor chains in lock-step; two nodes in disjoint subtrees of
// a multi-root forest legitimately have no common ancestor, which
// callers must treat as "use the engine default flow direction".
package hierarchy

import (
	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
)

// Info is the result of analyzing a graph's containment forest.
// It is valid for the snapshot it was built from; rebuilding the graph
// requires a fresh analysis.
type Info struct {
	g      *graph.Graph
	parent map[string]string
	depth  map[string]int
	height map[string]int
	leaves map[string][]string
}

// Analyze traverses the containment forest once, building the parent
// lookup and detecting cycles. A node reachable from itself yields a
// *errors.CycleError naming the first node found on the cycle; the
// traversal marks in-progress nodes separately from finished ones so
// legitimate sharing in the wider DAG is never misreported.
func Analyze(g *graph.Graph) (*Info, error) {
	h := &Info{
		g:      g,
		parent: make(map[string]string),
		depth:  make(map[string]int),
		height: make(map[string]int),
		leaves: make(map[string][]string),
	}

	const (
		white = iota // unvisited
		gray         // on the current descent path
		black        // finished
	)
	color := make(map[string]int, g.NodeCount())

	var descend func(id string, depth int) (int, error)
	descend = func(id string, depth int) (int, error) {
		n, ok := g.Node(id)
		if !ok {
			return 0, errors.New(errors.ErrCodeInvalidNode, "unknown node %q in hierarchy", id)
		}
		color[id] = gray
		h.depth[id] = depth

		height := 0
		for _, child := range n.Children {
			switch color[child] {
			case gray:
				return 0, &errors.CycleError{NodeID: child}
			case black:
				// Already placed under another path; the graph model
				// guarantees single ownership, so this cannot happen for
				// well-formed input. Treat it as a cycle through sharing.
				return 0, &errors.CycleError{NodeID: child}
			}
			h.parent[child] = id
			ch, err := descend(child, depth+1)
			if err != nil {
				return 0, err
			}
			if ch+1 > height {
				height = ch + 1
			}
		}
		h.height[id] = height
		color[id] = black
		return height, nil
	}

	for _, n := range g.Nodes() {
		// Start from declared roots; anything still white afterwards is
		// part of a parent cycle unreachable from any root.
		if _, owned := g.Parent(n.ID); owned {
			continue
		}
		if _, err := descend(n.ID, 0); err != nil {
			return nil, err
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			return nil, &errors.CycleError{NodeID: n.ID}
		}
	}

	return h, nil
}

// Parent returns the containing node of id, if any.
func (h *Info) Parent(id string) (string, bool) {
	p, ok := h.parent[id]
	return p, ok
}

// Depth returns the containment depth of id: 0 for roots, parent+1
// otherwise. Unknown IDs report 0.
func (h *Info) Depth(id string) int { return h.depth[id] }

// Height returns the number of generations of descendants below id:
// 0 for leaves, 1 for a container of leaves, and so on.
func (h *Info) Height(id string) int { return h.height[id] }

// MaxDepth returns the deepest containment depth in the forest.
func (h *Info) MaxDepth() int {
	max := 0
	for _, d := range h.depth {
		if d > max {
			max = d
		}
	}
	return max
}

// Leaves returns all leaf descendants of id. For a leaf it returns the
// node itself. Results are computed by depth-first descent on first use
// and cached per node; the returned slice is shared and must not be
// modified.
func (h *Info) Leaves(id string) []string {
	if cached, ok := h.leaves[id]; ok {
		return cached
	}
	n, ok := h.g.Node(id)
	if !ok {
		return nil
	}
	var out []string
	if len(n.Children) == 0 {
		out = []string{id}
	} else {
		for _, child := range n.Children {
			out = append(out, h.Leaves(child)...)
		}
	}
	h.leaves[id] = out
	return out
}

// LCA returns the lowest common ancestor of a and b in the containment
// forest, walking both ancestor chains (including the nodes themselves)
// in lock-step and returning the first node seen from both sides. The
// second result is false when the chains never intersect, which occurs
// only for nodes in disjoint subtrees of a multi-root forest; callers
// fall back to the engine default flow direction in that case.
func (h *Info) LCA(a, b string) (string, bool) {
	seen := make(map[string]bool)
	ca, okA := a, true
	cb, okB := b, true

	for okA || okB {
		if okA {
			if seen[ca] {
				return ca, true
			}
			seen[ca] = true
			ca, okA = h.parent[ca]
		}
		if okB {
			if seen[cb] {
				return cb, true
			}
			seen[cb] = true
			cb, okB = h.parent[cb]
		}
	}
	return "", false
}
