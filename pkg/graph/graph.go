package graph

import (
	"github.com/nestflow/nestflow/pkg/errors"
)

// Graph is the mutable graph model: an arena of nodes and edges owned by
// whoever builds it (typically a [builder.Builder]). Nodes and edges are
// referenced by ID everywhere; nothing in the model holds pointers back
// into its owner.
//
// The zero value is not usable - use New. Graph is not safe for
// concurrent use without external synchronization.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	// parent tracks the containment relation as children lists are
	// declared. Children may be declared before the child node exists;
	// Validate catches entries that never materialize.
	parent map[string]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		parent: make(map[string]string),
	}
}

// AddNode adds a node to the graph. The node's Kind is derived from its
// Children list and maintained by the graph from then on. Returns an
// INVALID_NODE error for empty or malformed IDs and duplicates, an
// INVALID_FLOW error for unknown flow directions, and an INVALID_PORT
// error for malformed port names.
func (g *Graph) AddNode(n Node) error {
	if err := errors.ValidateNodeID(n.ID); err != nil {
		return err
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errors.New(errors.ErrCodeInvalidNode, "duplicate node ID %q", n.ID)
	}
	if !n.Flow.Valid() {
		return errors.New(errors.ErrCodeInvalidFlow,
			"node %q: invalid flow direction %q", n.ID, string(n.Flow))
	}
	for _, p := range n.Ports {
		if err := errors.ValidatePortName(p.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPort, err, "node %q", n.ID)
		}
		if !p.Side.Valid() {
			return errors.New(errors.ErrCodeInvalidPort,
				"node %q: port %q has invalid side %q", n.ID, p.Name, string(p.Side))
		}
	}

	if len(n.Children) > 0 {
		n.Kind = KindContainer
		for _, child := range n.Children {
			if err := g.claimParent(n.ID, child); err != nil {
				return err
			}
		}
	} else if n.Kind == "" {
		n.Kind = KindLeaf
	}

	node := &n
	g.nodes[node.ID] = node
	g.nodeOrder = append(g.nodeOrder, node.ID)
	return nil
}

// AddEdge adds an edge to the graph. Endpoint IDs are not resolved here:
// incremental clients may add edges before the nodes they reference, and
// the constraint assembler validates all endpoints before any layout
// work. Edge IDs must be unique and non-empty.
func (g *Graph) AddEdge(e Edge) error {
	if e.ID == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge ID cannot be empty")
	}
	if _, exists := g.edges[e.ID]; exists {
		return errors.New(errors.ErrCodeInvalidEdge, "duplicate edge ID %q", e.ID)
	}
	if e.From == "" || e.To == "" {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %q: endpoints cannot be empty", e.ID)
	}

	edge := &e
	g.edges[edge.ID] = edge
	g.edgeOrder = append(g.edgeOrder, edge.ID)
	return nil
}

// AttachChild appends childID to parentID's children list, turning the
// parent into a container. A node can belong to at most one container;
// attaching an already-owned child is an INVALID_NODE error.
func (g *Graph) AttachChild(parentID, childID string) error {
	parent, ok := g.nodes[parentID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown parent node %q", parentID)
	}
	if parentID == childID {
		return errors.New(errors.ErrCodeInvalidNode, "node %q cannot contain itself", parentID)
	}
	if err := g.claimParent(parentID, childID); err != nil {
		return err
	}
	parent.Children = append(parent.Children, childID)
	parent.Kind = KindContainer
	return nil
}

func (g *Graph) claimParent(parentID, childID string) error {
	if owner, taken := g.parent[childID]; taken {
		return errors.New(errors.ErrCodeInvalidNode,
			"node %q already belongs to container %q", childID, owner)
	}
	g.parent[childID] = parentID
	return nil
}

// SetSize updates a node's declared size. Degenerate values are kept
// as-is here; the assembler clamps to the configured minimum.
func (g *Graph) SetSize(id string, width, height float64) error {
	n, ok := g.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "unknown node %q", id)
	}
	n.Width = width
	n.Height = height
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the actual node, so transform updates are visible
// to all holders of the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given ID and true, or nil and false.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Parent returns the ID of the container holding id, if any.
func (g *Graph) Parent(id string) (string, bool) {
	p, ok := g.parent[id]
	return p, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		edges = append(edges, g.edges[id])
	}
	return edges
}

// Roots returns the IDs of nodes with no containing parent, in insertion
// order. The containment forest may have any number of roots.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.nodeOrder {
		if _, owned := g.parent[id]; !owned {
			roots = append(roots, id)
		}
	}
	return roots
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Clone returns a deep copy of the graph. Transforms and polylines are
// copied too, so a clone taken after a build carries that build's result.
func (g *Graph) Clone() *Graph {
	out := New()
	for _, id := range g.nodeOrder {
		n := *g.nodes[id]
		n.Children = append([]string(nil), n.Children...)
		n.Ports = append([]Port(nil), n.Ports...)
		if n.Transform != nil {
			t := *n.Transform
			n.Transform = &t
		}
		out.nodes[n.ID] = &n
		out.nodeOrder = append(out.nodeOrder, n.ID)
	}
	for _, id := range g.edgeOrder {
		e := *g.edges[id]
		e.Points = append([]Point(nil), e.Points...)
		out.edges[e.ID] = &e
		out.edgeOrder = append(out.edgeOrder, e.ID)
	}
	for child, parent := range g.parent {
		out.parent[child] = parent
	}
	return out
}

// Validate checks structural integrity: every declared child exists, and
// every edge endpoint resolves to a node. Edge endpoint failures are
// *errors.ReferenceError naming the missing ID. Acyclicity of the
// containment forest is checked by the hierarchy analyzer, which needs
// the traversal anyway.
func (g *Graph) Validate() error {
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		for _, child := range n.Children {
			if _, ok := g.nodes[child]; !ok {
				return errors.New(errors.ErrCodeInvalidNode,
					"node %q lists unknown child %q", n.ID, child)
			}
		}
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if _, ok := g.nodes[e.From]; !ok {
			return &errors.ReferenceError{ID: e.From, EdgeID: e.ID}
		}
		if _, ok := g.nodes[e.To]; !ok {
			return &errors.ReferenceError{ID: e.To, EdgeID: e.ID}
		}
		if e.FromPort != "" {
			if _, ok := g.nodes[e.From].Port(e.FromPort); !ok {
				return errors.New(errors.ErrCodeInvalidPort,
					"edge %q references unknown port %q on node %q", e.ID, e.FromPort, e.From)
			}
		}
		if e.ToPort != "" {
			if _, ok := g.nodes[e.To].Port(e.ToPort); !ok {
				return errors.New(errors.ErrCodeInvalidPort,
					"edge %q references unknown port %q on node %q", e.ID, e.ToPort, e.To)
			}
		}
	}
	return nil
}
