package graph

// NodeKind distinguishes leaves from containers. The kind is an explicit
// tag maintained by the graph, not an inference made at traversal time.
type NodeKind string

// Node kinds.
const (
	KindLeaf      NodeKind = "leaf"
	KindContainer NodeKind = "container"
)

// Port is a named anchor point on a node. Side and Order are hints for
// edge attachment; both are optional.
type Port struct {
	Name  string `json:"name" bson:"name"`
	Side  Flow   `json:"side,omitempty" bson:"side,omitempty"`
	Order int    `json:"order,omitempty" bson:"order,omitempty"`
}

// Point is a 2D coordinate on an edge polyline.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Transform is the computed placement of a node. It is populated by the
// layout pipeline; a nil Transform means the node has not been laid out.
type Transform struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Z      int     `json:"z" bson:"z"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Node is a vertex in the containment forest. A node with children is a
// container; its size and position are always derived from the bounding
// region of its visible descendants plus padding. Leaf Width/Height are
// client-supplied (typically from measuring rendered content) and are
// clamped to a minimum when zero or negative.
type Node struct {
	ID            string   `json:"id" bson:"id"`
	Kind          NodeKind `json:"kind" bson:"kind"`
	Children      []string `json:"children,omitempty" bson:"children,omitempty"`
	Flow          Flow     `json:"flow,omitempty" bson:"flow,omitempty"`
	AlignChildren bool     `json:"align_children,omitempty" bson:"align_children,omitempty"`
	Ports         []Port   `json:"ports,omitempty" bson:"ports,omitempty"`
	Width         float64  `json:"width,omitempty" bson:"width,omitempty"`
	Height        float64  `json:"height,omitempty" bson:"height,omitempty"`

	// Transform is set after layout.
	Transform *Transform `json:"transform,omitempty" bson:"transform,omitempty"`
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.Kind != KindContainer }

// IsContainer reports whether the node holds children.
func (n *Node) IsContainer() bool { return n.Kind == KindContainer }

// Port returns the named port and true, or a zero Port and false.
func (n *Node) Port(name string) (Port, bool) {
	for _, p := range n.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Edge is a directed connection between two nodes at any nesting depth.
// Group is a hint that edges sharing the value should be visually
// unified; the engine does not enforce it.
type Edge struct {
	ID       string `json:"id" bson:"id"`
	From     string `json:"from" bson:"from"`
	To       string `json:"to" bson:"to"`
	FromPort string `json:"from_port,omitempty" bson:"from_port,omitempty"`
	ToPort   string `json:"to_port,omitempty" bson:"to_port,omitempty"`
	Group    string `json:"group,omitempty" bson:"group,omitempty"`

	// Points and Z are set after layout.
	Points []Point `json:"points,omitempty" bson:"points,omitempty"`
	Z      int     `json:"z,omitempty" bson:"z,omitempty"`
}

// IsSelfEdge reports whether the edge starts and ends on the same node.
// Self-edges are permitted but never generate separation constraints.
func (e *Edge) IsSelfEdge() bool { return e.From == e.To }
