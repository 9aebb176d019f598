package graph

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/nestflow/nestflow/pkg/errors"
)

func TestAddNodeValidation(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		wantCode errors.Code
	}{
		{name: "valid leaf", node: Node{ID: "a", Width: 50, Height: 50}},
		{name: "valid container", node: Node{ID: "c", Children: []string{"a"}}},
		{name: "empty id", node: Node{}, wantCode: errors.ErrCodeInvalidNode},
		{name: "bad flow", node: Node{ID: "a", Flow: "up"}, wantCode: errors.ErrCodeInvalidFlow},
		{name: "bad port name", node: Node{ID: "a", Ports: []Port{{Name: ""}}}, wantCode: errors.ErrCodeInvalidPort},
		{name: "bad port side", node: Node{ID: "a", Ports: []Port{{Name: "p", Side: "middle"}}}, wantCode: errors.ErrCodeInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().AddNode(tt.node)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("AddNode() error = %v, want nil", err)
				}
				return
			}
			if errors.GetCode(err) != tt.wantCode {
				t.Errorf("AddNode() code = %q, want %q", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestAddNodeDuplicate(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, errors.ErrCodeInvalidNode) {
		t.Errorf("duplicate AddNode() error = %v, want INVALID_NODE", err)
	}
}

func TestKindDerivation(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "leaf"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "box", Children: []string{"leaf"}}); err != nil {
		t.Fatal(err)
	}

	leaf, _ := g.Node("leaf")
	if !leaf.IsLeaf() || leaf.IsContainer() {
		t.Errorf("leaf kind = %q, want leaf", leaf.Kind)
	}
	box, _ := g.Node("box")
	if !box.IsContainer() {
		t.Errorf("box kind = %q, want container", box.Kind)
	}
}

func TestAttachChild(t *testing.T) {
	g := New()
	for _, id := range []string{"root", "a", "b"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	if err := g.AttachChild("root", "a"); err != nil {
		t.Fatalf("AttachChild() error = %v", err)
	}
	root, _ := g.Node("root")
	if !root.IsContainer() || len(root.Children) != 1 {
		t.Errorf("root should be a container with one child, got %v", root.Children)
	}
	if p, ok := g.Parent("a"); !ok || p != "root" {
		t.Errorf("Parent(a) = %q, %v", p, ok)
	}

	// A node belongs to at most one container.
	if err := g.AttachChild("b", "a"); !errors.Is(err, errors.ErrCodeInvalidNode) {
		t.Errorf("second AttachChild() error = %v, want INVALID_NODE", err)
	}

	// Direct self-containment is rejected outright.
	if err := g.AttachChild("b", "b"); !errors.Is(err, errors.ErrCodeInvalidNode) {
		t.Errorf("self AttachChild() error = %v, want INVALID_NODE", err)
	}
}

func TestRoots(t *testing.T) {
	g := New()
	for _, id := range []string{"r1", "r2", "child"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AttachChild("r1", "child"); err != nil {
		t.Fatal(err)
	}

	roots := g.Roots()
	if len(roots) != 2 || roots[0] != "r1" || roots[1] != "r2" {
		t.Errorf("Roots() = %v, want [r1 r2]", roots)
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	if err := g.AddEdge(Edge{ID: "e1", From: "a", To: "b"}); err != nil {
		t.Fatalf("AddEdge() error = %v (endpoints may be added later)", err)
	}
	if err := g.AddEdge(Edge{ID: "e1", From: "a", To: "b"}); !errors.Is(err, errors.ErrCodeInvalidEdge) {
		t.Errorf("duplicate AddEdge() error = %v, want INVALID_EDGE", err)
	}
	if err := g.AddEdge(Edge{ID: "e2", From: "", To: "b"}); !errors.Is(err, errors.ErrCodeInvalidEdge) {
		t.Errorf("empty endpoint AddEdge() error = %v, want INVALID_EDGE", err)
	}
}

func TestValidateDanglingEdge(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{ID: "e1", From: "a", To: "ghost"}); err != nil {
		t.Fatal(err)
	}

	err := g.Validate()
	var ref *errors.ReferenceError
	if !stderrors.As(err, &ref) {
		t.Fatalf("Validate() error = %v, want ReferenceError", err)
	}
	if ref.ID != "ghost" {
		t.Errorf("ReferenceError.ID = %q, want %q", ref.ID, "ghost")
	}
	if ref.EdgeID != "e1" {
		t.Errorf("ReferenceError.EdgeID = %q, want %q", ref.EdgeID, "e1")
	}
}

func TestValidateEdgePorts(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a", Ports: []Port{{Name: "out", Side: FlowSouth}}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "b"}); err != nil {
		t.Fatal(err)
	}

	if err := g.AddEdge(Edge{ID: "ok", From: "a", To: "b", FromPort: "out"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() error = %v for existing port", err)
	}

	if err := g.AddEdge(Edge{ID: "bad", From: "a", To: "b", ToPort: "in"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); !errors.Is(err, errors.ErrCodeInvalidPort) {
		t.Errorf("Validate() error = %v, want INVALID_PORT", err)
	}
}

func TestClone(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a", Width: 40, Height: 40}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "box", Children: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{ID: "e", From: "a", To: "box"}); err != nil {
		t.Fatal(err)
	}

	cp := g.Clone()
	n, _ := cp.Node("a")
	n.Transform = &Transform{X: 1, Y: 2, Width: 40, Height: 40}
	n.Width = 99

	orig, _ := g.Node("a")
	if orig.Transform != nil || orig.Width != 40 {
		t.Error("mutating a clone leaked into the original graph")
	}
	if p, ok := cp.Parent("a"); !ok || p != "box" {
		t.Errorf("clone Parent(a) = %q, %v", p, ok)
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a", Width: 50, Height: 50, Flow: FlowEast}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "group", Children: []string{"a"}, AlignChildren: true}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{ID: "e1", From: "a", To: "group", Group: "g1"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadGraph(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if back.NodeCount() != 2 || back.EdgeCount() != 1 {
		t.Fatalf("round trip: %d nodes, %d edges", back.NodeCount(), back.EdgeCount())
	}
	a, _ := back.Node("a")
	if a.Flow != FlowEast || a.Width != 50 {
		t.Errorf("round trip node = %+v", a)
	}
	grp, _ := back.Node("group")
	if !grp.IsContainer() || !grp.AlignChildren {
		t.Errorf("round trip container = %+v", grp)
	}
}

func TestReadGraphRejectsInvalid(t *testing.T) {
	doc := `{"nodes": [{"id": "a", "flow": "sideways"}], "edges": []}`
	if _, err := ReadGraph(bytes.NewReader([]byte(doc))); !errors.Is(err, errors.ErrCodeInvalidFlow) {
		t.Errorf("ReadGraph() error = %v, want INVALID_FLOW", err)
	}
}

func TestParseFlow(t *testing.T) {
	tests := []struct {
		in      string
		want    Flow
		wantErr bool
	}{
		{in: "south", want: FlowSouth},
		{in: "north", want: FlowNorth},
		{in: "east", want: FlowEast},
		{in: "west", want: FlowWest},
		{in: "", want: FlowInherit},
		{in: "up", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("parse "+tt.in, func(t *testing.T) {
			got, err := ParseFlow(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFlow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFlow(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFlowAxis(t *testing.T) {
	if FlowSouth.Horizontal() || FlowNorth.Horizontal() {
		t.Error("north/south should be vertical")
	}
	if !FlowEast.Horizontal() || !FlowWest.Horizontal() {
		t.Error("east/west should be horizontal")
	}
	if FlowSouth.Reversed() || FlowEast.Reversed() {
		t.Error("south/east should not be reversed")
	}
	if !FlowNorth.Reversed() || !FlowWest.Reversed() {
		t.Error("north/west should be reversed")
	}
}
