package hierarchy

import (
	stderrors "errors"
	"testing"

	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
)

// buildGraph constructs a graph from a parent -> children map plus any
// extra standalone nodes.
func buildGraph(t *testing.T, children map[string][]string, extra ...string) *graph.Graph {
	t.Helper()
	g := graph.New()

	added := make(map[string]bool)
	add := func(id string, kids []string) {
		if added[id] {
			return
		}
		if err := g.AddNode(graph.Node{ID: id, Children: kids, Width: 50, Height: 50}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
		added[id] = true
	}

	for parent, kids := range children {
		add(parent, kids)
	}
	for parent, kids := range children {
		_ = parent
		for _, k := range kids {
			if _, isContainer := children[k]; !isContainer {
				add(k, nil)
			}
		}
	}
	for _, id := range extra {
		add(id, nil)
	}
	return g
}

func TestLCAHandBuiltTree(t *testing.T) {
	// root -> {A, B}, A -> {A1, A2}
	g := buildGraph(t, map[string][]string{
		"root": {"A", "B"},
		"A":    {"A1", "A2"},
	})
	h, err := Analyze(g)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		a, b   string
		want   string
		wantOK bool
	}{
		{a: "A1", b: "A2", want: "A", wantOK: true},
		{a: "A1", b: "B", want: "root", wantOK: true},
		{a: "A", b: "B", want: "root", wantOK: true},
		{a: "A1", b: "A", want: "A", wantOK: true},
		{a: "A1", b: "A1", want: "A1", wantOK: true},
	}

	for _, tt := range tests {
		got, ok := h.LCA(tt.a, tt.b)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("LCA(%s, %s) = %q, %v; want %q, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLCADisjointForest(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"left":  {"l1"},
		"right": {"r1"},
	})
	h, err := Analyze(g)
	if err != nil {
		t.Fatal(err)
	}

	if got, ok := h.LCA("l1", "r1"); ok {
		t.Errorf("LCA across disjoint subtrees = %q, want no ancestor", got)
	}
}

func TestAnalyzeDetectsCycle(t *testing.T) {
	// a contains b, b contains a. Neither is a root, so the pair forms an
	// orphan cycle.
	g := graph.New()
	if err := g.AddNode(graph.Node{ID: "a", Children: []string{"b"}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(graph.Node{ID: "b", Children: []string{"a"}}); err != nil {
		t.Fatal(err)
	}

	_, err := Analyze(g)
	var ce *errors.CycleError
	if !stderrors.As(err, &ce) {
		t.Fatalf("Analyze() error = %v, want CycleError", err)
	}
	if ce.NodeID != "a" && ce.NodeID != "b" {
		t.Errorf("CycleError.NodeID = %q, want a node on the cycle", ce.NodeID)
	}
}

func TestAnalyzeValidForestSucceeds(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"root": {"mid"},
		"mid":  {"leaf1", "leaf2"},
	}, "floating")

	if _, err := Analyze(g); err != nil {
		t.Errorf("Analyze() error = %v, want nil for valid forest", err)
	}
}

func TestDepthAndHeight(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"root": {"mid"},
		"mid":  {"leaf"},
	})
	h, err := Analyze(g)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id            string
		depth, height int
	}{
		{id: "root", depth: 0, height: 2},
		{id: "mid", depth: 1, height: 1},
		{id: "leaf", depth: 2, height: 0},
	}
	for _, tt := range tests {
		if got := h.Depth(tt.id); got != tt.depth {
			t.Errorf("Depth(%s) = %d, want %d", tt.id, got, tt.depth)
		}
		if got := h.Height(tt.id); got != tt.height {
			t.Errorf("Height(%s) = %d, want %d", tt.id, got, tt.height)
		}
	}
	if got := h.MaxDepth(); got != 2 {
		t.Errorf("MaxDepth() = %d, want 2", got)
	}
}

func TestLeaves(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"root":  {"inner", "solo"},
		"inner": {"x", "y"},
	})
	h, err := Analyze(g)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id   string
		want map[string]bool
	}{
		{id: "root", want: map[string]bool{"x": true, "y": true, "solo": true}},
		{id: "inner", want: map[string]bool{"x": true, "y": true}},
		{id: "x", want: map[string]bool{"x": true}},
	}

	for _, tt := range tests {
		got := h.Leaves(tt.id)
		if len(got) != len(tt.want) {
			t.Errorf("Leaves(%s) = %v, want keys %v", tt.id, got, tt.want)
			continue
		}
		for _, leaf := range got {
			if !tt.want[leaf] {
				t.Errorf("Leaves(%s) contains unexpected %q", tt.id, leaf)
			}
		}
	}

	// Cached: repeated queries return the same backing slice.
	first := h.Leaves("root")
	second := h.Leaves("root")
	if &first[0] != &second[0] {
		t.Error("Leaves() should cache per node")
	}
}

func TestParent(t *testing.T) {
	g := buildGraph(t, map[string][]string{"root": {"kid"}})
	h, err := Analyze(g)
	if err != nil {
		t.Fatal(err)
	}

	if p, ok := h.Parent("kid"); !ok || p != "root" {
		t.Errorf("Parent(kid) = %q, %v", p, ok)
	}
	if _, ok := h.Parent("root"); ok {
		t.Error("Parent(root) should report no parent")
	}
}
