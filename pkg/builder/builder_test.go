package builder

import (
	stderrors "errors"
	"sort"
	"testing"

	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
)

func newBuilder(t *testing.T, cb Callback) *Builder {
	t.Helper()
	b, err := New(Options{OnBuild: cb})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func mustLeaf(t *testing.T, b *Builder, parent string, spec Leaf) string {
	t.Helper()
	id, err := b.AddLeaf(parent, spec)
	if err != nil {
		t.Fatalf("AddLeaf: %v", err)
	}
	return id
}

func mustContainer(t *testing.T, b *Builder, parent string, spec Container) string {
	t.Helper()
	id, err := b.AddContainer(parent, spec)
	if err != nil {
		t.Fatalf("AddContainer: %v", err)
	}
	return id
}

func visibleIDs(res *layout.Result) []string {
	ids := make([]string, 0, len(res.Nodes))
	for i := range res.Nodes {
		ids = append(ids, res.Nodes[i].ID)
	}
	sort.Strings(ids)
	return ids
}

func TestGeneratedIDsAreMonotonic(t *testing.T) {
	b := newBuilder(t, nil)
	a := mustLeaf(t, b, "", Leaf{Width: 10, Height: 10})
	c := mustLeaf(t, b, "", Leaf{Width: 10, Height: 10})
	if a != "n1" || c != "n2" {
		t.Errorf("node ids = %q, %q; want n1, n2", a, c)
	}

	e1, err := b.AddEdge(Edge{From: a, To: c})
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e1 != "e1" {
		t.Errorf("edge id = %q, want e1", e1)
	}
}

func TestGeneratedIDsSkipTakenOnes(t *testing.T) {
	b := newBuilder(t, nil)
	mustLeaf(t, b, "", Leaf{ID: "n1", Width: 10, Height: 10})
	got := mustLeaf(t, b, "", Leaf{Width: 10, Height: 10})
	if got != "n2" {
		t.Errorf("generated id = %q, want n2", got)
	}
}

func TestAddEdgeRejectsUnknownEndpoint(t *testing.T) {
	b := newBuilder(t, nil)
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 10, Height: 10})

	_, err := b.AddEdge(Edge{ID: "e", From: "a", To: "ghost"})
	var refErr *errors.ReferenceError
	if !stderrors.As(err, &refErr) {
		t.Fatalf("want ReferenceError, got %v", err)
	}
	if refErr.ID != "ghost" {
		t.Errorf("missing id = %q, want ghost", refErr.ID)
	}
}

func TestAddChildToLeafFails(t *testing.T) {
	b := newBuilder(t, nil)
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 10, Height: 10})

	_, err := b.AddLeaf("a", Leaf{Width: 10, Height: 10})
	if !errors.Is(err, errors.ErrCodeInvalidNode) {
		t.Fatalf("want INVALID_NODE, got %v", err)
	}
}

func TestSettleRunsOnlyWhenDirty(t *testing.T) {
	builds := 0
	b := newBuilder(t, func(*layout.Result) { builds++ })
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 50, Height: 50})

	if !b.Dirty() {
		t.Fatal("fresh mutation should leave the builder dirty")
	}
	if _, err := b.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if b.Dirty() {
		t.Error("builder still dirty after settle")
	}
	if _, err := b.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1 (clean settle must not rebuild)", builds)
	}

	if err := b.NotifyResize("a", 80, 40); err != nil {
		t.Fatalf("NotifyResize: %v", err)
	}
	if _, err := b.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if builds != 2 {
		t.Errorf("builds = %d, want 2 after resize", builds)
	}
}

func TestNotifyResizeSameSizeStaysClean(t *testing.T) {
	b := newBuilder(t, nil)
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 50, Height: 50})
	if _, err := b.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if err := b.NotifyResize("a", 50, 50); err != nil {
		t.Fatalf("NotifyResize: %v", err)
	}
	if b.Dirty() {
		t.Error("no-op resize must not dirty the model")
	}
}

// A container's recorded size is its collapsed presentation size; the
// expanded box is still derived from the children.
func TestNotifyResizeSetsCollapsedContainerSize(t *testing.T) {
	b := newBuilder(t, nil)
	box := mustContainer(t, b, "", Container{ID: "box", Collapsed: true})
	mustLeaf(t, b, box, Leaf{ID: "in", Width: 40, Height: 40})

	if err := b.NotifyResize("box", 120, 80); err != nil {
		t.Fatalf("NotifyResize: %v", err)
	}
	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	n, ok := snap.Node("box")
	if !ok {
		t.Fatal("collapsed container missing from snapshot")
	}
	if n.Width != 120 || n.Height != 80 {
		t.Errorf("collapsed size = %vx%v, want 120x80", n.Width, n.Height)
	}
}

// A collapsed container with a declared size is laid out as an opaque
// block of exactly that size, not the engine minimum.
func TestCollapsedContainerKeepsDeclaredSize(t *testing.T) {
	b := newBuilder(t, nil)
	box := mustContainer(t, b, "", Container{ID: "box", Collapsed: true, Width: 150, Height: 90})
	mustLeaf(t, b, box, Leaf{ID: "in", Width: 40, Height: 40})
	mustLeaf(t, b, "", Leaf{ID: "peer", Width: 40, Height: 40})

	res, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	tr := res.Node("box").Transform
	if tr == nil {
		t.Fatal("collapsed container has no transform")
	}
	if tr.Width != 150 || tr.Height != 90 {
		t.Errorf("collapsed box = %vx%v, want 150x90", tr.Width, tr.Height)
	}
}

// Toggling twice restores the flag, and the rebuilt membership matches
// the first build exactly.
func TestToggleTwiceRestoresMembership(t *testing.T) {
	b := newBuilder(t, nil)
	box := mustContainer(t, b, "", Container{ID: "box"})
	mustLeaf(t, b, box, Leaf{ID: "x", Width: 40, Height: 40})
	mustLeaf(t, b, box, Leaf{ID: "y", Width: 40, Height: 40})
	mustLeaf(t, b, "", Leaf{ID: "z", Width: 40, Height: 40})

	first, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	want := visibleIDs(first)

	if on, err := b.ToggleExpanded(box); err != nil || on {
		t.Fatalf("first toggle: expanded=%v err=%v, want collapsed", on, err)
	}
	if on, err := b.ToggleExpanded(box); err != nil || !on {
		t.Fatalf("second toggle: expanded=%v err=%v, want expanded", on, err)
	}

	again, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	got := visibleIDs(again)
	if len(got) != len(want) {
		t.Fatalf("membership differs: %v vs %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("membership differs: %v vs %v", got, want)
		}
	}
}

func TestToggleLeafFails(t *testing.T) {
	b := newBuilder(t, nil)
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 10, Height: 10})
	if _, err := b.ToggleExpanded("a"); !errors.Is(err, errors.ErrCodeInvalidNode) {
		t.Fatalf("want INVALID_NODE, got %v", err)
	}
}

// Collapsing a container prunes its descendants from the snapshot and
// remaps boundary-crossing edges onto the container itself.
func TestCollapsedSnapshotPrunesAndRemaps(t *testing.T) {
	b := newBuilder(t, nil)
	box := mustContainer(t, b, "", Container{ID: "box"})
	mustLeaf(t, b, box, Leaf{ID: "in1", Width: 40, Height: 40})
	mustLeaf(t, b, box, Leaf{ID: "in2", Width: 40, Height: 40})
	mustLeaf(t, b, "", Leaf{ID: "out", Width: 40, Height: 40})
	if _, err := b.AddEdge(Edge{ID: "cross", From: "in1", To: "out"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if _, err := b.AddEdge(Edge{ID: "internal", From: "in1", To: "in2"}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if _, err := b.ToggleExpanded(box); err != nil {
		t.Fatalf("ToggleExpanded: %v", err)
	}
	snap, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if _, ok := snap.Node("in1"); ok {
		t.Error("collapsed child in1 still visible")
	}
	if _, ok := snap.Node("in2"); ok {
		t.Error("collapsed child in2 still visible")
	}
	if n, ok := snap.Node("box"); !ok || n.IsContainer() {
		t.Error("collapsed container should present as childless")
	}
	cross, ok := snap.Edge("cross")
	if !ok {
		t.Fatal("boundary edge dropped instead of remapped")
	}
	if cross.From != "box" || cross.To != "out" {
		t.Errorf("edge remapped to %s -> %s, want box -> out", cross.From, cross.To)
	}
	if _, ok := snap.Edge("internal"); ok {
		t.Error("edge between two hidden nodes should collapse away")
	}
}

// A mutation from inside the build callback triggers exactly one
// follow-up build within the same Settle call.
func TestCallbackMutationCollapsesToOneFollowUp(t *testing.T) {
	var b *Builder
	builds := 0
	b = newBuilder(t, func(*layout.Result) {
		builds++
		if builds == 1 {
			if _, err := b.AddLeaf("", Leaf{Width: 20, Height: 20}); err != nil {
				t.Errorf("AddLeaf in callback: %v", err)
			}
		}
	})
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 50, Height: 50})

	res, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if builds != 2 {
		t.Errorf("builds = %d, want 2 (one follow-up)", builds)
	}
	if len(res.Nodes) != 2 {
		t.Errorf("final result has %d nodes, want 2", len(res.Nodes))
	}
	if b.Dirty() {
		t.Error("builder should be clean after the follow-up build")
	}
}

func TestSettleWhileSettlingDefers(t *testing.T) {
	var b *Builder
	builds := 0
	b = newBuilder(t, func(*layout.Result) {
		builds++
		if builds == 1 {
			mustLeaf(t, b, "", Leaf{Width: 20, Height: 20})
			// Re-entrant settle must not interleave another build.
			if _, err := b.Settle(); err != nil {
				t.Errorf("re-entrant Settle: %v", err)
			}
		}
	})
	mustLeaf(t, b, "", Leaf{ID: "a", Width: 50, Height: 50})

	if _, err := b.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if builds != 2 {
		t.Errorf("builds = %d, want 2", builds)
	}
}

func TestStartCollapsedContainer(t *testing.T) {
	b := newBuilder(t, nil)
	box := mustContainer(t, b, "", Container{ID: "box", Collapsed: true})
	mustLeaf(t, b, box, Leaf{ID: "hidden", Width: 40, Height: 40})

	res, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if res.Node("hidden") != nil {
		t.Error("child of collapsed container should not be laid out")
	}
	if on, err := b.Expanded(box); err != nil || on {
		t.Errorf("expanded=%v err=%v, want collapsed", on, err)
	}
}

func TestFlowPropagatesToLayout(t *testing.T) {
	b := newBuilder(t, nil)
	row := mustContainer(t, b, "", Container{ID: "row", Flow: graph.FlowEast})
	a := mustLeaf(t, b, row, Leaf{ID: "a", Width: 40, Height: 40})
	c := mustLeaf(t, b, row, Leaf{ID: "c", Width: 40, Height: 40})
	if _, err := b.AddEdge(Edge{From: a, To: c}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	res, err := b.Settle()
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	at, ct := res.Node("a").Transform, res.Node("c").Transform
	if ct.X <= at.X {
		t.Errorf("east flow should order a before c: a.x=%v c.x=%v", at.X, ct.X)
	}
}
