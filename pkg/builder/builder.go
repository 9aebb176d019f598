// Package builder maintains a mutable graph model and re-runs the layout
// pipeline when its state changes.
//
// All nodes and edges live in flat arenas owned by the [Builder] and are
// referenced by id; clients never hold node objects. Mutations
// ([Builder.AddLeaf], [Builder.AddEdge], [Builder.ToggleExpanded],
// [Builder.NotifyResize]) only mark the model dirty. One call to
// [Builder.Settle] runs the pipeline over the current visible snapshot
// and invokes the build callback, so "something changed" and "recompute
// now" stay decoupled.
package builder

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
)

// =============================================================================
// === Specs and Options ===
// =============================================================================

// Leaf describes a new leaf node. ID is optional; when empty the builder
// assigns a monotonically increasing one.
type Leaf struct {
	ID     string
	Width  float64
	Height float64
	Ports  []graph.Port
}

// Container describes a new container node. Containers start expanded
// unless Collapsed is set; children are attached afterwards with the
// container's id as parent. Width and Height are the collapsed
// presentation size: an expanded container always derives its box from
// its visible children, but a collapsed one is laid out as an opaque
// block of this size (clamped to the engine minimum when zero).
type Container struct {
	ID            string
	Flow          graph.Flow
	AlignChildren bool
	Ports         []graph.Port
	Collapsed     bool
	Width         float64
	Height        float64
}

// Edge describes a new edge between two existing nodes.
type Edge struct {
	ID       string
	From     string
	To       string
	FromPort string
	ToPort   string
	Group    string
}

// Callback receives the result of every completed build. Each invocation
// replaces, never merges with, the previous result.
type Callback func(*layout.Result)

// Options configure a [Builder].
type Options struct {
	// Layout holds the engine-wide layout parameters.
	Layout layout.Options

	// OnBuild, when set, is invoked once per completed build.
	OnBuild Callback

	// Logger used for build diagnostics. Defaults to a discard logger.
	Logger *log.Logger
}

// ValidateAndSetDefaults fills unset fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// =============================================================================
// === Builder ===
// =============================================================================

// record is one arena slot. Parent and children are arena indices;
// a parent index of -1 marks a root.
type record struct {
	id       string
	kind     graph.NodeKind
	flow     graph.Flow
	align    bool
	ports    []graph.Port
	width    float64
	height   float64
	parent   int
	children []int
	expanded bool
}

// Builder owns the graph model arenas and the dirty/settling state
// machine. It is safe for concurrent use; builds are serialized, and a
// settle request arriving while one is in flight collapses into a single
// follow-up build.
type Builder struct {
	mu    sync.Mutex
	opts  Options
	nodes []record
	index map[string]int

	edges     []Edge
	edgeIndex map[string]int

	nextNode int
	nextEdge int

	dirty    bool
	pending  bool
	settling bool
	built    bool
	last     *layout.Result
}

// New constructs an empty builder.
func New(opts Options) (*Builder, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Builder{
		opts:      opts,
		index:     make(map[string]int),
		edgeIndex: make(map[string]int),
		nextNode:  1,
		nextEdge:  1,
	}, nil
}

// =============================================================================
// === Mutations ===
// =============================================================================

// AddLeaf adds a leaf node. parentID may be empty for a root node.
// Returns the (possibly generated) node id.
func (b *Builder) AddLeaf(parentID string, spec Leaf) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addNodeLocked(parentID, record{
		id:     spec.ID,
		kind:   graph.KindLeaf,
		ports:  spec.Ports,
		width:  spec.Width,
		height: spec.Height,
	})
}

// AddContainer adds a container node. parentID may be empty for a root.
func (b *Builder) AddContainer(parentID string, spec Container) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addNodeLocked(parentID, record{
		id:       spec.ID,
		kind:     graph.KindContainer,
		flow:     spec.Flow,
		align:    spec.AlignChildren,
		ports:    spec.Ports,
		width:    spec.Width,
		height:   spec.Height,
		expanded: !spec.Collapsed,
	})
}

func (b *Builder) addNodeLocked(parentID string, rec record) (string, error) {
	pi := -1
	if parentID != "" {
		var ok bool
		pi, ok = b.index[parentID]
		if !ok {
			return "", errors.New(errors.ErrCodeNotFound, "parent node %q not found", parentID)
		}
		if b.nodes[pi].kind != graph.KindContainer {
			return "", errors.New(errors.ErrCodeInvalidNode, "node %q is a leaf and cannot hold children", parentID)
		}
	}
	if rec.id == "" {
		rec.id = b.generateNodeID()
	} else {
		if err := errors.ValidateNodeID(rec.id); err != nil {
			return "", err
		}
		if _, exists := b.index[rec.id]; exists {
			return "", errors.New(errors.ErrCodeInvalidNode, "node %q already exists", rec.id)
		}
	}
	if rec.flow != graph.FlowInherit && !rec.flow.Valid() {
		return "", errors.New(errors.ErrCodeInvalidFlow, "invalid flow %q", rec.flow)
	}
	for _, p := range rec.ports {
		if err := errors.ValidatePortName(p.Name); err != nil {
			return "", err
		}
	}

	rec.parent = pi
	i := len(b.nodes)
	b.nodes = append(b.nodes, rec)
	b.index[rec.id] = i
	if pi >= 0 {
		b.nodes[pi].children = append(b.nodes[pi].children, i)
	}
	b.dirty = true
	return rec.id, nil
}

// AddEdge adds an edge between two existing nodes. Both endpoints must
// already be in the model; the builder never holds dangling references.
func (b *Builder) AddEdge(spec Edge) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.index[spec.From]; !ok {
		return "", &errors.ReferenceError{ID: spec.From, EdgeID: spec.ID}
	}
	if _, ok := b.index[spec.To]; !ok {
		return "", &errors.ReferenceError{ID: spec.To, EdgeID: spec.ID}
	}
	if spec.ID == "" {
		spec.ID = b.generateEdgeID()
	} else if _, exists := b.edgeIndex[spec.ID]; exists {
		return "", errors.New(errors.ErrCodeInvalidEdge, "edge %q already exists", spec.ID)
	}

	b.edgeIndex[spec.ID] = len(b.edges)
	b.edges = append(b.edges, spec)
	b.dirty = true
	return spec.ID, nil
}

// ToggleExpanded flips a container's visibility flag and returns the new
// value. Toggling a leaf is an error.
func (b *Builder) ToggleExpanded(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return false, errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	if b.nodes[i].kind != graph.KindContainer {
		return false, errors.New(errors.ErrCodeInvalidNode, "node %q is a leaf and cannot be toggled", id)
	}
	b.nodes[i].expanded = !b.nodes[i].expanded
	b.dirty = true
	return b.nodes[i].expanded, nil
}

// NotifyResize records a measured size for a leaf node, or the collapsed
// presentation size for a container. An expanded container still derives
// its box from its children; the recorded size takes effect whenever the
// container snapshots collapsed.
func (b *Builder) NotifyResize(id string, width, height float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	if b.nodes[i].width == width && b.nodes[i].height == height {
		return nil
	}
	b.nodes[i].width = width
	b.nodes[i].height = height
	b.dirty = true
	return nil
}

func (b *Builder) generateNodeID() string {
	for {
		id := fmt.Sprintf("n%d", b.nextNode)
		b.nextNode++
		if _, taken := b.index[id]; !taken {
			return id
		}
	}
}

func (b *Builder) generateEdgeID() string {
	for {
		id := fmt.Sprintf("e%d", b.nextEdge)
		b.nextEdge++
		if _, taken := b.edgeIndex[id]; !taken {
			return id
		}
	}
}

// =============================================================================
// === Queries ===
// =============================================================================

// Dirty reports whether the model has changed since the last build.
func (b *Builder) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Expanded reports a container's visibility flag.
func (b *Builder) Expanded(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[id]
	if !ok {
		return false, errors.New(errors.ErrCodeNotFound, "node %q not found", id)
	}
	return b.nodes[i].expanded, nil
}

// NodeCount returns the number of nodes in the model, visible or not.
func (b *Builder) NodeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodes)
}

// EdgeCount returns the number of edges in the model.
func (b *Builder) EdgeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.edges)
}

// Result returns the most recent build result, or nil before the first
// successful build.
func (b *Builder) Result() *layout.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Snapshot returns the current visible graph: collapsed containers
// appear childless with their pruned descendants dropped, and edges into
// hidden nodes are remapped to the nearest visible ancestor.
func (b *Builder) Snapshot() (*graph.Graph, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// =============================================================================
// === Settle ===
// =============================================================================

// Settle runs the pipeline if the model is dirty (or never built) and
// returns the authoritative result. If the build callback mutates the
// model, at most one follow-up build runs in the same call; further
// changes stay dirty for the next Settle. A Settle arriving while
// another is in flight marks the model for that follow-up and returns
// the previous result immediately.
func (b *Builder) Settle() (*layout.Result, error) {
	b.mu.Lock()
	if b.settling {
		b.pending = true
		res := b.last
		b.mu.Unlock()
		return res, nil
	}
	if b.built && !b.dirty {
		res := b.last
		b.mu.Unlock()
		return res, nil
	}
	b.settling = true

	var res *layout.Result
	var err error
	for pass := 0; pass < 2; pass++ {
		b.dirty = false
		b.pending = false
		var snap *graph.Graph
		snap, err = b.snapshotLocked()
		if err != nil {
			break
		}
		b.mu.Unlock()

		res, err = layout.Compute(context.Background(), snap, b.opts.Layout, b.opts.Logger)
		if err == nil && b.opts.OnBuild != nil {
			b.opts.OnBuild(res)
		}

		b.mu.Lock()
		if err != nil {
			b.dirty = true
			break
		}
		b.built = true
		b.last = res
		if !b.dirty && !b.pending {
			break
		}
	}
	b.settling = false
	b.mu.Unlock()
	return res, err
}

// snapshotLocked builds the visible graph. Arena order guarantees a
// parent's slot precedes its children's, so visibility resolves in one
// forward pass.
func (b *Builder) snapshotLocked() (*graph.Graph, error) {
	g := graph.New()
	visible := make([]bool, len(b.nodes))
	for i, rec := range b.nodes {
		if rec.parent < 0 {
			visible[i] = true
		} else {
			visible[i] = visible[rec.parent] && b.nodes[rec.parent].expanded
		}
	}

	for i, rec := range b.nodes {
		if !visible[i] {
			continue
		}
		n := graph.Node{
			ID:            rec.id,
			Flow:          rec.flow,
			AlignChildren: rec.align,
			Ports:         append([]graph.Port(nil), rec.ports...),
			Width:         rec.width,
			Height:        rec.height,
		}
		if rec.kind == graph.KindContainer && rec.expanded {
			for _, ci := range rec.children {
				n.Children = append(n.Children, b.nodes[ci].id)
			}
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, e := range b.edges {
		fi, fok := b.visibleAncestor(visible, b.index[e.From])
		ti, tok := b.visibleAncestor(visible, b.index[e.To])
		if !fok || !tok {
			continue
		}
		// An edge whose endpoints collapse into the same container
		// degenerates to a self-edge; drop it unless it was one already.
		if fi == ti && e.From != e.To {
			continue
		}
		ge := graph.Edge{
			ID:    e.ID,
			From:  b.nodes[fi].id,
			To:    b.nodes[ti].id,
			Group: e.Group,
		}
		// Ports belong to the original endpoints; keep them only when
		// the endpoint itself is visible.
		if b.nodes[fi].id == e.From {
			ge.FromPort = e.FromPort
		}
		if b.nodes[ti].id == e.To {
			ge.ToPort = e.ToPort
		}
		if err := g.AddEdge(ge); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// visibleAncestor walks up from the arena slot to the nearest visible
// node, which may be the node itself.
func (b *Builder) visibleAncestor(visible []bool, i int) (int, bool) {
	for i >= 0 {
		if visible[i] {
			return i, true
		}
		i = b.nodes[i].parent
	}
	return -1, false
}
