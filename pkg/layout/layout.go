// Package layout drives the constraint solver and translates its output
// back into node and edge transforms.
//
// One call to [Compute] is one complete layout: hierarchy analysis,
// constraint assembly, a loose clustering pass (real and dummy vertices,
// overlap allowed), a strict overlap-free pass (real vertices and groups,
// grid snapped), and coordinate translation. The loose pass exists only
// to warm-start the strict pass away from bad local minima; its output is
// discarded beyond the rough coordinates the real vertices keep.
package layout

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nestflow/nestflow/pkg/assemble"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/hierarchy"
	"github.com/nestflow/nestflow/pkg/observability"
	"github.com/nestflow/nestflow/pkg/solver"
)

// Default engine parameters. All of them are configuration; see
// [Options] and pkg/config.
const (
	DefaultGap              = 30.0
	DefaultPadding          = 10.0
	DefaultGridUnit         = 10.0
	DefaultMinSize          = 20.0
	DefaultLooseIterations  = 80
	DefaultStrictIterations = 160
	DefaultSeed             = uint64(42)
)

// Options are the engine-wide layout parameters supplied at
// construction.
type Options struct {
	// Flow is the default flow direction for edges whose endpoints share
	// no ancestor, and the root of flow inheritance.
	Flow graph.Flow `json:"flow,omitempty"`

	// Gap is the fixed clearance between separated elements.
	Gap float64 `json:"gap,omitempty"`

	// Padding is the interior padding of container bounding boxes.
	Padding float64 `json:"padding,omitempty"`

	// GridUnit snaps strict-pass coordinates when positive.
	GridUnit float64 `json:"grid_unit,omitempty"`

	// MinSize clamps degenerate leaf dimensions.
	MinSize float64 `json:"min_size,omitempty"`

	// Iteration budgets for the two solver passes.
	LooseIterations  int `json:"loose_iterations,omitempty"`
	StrictIterations int `json:"strict_iterations,omitempty"`

	// Seed drives deterministic initial placement.
	Seed uint64 `json:"seed,omitempty"`
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		Flow:             graph.DefaultFlow,
		Gap:              DefaultGap,
		Padding:          DefaultPadding,
		GridUnit:         DefaultGridUnit,
		MinSize:          DefaultMinSize,
		LooseIterations:  DefaultLooseIterations,
		StrictIterations: DefaultStrictIterations,
		Seed:             DefaultSeed,
	}
}

// normalized fills zero fields with defaults so partially specified
// options behave predictably.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Flow == graph.FlowInherit {
		o.Flow = d.Flow
	}
	if o.Gap <= 0 {
		o.Gap = d.Gap
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.MinSize <= 0 {
		o.MinSize = d.MinSize
	}
	if o.LooseIterations <= 0 {
		o.LooseIterations = d.LooseIterations
	}
	if o.StrictIterations <= 0 {
		o.StrictIterations = d.StrictIterations
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

// Result is the output of one completed build: overall dimensions plus
// every node and edge with its transform populated. Consumers must treat
// each result as replacing, not merging with, the previous one.
type Result struct {
	Width  float64      `json:"width" bson:"width"`
	Height float64      `json:"height" bson:"height"`
	Nodes  []graph.Node `json:"nodes" bson:"nodes"`
	Edges  []graph.Edge `json:"edges,omitempty" bson:"edges,omitempty"`
	Stats  Stats        `json:"stats" bson:"stats"`
}

// Node returns the laid-out node with the given ID, or nil.
func (r *Result) Node(id string) *graph.Node {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

// Edge returns the laid-out edge with the given ID, or nil.
func (r *Result) Edge(id string) *graph.Edge {
	for i := range r.Edges {
		if r.Edges[i].ID == id {
			return &r.Edges[i]
		}
	}
	return nil
}

// Stats describes the assembled problem and how both passes ended.
// Budget exhaustion shows up here, never as an error.
type Stats struct {
	RealVertices  int          `json:"real_vertices" bson:"real_vertices"`
	DummyVertices int          `json:"dummy_vertices" bson:"dummy_vertices"`
	Groups        int          `json:"groups" bson:"groups"`
	Constraints   int          `json:"constraints" bson:"constraints"`
	Loose         solver.Stats `json:"loose" bson:"loose"`
	Strict        solver.Stats `json:"strict" bson:"strict"`
}

// Compute runs the full pipeline over a graph snapshot. The input graph
// is not mutated; transforms are written to copies in the result. The
// logger may be nil. The context is passed to observability hooks only;
// the solver itself always runs its bounded budget to the end.
func Compute(ctx context.Context, g *graph.Graph, opts Options, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	opts = opts.normalized()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	h, err := hierarchy.Analyze(g)
	if err != nil {
		return nil, err
	}

	asm, err := assemble.Build(g, h, assemble.Options{
		DefaultFlow: opts.Flow,
		Gap:         opts.Gap,
		Padding:     opts.Padding,
		MinSize:     opts.MinSize,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("assembled constraint graph",
		"real", asm.RealCount,
		"dummy", len(asm.Vertices)-asm.RealCount,
		"groups", len(asm.Groups),
		"constraints", len(asm.Constraints))

	// Loose pass: everything participates, overlap allowed. Real
	// vertices keep their rough coordinates as warm-start state.
	observability.Build().OnSolvePassStart(ctx, "loose", len(asm.Vertices))
	looseStart := time.Now()
	loose := solver.Solve(asm.Vertices, asm.LoosePassLinks(), asm.LoosePassConstraints(), nil,
		solver.Options{
			Iterations: opts.LooseIterations,
			Seed:       opts.Seed,
		})
	observability.Build().OnSolvePassComplete(ctx, "loose", loose.Iterations, loose.Converged, time.Since(looseStart))
	logger.Debug("loose pass finished", "iterations", loose.Iterations, "converged", loose.Converged)

	// Strict pass: real vertices and groups only, overlap-free, snapped.
	realVerts := asm.Vertices[:asm.RealCount]
	observability.Build().OnSolvePassStart(ctx, "strict", len(realVerts))
	strictStart := time.Now()
	strict := solver.Solve(realVerts, asm.Links, asm.Constraints, asm.Groups,
		solver.Options{
			Iterations:   opts.StrictIterations,
			AvoidOverlap: true,
			GridUnit:     opts.GridUnit,
			Seed:         opts.Seed,
		})
	observability.Build().OnSolvePassComplete(ctx, "strict", strict.Iterations, strict.Converged, time.Since(strictStart))
	logger.Debug("strict pass finished",
		"iterations", strict.Iterations,
		"converged", strict.Converged,
		"unsatisfied", strict.Unsatisfied,
		"overlaps", strict.OverlapsLeft)

	alignContainers(g, h, asm, realVerts, opts)

	res := translate(g, h, asm, realVerts)
	res.Stats = Stats{
		RealVertices:  asm.RealCount,
		DummyVertices: len(asm.Vertices) - asm.RealCount,
		Groups:        len(asm.Groups),
		Constraints:   len(asm.Constraints),
		Loose:         loose,
		Strict:        strict,
	}
	return res, nil
}
