// Package pkg provides the core libraries for Nestflow hierarchical graph layout.
//
// # Overview
//
// Nestflow computes positions for directed graphs whose nodes nest inside
// container nodes. The pkg directory is organized around the layout
// pipeline:
//
//  1. [graph] - the mutable graph model and its JSON codec
//  2. [hierarchy] - containment analysis (depths, leaves, lowest common ancestors)
//  3. [assemble] - translation of the model into solver vertices and constraints
//  4. [solver] - the two-pass constraint solver
//  5. [layout] - the driver tying analysis, assembly, and solving together
//  6. [builder] - the stateful incremental API with collapse/expand support
//  7. [pipeline] - cached orchestration (layout → render)
//  8. [render] - DOT, SVG, PNG, and JSON artifact generation
//
// Supporting packages: [cache] (file and Redis backends), [store] (MongoDB
// layout persistence), [config] (TOML configuration), [errors] (coded
// errors), [observability] (instrumentation hooks), and [buildinfo].
//
// # Architecture
//
// The typical data flow through Nestflow:
//
//	graph.json / builder mutations
//	         ↓
//	    [hierarchy] package (containment analysis)
//	         ↓
//	    [assemble] package (vertices, groups, separation constraints)
//	         ↓
//	    [solver] package (loose pass, then strict overlap-free pass)
//	         ↓
//	    [layout] package (transforms, edge polylines, z-order)
//	         ↓
//	    DOT/SVG/PNG/JSON output
//
// # Quick Start
//
// Compute a layout and render it:
//
//	import (
//	    "context"
//	    "github.com/nestflow/nestflow/pkg/graph"
//	    "github.com/nestflow/nestflow/pkg/layout"
//	    "github.com/nestflow/nestflow/pkg/render"
//	)
//
//	g := graph.New()
//	_ = g.AddNode(graph.Node{ID: "a", Width: 80, Height: 40})
//	_ = g.AddNode(graph.Node{ID: "b", Width: 80, Height: 40})
//	_ = g.AddEdge(graph.Edge{ID: "e", From: "a", To: "b"})
//
//	res, err := layout.Compute(context.Background(), g, layout.DefaultOptions(), nil)
//	if err != nil {
//	    return err
//	}
//	svg, err := render.RenderSVG(context.Background(), render.ToDOT(res))
package pkg
