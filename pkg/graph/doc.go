// Package graph defines the nestflow graph model: nodes arranged in a
// containment forest, and edges connecting nodes at any nesting depth.
//
// The model is the engine's only client-facing vocabulary. Nodes are
// either leaves (client-sized boxes) or containers (sized from their
// visible descendants after layout); the distinction is an explicit tag
// rather than an inference from the children list. Edges reference nodes
// by ID and may cross container boundaries freely.
//
// Transforms (positions, sizes, polylines) are populated by the layout
// pipeline and are zero before the first build. All validation that can
// happen at construction time happens here: ID rules, flow direction
// enums, port names. Structural integrity (acyclic containment, resolvable
// edge endpoints) is verified by the hierarchy analyzer and the constraint
// assembler before any layout work begins.
//
// The package also provides the JSON document format used by the CLI and
// the HTTP service; see [ReadGraph] and [WriteGraph].
package graph
