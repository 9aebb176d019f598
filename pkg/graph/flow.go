package graph

import "github.com/nestflow/nestflow/pkg/errors"

// Flow is the direction along which a container orders causally related
// elements. South and east order start-before-end with increasing
// coordinate; north and west reverse the inequality.
type Flow string

// Flow directions.
const (
	FlowNorth Flow = "north"
	FlowSouth Flow = "south"
	FlowEast  Flow = "east"
	FlowWest  Flow = "west"

	// FlowInherit means the node uses its container's (ultimately the
	// engine's) default flow direction.
	FlowInherit Flow = ""
)

// DefaultFlow is the engine-wide default used when neither a node nor any
// of its ancestors declares a flow direction.
const DefaultFlow = FlowSouth

// Valid reports whether f is a known flow direction or the inherit marker.
func (f Flow) Valid() bool {
	switch f {
	case FlowNorth, FlowSouth, FlowEast, FlowWest, FlowInherit:
		return true
	}
	return false
}

// Horizontal reports whether the flow axis is the X axis.
func (f Flow) Horizontal() bool { return f == FlowEast || f == FlowWest }

// Reversed reports whether the flow runs against increasing coordinates:
// north flow decreases Y, west flow decreases X.
func (f Flow) Reversed() bool { return f == FlowNorth || f == FlowWest }

// ParseFlow converts a string to a Flow, rejecting unknown values.
// An empty string parses to FlowInherit.
func ParseFlow(s string) (Flow, error) {
	f := Flow(s)
	if !f.Valid() {
		return FlowInherit, errors.New(errors.ErrCodeInvalidFlow,
			"invalid flow direction: %q (must be one of: north, south, east, west)", s)
	}
	return f, nil
}
