// Package solver implements a bounded iterative relaxation over vertices,
// links, separation constraints, and groups.
//
// The rest of the engine treats this package as a black box with one
// promise: given a feasible set of separation constraints it moves
// vertices toward satisfying all of them, optionally removes overlaps
// between siblings, and never runs past its iteration budget. Exhausting
// the budget is not an error; the best available positions are kept and
// reported through [Stats].
//
// The algorithm per [Solve] call:
//
//  1. Deterministic seeded placement of unplaced vertices.
//  2. Spring relaxation over links with a decaying step size.
//  3. Gauss-Seidel projection of separation constraints.
//  4. Hierarchical overlap removal between siblings (optional).
//  5. Grid snapping followed by a monotone constraint re-sweep, so
//     snapping can never un-satisfy a separation constraint (optional).
//  6. Group bounding box computation.
package solver

import (
	"math"
	"math/rand"
)

// Vertex is a positioned rectangle. Dummy vertices have zero size.
// Positions refer to the rectangle center.
type Vertex struct {
	X, Y          float64
	Width, Height float64
	placed        bool
}

// Link pulls two vertices toward a desired center distance during the
// spring phase. Links never push vertices apart beyond their length.
type Link struct {
	Source, Target int
	Length         float64
}

// Axis selects the coordinate a separation constraint acts on.
type Axis int

// Axes.
const (
	Horizontal Axis = iota
	Vertical
)

// Constraint is a directional separation: the Left vertex's coordinate
// along Axis plus Gap must not exceed the Right vertex's coordinate.
type Constraint struct {
	Axis        Axis
	Left, Right int
	Gap         float64
}

// Group is a recursive bounding region over member vertices and
// subgroups. Bounds are computed at the end of [Solve]; moving a group
// during overlap removal moves every descendant vertex rigidly.
type Group struct {
	Leaves  []int // member vertex indices
	Groups  []int // member subgroup indices
	Padding float64

	// Computed bounds (top-left origin).
	X, Y, Width, Height float64
}

// Options bounds and tunes a solve.
type Options struct {
	// Iterations caps the spring/projection rounds. Values below 1 are
	// treated as 1.
	Iterations int

	// AvoidOverlap enables hierarchical sibling overlap removal.
	AvoidOverlap bool

	// GridUnit snaps final coordinates to multiples of the unit when
	// positive.
	GridUnit float64

	// Seed drives the deterministic initial placement. The same seed and
	// input produce the same initial configuration, but no bit-exact
	// reproducibility is promised across solver revisions.
	Seed uint64
}

// Stats reports how a solve ended. Budget exhaustion is reported, not
// returned as an error.
type Stats struct {
	Iterations    int
	Unsatisfied   int // separation constraints still violated beyond tolerance
	OverlapsLeft  int // sibling overlaps still present after removal budget
	Converged     bool
}

// tolerance for treating a separation constraint as satisfied.
const tolerance = 1e-6

// Solve relaxes vertex positions in place and computes group bounds.
func Solve(vertices []Vertex, links []Link, constraints []Constraint, groups []*Group, opts Options) Stats {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}

	seedPlacement(vertices, opts.Seed)

	var stats Stats
	for i := 0; i < opts.Iterations; i++ {
		// Step decays so early iterations explore and late ones settle.
		step := 1.0 - float64(i)/float64(opts.Iterations)
		springStep(vertices, links, 0.1+0.9*step)
		projectConstraints(vertices, constraints, 2, false)
		stats.Iterations = i + 1
	}

	// Final projection to a fixpoint within a sweep budget.
	projectConstraints(vertices, constraints, sweepBudget(vertices), false)

	if opts.AvoidOverlap {
		margin := opts.GridUnit // keep clearance that survives snapping
		stats.OverlapsLeft = removeOverlaps(vertices, constraints, groups, nil, margin)
		projectConstraints(vertices, constraints, sweepBudget(vertices), true)
	}

	if opts.GridUnit > 0 {
		snapToGrid(vertices, constraints, opts.GridUnit)
	}

	ComputeBounds(vertices, groups)

	stats.Unsatisfied = countViolations(vertices, constraints)
	stats.Converged = stats.Unsatisfied == 0 && stats.OverlapsLeft == 0
	return stats
}

// sweepBudget caps Gauss-Seidel sweeps; chains propagate one level per
// sweep in the worst order, so the vertex count is always enough.
func sweepBudget(vertices []Vertex) int {
	if len(vertices) < 8 {
		return 8
	}
	return len(vertices)
}

// seedPlacement spreads unplaced vertices on a golden-angle spiral with
// seeded jitter. Vertices carrying warm-start coordinates from a
// previous pass are left alone.
func seedPlacement(vertices []Vertex, seed uint64) {
	rng := rand.New(rand.NewSource(int64(seed)))
	const goldenAngle = 2.39996322972865332
	for i := range vertices {
		if vertices[i].placed || vertices[i].X != 0 || vertices[i].Y != 0 {
			vertices[i].placed = true
			continue
		}
		r := 24.0 * math.Sqrt(float64(i)+1)
		theta := goldenAngle * float64(i)
		vertices[i].X = r*math.Cos(theta) + rng.Float64()
		vertices[i].Y = r*math.Sin(theta) + rng.Float64()
		vertices[i].placed = true
	}
}

// springStep moves linked vertices toward their desired distance.
func springStep(vertices []Vertex, links []Link, step float64) {
	for _, l := range links {
		a := &vertices[l.Source]
		b := &vertices[l.Target]
		dx := b.X - a.X
		dy := b.Y - a.Y
		dist := math.Hypot(dx, dy)
		if dist < tolerance {
			continue
		}
		// Positive err means too far apart: pull together.
		err := (dist - l.Length) / dist * 0.5 * step
		a.X += dx * err
		a.Y += dy * err
		b.X -= dx * err
		b.Y -= dy * err
	}
}

// projectConstraints runs Gauss-Seidel sweeps over the separation
// constraints. In symmetric mode both endpoints move half the violation;
// in monotone mode only the Right endpoint moves in the increasing
// direction, which can never un-satisfy a previously satisfied
// constraint of the same orientation.
func projectConstraints(vertices []Vertex, constraints []Constraint, maxSweeps int, monotone bool) {
	for s := 0; s < maxSweeps; s++ {
		moved := false
		for _, c := range constraints {
			l := coord(&vertices[c.Left], c.Axis)
			r := coord(&vertices[c.Right], c.Axis)
			violation := (l + c.Gap) - r
			if violation <= tolerance {
				continue
			}
			moved = true
			if monotone {
				setCoord(&vertices[c.Right], c.Axis, r+violation)
			} else {
				setCoord(&vertices[c.Left], c.Axis, l-violation/2)
				setCoord(&vertices[c.Right], c.Axis, r+violation/2)
			}
		}
		if !moved {
			return
		}
	}
}

// snapToGrid rounds every coordinate to the nearest grid line, then
// re-satisfies constraints by pushing Right endpoints up to the next
// grid line. The sweep is monotone, so it terminates within the budget
// and leaves every coordinate on the grid.
func snapToGrid(vertices []Vertex, constraints []Constraint, unit float64) {
	for i := range vertices {
		vertices[i].X = math.Round(vertices[i].X/unit) * unit
		vertices[i].Y = math.Round(vertices[i].Y/unit) * unit
	}
	for s := 0; s < sweepBudget(vertices); s++ {
		moved := false
		for _, c := range constraints {
			l := coord(&vertices[c.Left], c.Axis)
			r := coord(&vertices[c.Right], c.Axis)
			if l+c.Gap-r <= tolerance {
				continue
			}
			moved = true
			snapped := math.Ceil((l+c.Gap)/unit-tolerance) * unit
			setCoord(&vertices[c.Right], c.Axis, snapped)
		}
		if !moved {
			return
		}
	}
}

func countViolations(vertices []Vertex, constraints []Constraint) int {
	n := 0
	for _, c := range constraints {
		l := coord(&vertices[c.Left], c.Axis)
		r := coord(&vertices[c.Right], c.Axis)
		if l+c.Gap-r > 1e-3 {
			n++
		}
	}
	return n
}

func coord(v *Vertex, a Axis) float64 {
	if a == Horizontal {
		return v.X
	}
	return v.Y
}

func setCoord(v *Vertex, a Axis, val float64) {
	if a == Horizontal {
		v.X = val
	} else {
		v.Y = val
	}
}
