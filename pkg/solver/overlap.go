package solver

import "math"

// box is an axis-aligned rectangle used during overlap removal.
type box struct {
	minX, minY, maxX, maxY float64
}

func (b box) overlaps(o box, margin float64) bool {
	return b.minX < o.maxX+margin && o.minX < b.maxX+margin &&
		b.minY < o.maxY+margin && o.minY < b.maxY+margin
}

func (b box) translate(dx, dy float64) box {
	return box{b.minX + dx, b.minY + dy, b.maxX + dx, b.maxY + dy}
}

func vertexBox(v *Vertex) box {
	return box{
		minX: v.X - v.Width/2,
		minY: v.Y - v.Height/2,
		maxX: v.X + v.Width/2,
		maxY: v.Y + v.Height/2,
	}
}

// entity is one sibling at a containment level: either a single vertex
// or a whole group moved rigidly.
type entity struct {
	groupIdx  int   // -1 for a plain vertex
	vertexIdx int   // valid when groupIdx == -1
	leaves    []int // descendant vertex indices
	bounds    box
}

// relation records that one entity must precede another along an axis,
// derived from the separation constraints between their leaves.
type relation struct {
	axis Axis
}

// removeOverlaps separates sibling entities level by level, deepest
// containers first so parents see settled children. Entities related by
// a separation constraint are pushed apart along the constraint axis in
// the constraint direction; unrelated entities move along the axis of
// least penetration, unless axisOf pins the level (keyed by group index,
// -1 for the top level) to a single push axis. Returns the number of
// sibling overlaps remaining after the per-level budget.
func removeOverlaps(vertices []Vertex, constraints []Constraint, groups []*Group, axisOf map[int]Axis, margin float64) int {
	vertexOwner, groupOwner := owners(vertices, groups)

	for _, gi := range append(groupsDeepestFirst(groups, groupOwner), -1) {
		forced, hasForced := axisOf[gi]
		resolveLevel(vertices, constraints, levelEntities(vertices, groups, gi, vertexOwner, groupOwner), forced, hasForced, margin)
	}

	// Count what the budget left behind, across every level.
	remaining := 0
	levels := append(groupsDeepestFirst(groups, groupOwner), -1)
	for _, gi := range levels {
		ents := levelEntities(vertices, groups, gi, vertexOwner, groupOwner)
		for i := 0; i < len(ents); i++ {
			for j := i + 1; j < len(ents); j++ {
				if ents[i].bounds.overlaps(ents[j].bounds, 0) {
					remaining++
				}
			}
		}
	}
	return remaining
}

// owners maps each vertex and group to its containing group (-1 for
// top level).
func owners(vertices []Vertex, groups []*Group) (vertexOwner, groupOwner []int) {
	vertexOwner = make([]int, len(vertices))
	groupOwner = make([]int, len(groups))
	for i := range vertexOwner {
		vertexOwner[i] = -1
	}
	for i := range groupOwner {
		groupOwner[i] = -1
	}
	for gi, g := range groups {
		for _, v := range g.Leaves {
			vertexOwner[v] = gi
		}
		for _, sub := range g.Groups {
			groupOwner[sub] = gi
		}
	}
	return vertexOwner, groupOwner
}

// groupsDeepestFirst orders group indices so nested groups come before
// their containers.
func groupsDeepestFirst(groups []*Group, groupOwner []int) []int {
	depth := make([]int, len(groups))
	var depthOf func(gi int) int
	depthOf = func(gi int) int {
		if depth[gi] != 0 {
			return depth[gi]
		}
		d := 1
		if owner := groupOwner[gi]; owner >= 0 {
			d = depthOf(owner) + 1
		}
		depth[gi] = d
		return d
	}

	order := make([]int, len(groups))
	for i := range groups {
		depthOf(i)
		order[i] = i
	}
	// Insertion sort by descending depth; group counts are small.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && depth[order[j]] > depth[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

// levelEntities collects the direct members of the given group (-1 for
// the top level) with fresh bounding boxes.
func levelEntities(vertices []Vertex, groups []*Group, owner int, vertexOwner, groupOwner []int) []entity {
	var ents []entity
	for vi := range vertices {
		if vertexOwner[vi] != owner {
			continue
		}
		ents = append(ents, entity{
			groupIdx:  -1,
			vertexIdx: vi,
			leaves:    []int{vi},
			bounds:    vertexBox(&vertices[vi]),
		})
	}
	for gi := range groups {
		if groupOwner[gi] != owner {
			continue
		}
		ents = append(ents, entity{
			groupIdx: gi,
			leaves:   descendantLeaves(groups, gi),
			bounds:   groupBox(vertices, groups, gi),
		})
	}
	return ents
}

func descendantLeaves(groups []*Group, gi int) []int {
	g := groups[gi]
	out := append([]int(nil), g.Leaves...)
	for _, sub := range g.Groups {
		out = append(out, descendantLeaves(groups, sub)...)
	}
	return out
}

// groupBox computes a group's bounding box from current vertex
// positions, inflated by its padding. Nested padding accumulates
// naturally through the recursion.
func groupBox(vertices []Vertex, groups []*Group, gi int) box {
	g := groups[gi]
	b := box{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	expand := func(o box) {
		b.minX = math.Min(b.minX, o.minX)
		b.minY = math.Min(b.minY, o.minY)
		b.maxX = math.Max(b.maxX, o.maxX)
		b.maxY = math.Max(b.maxY, o.maxY)
	}
	for _, vi := range g.Leaves {
		expand(vertexBox(&vertices[vi]))
	}
	for _, sub := range g.Groups {
		expand(groupBox(vertices, groups, sub))
	}
	if math.IsInf(b.minX, 1) {
		return box{}
	}
	b.minX -= g.Padding
	b.minY -= g.Padding
	b.maxX += g.Padding
	b.maxY += g.Padding
	return b
}

// resolveLevel separates the entities of one level within a bounded
// number of passes.
func resolveLevel(vertices []Vertex, constraints []Constraint, ents []entity, forced Axis, hasForced bool, margin float64) {
	if len(ents) < 2 {
		return
	}

	rel := levelRelations(constraints, ents)
	budget := 4*len(ents) + 16

	for pass := 0; pass < budget; pass++ {
		moved := false
		for i := 0; i < len(ents); i++ {
			for j := i + 1; j < len(ents); j++ {
				if !ents[i].bounds.overlaps(ents[j].bounds, margin) {
					continue
				}
				separatePair(vertices, ents, rel, i, j, forced, hasForced, margin)
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

// levelRelations finds, for each ordered entity pair, the axis of any
// separation constraint between their descendant leaves. The assembler
// duplicates edge constraints across the full leaf cross product, so a
// single match identifies the relationship.
func levelRelations(constraints []Constraint, ents []entity) map[[2]int]relation {
	entityOf := make(map[int]int)
	for ei, e := range ents {
		for _, vi := range e.leaves {
			entityOf[vi] = ei
		}
	}

	rel := make(map[[2]int]relation)
	for _, c := range constraints {
		ei, okL := entityOf[c.Left]
		ej, okR := entityOf[c.Right]
		if !okL || !okR || ei == ej {
			continue
		}
		key := [2]int{ei, ej}
		if _, exists := rel[key]; !exists {
			rel[key] = relation{axis: c.Axis}
		}
	}
	return rel
}

// separatePair pushes two overlapping entities apart. A constraint
// relation dictates both axis and direction so the push deepens rather
// than fights the separation; a forced level axis pins the push to that
// axis with direction from the current center order; otherwise the pair
// splits along the axis of least penetration.
func separatePair(vertices []Vertex, ents []entity, rel map[[2]int]relation, i, j int, forced Axis, hasForced bool, margin float64) {
	a, b := &ents[i], &ents[j]
	penX := math.Min(a.bounds.maxX, b.bounds.maxX) - math.Max(a.bounds.minX, b.bounds.minX) + margin
	penY := math.Min(a.bounds.maxY, b.bounds.maxY) - math.Max(a.bounds.minY, b.bounds.minY) + margin

	if r, ok := rel[[2]int{i, j}]; ok {
		pushAlong(vertices, a, b, r.axis, pen(r.axis, penX, penY))
		return
	}
	if r, ok := rel[[2]int{j, i}]; ok {
		pushAlong(vertices, b, a, r.axis, pen(r.axis, penX, penY))
		return
	}

	if hasForced {
		first, second := a, b
		if centerAlong(a.bounds, forced) > centerAlong(b.bounds, forced) {
			first, second = b, a
		}
		pushAlong(vertices, first, second, forced, pen(forced, penX, penY))
		return
	}

	if penX <= penY {
		dir := 1.0
		if a.bounds.minX+a.bounds.maxX > b.bounds.minX+b.bounds.maxX {
			dir = -1
		}
		moveEntity(vertices, a, -dir*penX/2, 0)
		moveEntity(vertices, b, dir*penX/2, 0)
	} else {
		dir := 1.0
		if a.bounds.minY+a.bounds.maxY > b.bounds.minY+b.bounds.maxY {
			dir = -1
		}
		moveEntity(vertices, a, 0, -dir*penY/2)
		moveEntity(vertices, b, 0, dir*penY/2)
	}
}

func pen(axis Axis, penX, penY float64) float64 {
	if axis == Horizontal {
		return penX
	}
	return penY
}

func centerAlong(b box, axis Axis) float64 {
	if axis == Horizontal {
		return (b.minX + b.maxX) / 2
	}
	return (b.minY + b.maxY) / 2
}

// pushAlong moves first backwards and second forwards along the axis.
func pushAlong(vertices []Vertex, first, second *entity, axis Axis, amount float64) {
	if axis == Horizontal {
		moveEntity(vertices, first, -amount/2, 0)
		moveEntity(vertices, second, amount/2, 0)
	} else {
		moveEntity(vertices, first, 0, -amount/2)
		moveEntity(vertices, second, 0, amount/2)
	}
}

func moveEntity(vertices []Vertex, e *entity, dx, dy float64) {
	for _, vi := range e.leaves {
		vertices[vi].X += dx
		vertices[vi].Y += dy
	}
	e.bounds = e.bounds.translate(dx, dy)
}

// RepairOverlaps re-runs hierarchical overlap removal after a caller has
// moved vertices past the end of [Solve]. Centering siblings on one axis
// can push boxes the solver had separated only on that axis back into
// each other; pinning the push axis of the affected levels via axisOf
// resolves those overlaps without undoing the centering. Returns the
// number of sibling overlaps remaining after the budget. Callers must
// recompute group bounds afterwards.
func RepairOverlaps(vertices []Vertex, constraints []Constraint, groups []*Group, axisOf map[int]Axis, margin float64) int {
	return removeOverlaps(vertices, constraints, groups, axisOf, margin)
}

// ComputeBounds writes bounding boxes into the groups from current
// vertex positions. Solve calls it once positions settle; callers that
// move vertices afterwards (alignment post-processing) call it again.
func ComputeBounds(vertices []Vertex, groups []*Group) {
	for gi, g := range groups {
		b := groupBox(vertices, groups, gi)
		g.X = b.minX
		g.Y = b.minY
		g.Width = b.maxX - b.minX
		g.Height = b.maxY - b.minY
	}
}
