// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"sort"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// pairKey identifies an unordered pair of body slots, normalized so
// (a, b) and (b, a) hash the same.
type pairKey struct {
	a, b int
}

func makePairKey(i, j int) pairKey {
	if i > j {
		i, j = j, i
	}
	return pairKey{i, j}
}

// broadphaseEndpoint is one edge of a body's projected AABB interval
// along the sweep axis.
type broadphaseEndpoint struct {
	slot  int
	value Scalar
	isMin bool
}

// broadphase finds candidate colliding pairs using sweep-and-prune
// along the axis of maximum variance of body centers (§4.4): sorting
// along whichever axis the bodies are most spread over keeps the
// active interval short and the number of false-positive overlaps low,
// which matters more than picking a fixed axis once bodies cluster
// along one dimension of the world.
type broadphase struct {
	margin Scalar

	endpoints []broadphaseEndpoint
	aabbs     []AABB
}

func newBroadphase(margin Scalar) *broadphase {
	return &broadphase{margin: margin}
}

// candidatePairs returns every pair of body slots that passes
// candidatePairAllowed and whose swept AABBs overlap; sleep state is not
// checked here. Bodies
// without a Collider still get swept AABBs of a single point so mixed
// collider/no-collider simulations (particles) don't crash. Such a
// point can still overlap another body's AABB and be reported as a
// candidate; narrowphase.query returns an empty manifold for it.
func (bp *broadphase) candidatePairs(bodies []*Body) []pairKey {
	bp.aabbs = bp.aabbs[:0]
	for _, b := range bodies {
		bp.aabbs = append(bp.aabbs, swingAabb(b, bp.margin))
	}

	axis := maxVarianceAxis(bp.aabbs)

	bp.endpoints = bp.endpoints[:0]
	for i, box := range bp.aabbs {
		lo, hi := axisExtent(box, axis)
		bp.endpoints = append(bp.endpoints,
			broadphaseEndpoint{slot: i, value: lo, isMin: true},
			broadphaseEndpoint{slot: i, value: hi, isMin: false},
		)
	}
	sort.Slice(bp.endpoints, func(i, j int) bool { return bp.endpoints[i].value < bp.endpoints[j].value })

	var pairs []pairKey
	active := make(map[int]bool)
	for _, e := range bp.endpoints {
		if e.isMin {
			for other := range active {
				if candidatePairAllowed(bodies[e.slot], bodies[other]) && bp.aabbs[e.slot].Overlaps(bp.aabbs[other]) {
					pairs = append(pairs, makePairKey(e.slot, other))
				}
			}
			active[e.slot] = true
		} else {
			delete(active, e.slot)
		}
	}
	return pairs
}

// candidatePairAllowed filters out pairs that can never usefully
// collide: two non-dynamic bodies, or bodies whose collision layer
// masks don't intersect (§3 "collision layers").
func candidatePairAllowed(a, b *Body) bool {
	if a.Kind != Dynamic && b.Kind != Dynamic {
		return false
	}
	if a.Memberships&b.Filters == 0 || b.Memberships&a.Filters == 0 {
		return false
	}
	return true
}

func swingAabb(b *Body, margin Scalar) AABB {
	if b.Collider == nil {
		p := b.Position
		return AABB{Min: p, Max: p}
	}
	box := b.Collider.SweptAabb(b.previousPosition, b.Position, b.Rotation)
	return box.expand(margin)
}

// maxVarianceAxis picks the coordinate (0=x, 1=y, 2=z) whose AABB
// centers have the greatest spread, so the sweep axis adapts to the
// actual distribution of bodies in the scene instead of assuming a
// fixed world axis.
func maxVarianceAxis(boxes []AABB) int {
	if len(boxes) == 0 {
		return 0
	}
	var mean lin.V3
	for _, box := range boxes {
		c := box.center()
		mean.Add(&mean, &c)
	}
	mean.Scale(&mean, 1/Scalar(len(boxes)))

	var varSum lin.V3
	for _, box := range boxes {
		c := box.center()
		dx, dy, dz := c.X-mean.X, c.Y-mean.Y, c.Z-mean.Z
		varSum.X += dx * dx
		varSum.Y += dy * dy
		varSum.Z += dz * dz
	}
	switch {
	case varSum.X >= varSum.Y && varSum.X >= varSum.Z:
		return 0
	case varSum.Y >= varSum.Z:
		return 1
	default:
		return 2
	}
}

func axisExtent(box AABB, axis int) (lo, hi Scalar) {
	switch axis {
	case 0:
		return box.Min.X, box.Max.X
	case 1:
		return box.Min.Y, box.Max.Y
	default:
		return box.Min.Z, box.Max.Z
	}
}
