// Copyright © 2024 Galvanized Logic Inc.

package physics

import "bytes"

// CollisionEvent is one of CollisionStarted/CollisionEnded/Collision
// (§6.4), keyed by the ordered pair of body ids (A.id < B.id, compared
// byte-wise) that own the contact; the manifold's normals point from A
// to B. Events are reported in pair-map insertion order.
type CollisionEvent struct {
	A, B     BodyID
	Manifold ContactManifold
}

// StepResult carries everything World.Tick reports beyond the mutated
// body state itself: the frame's collision event lists (§6.4).
type StepResult struct {
	Started   []CollisionEvent
	Ended     []CollisionEvent
	Colliding []CollisionEvent
}

// contactEvents turns a frame's started/active/ended contactPairs into
// the ordered event lists of §6.4. Events are emitted once per frame
// at frame end, per the Open Question 1 resolution in DESIGN.md:
// sub-frame flicker within a single outer step never reaches the host.
func contactEvents(bodies []*Body, started, ended, active []*contactPair) StepResult {
	toEvent := func(p *contactPair) CollisionEvent {
		a, b := bodies[p.slotA], bodies[p.slotB]
		m := p.manifold
		if bytes.Compare(a.ID[:], b.ID[:]) > 0 {
			a, b = b, a
			m = flipManifold(m)
		}
		return CollisionEvent{A: a.ID, B: b.ID, Manifold: m}
	}
	var result StepResult
	for _, p := range started {
		result.Started = append(result.Started, toEvent(p))
	}
	for _, p := range ended {
		result.Ended = append(result.Ended, toEvent(p))
	}
	for _, p := range active {
		result.Colliding = append(result.Colliding, toEvent(p))
	}
	return result
}
