// Copyright © 2024 Galvanized Logic Inc.

package physics

// contactState is the lifecycle stage of one tracked body pair (§4.3):
// an explicit state machine, rather than a single valid/invalid flag,
// so every transition names itself and CollisionStarted/CollisionEnded
// events (§6.4) can be raised at the right edges.
type contactState uint8

const (
	contactAbsent contactState = iota
	contactNew
	contactActive
	contactSeparating
	contactGone
)

// contactPair tracks one broad-phase candidate across frames: whether
// its manifold currently holds points, the per-point solver
// constraints rebuilt from it each frame, and the lifecycle state used
// to raise collision events.
type contactPair struct {
	slotA, slotB int
	state        contactState
	manifold     ContactManifold
	constraints  []*contactConstraint
	separatingFrames int
}

// contactSeparationFrames is how many further zero-point update calls a
// Separating pair must see before it becomes Gone and is evicted from
// the table. The first zero-point call moves a pair to Separating, so a
// pair ends on its (contactSeparationFrames+1)th consecutive zero-point
// call; World.step makes one update call per substep. Not discarding a
// contact on the first miss keeps transient narrow-phase jitter from
// firing CollisionEnded every frame.
const contactSeparationFrames = 2

// contactTable is the pair map of §4.3: one entry per (slotA, slotB)
// candidate pair that the broad phase has reported at least once,
// keyed so repeated broad-phase hits reuse the same entry and its
// lifecycle state; the entry's manifold is replaced by every fresh
// query and its multipliers reset every substep. order records pair keys in the order they first
// entered the table: Go randomizes plain map iteration, but §5
// requires the contact solver and emitted events to walk pairs in a
// fixed, reproducible order, so every caller iterates order instead
// of ranging over pairs directly.
type contactTable struct {
	pairs map[pairKey]*contactPair
	order []pairKey
}

func newContactTable() *contactTable {
	return &contactTable{pairs: map[pairKey]*contactPair{}}
}

// ordered returns the table's live pairs in insertion order.
func (t *contactTable) ordered() []*contactPair {
	out := make([]*contactPair, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.pairs[key])
	}
	return out
}

// update folds this frame's broad-phase candidate pairs and their
// fresh narrow-phase manifolds into the table, advancing each pair's
// lifecycle state and returning the pairs that just started or just
// ended contact this frame (for event dispatch by events.go).
func (t *contactTable) update(bodies []*Body, candidates []pairKey, query func(a, b *Body) ContactManifold, solvable func(a, b *Body) bool, staticFriction func(a, b *Body) Scalar) (started, ended []*contactPair) {
	seen := make(map[pairKey]bool, len(candidates))
	for _, key := range candidates {
		seen[key] = true
		a, b := bodies[key.a], bodies[key.b]
		manifold := query(a, b)

		pair, ok := t.pairs[key]
		if !ok {
			pair = &contactPair{slotA: key.a, slotB: key.b, state: contactAbsent}
			t.pairs[key] = pair
			t.order = append(t.order, key)
		}
		pair.manifold = manifold

		if manifold.Count > 0 {
			pair.separatingFrames = 0
			switch pair.state {
			case contactAbsent, contactGone:
				pair.state = contactNew
				started = append(started, pair)
			case contactNew, contactSeparating:
				pair.state = contactActive
			}
			if solvable(a, b) {
				pair.syncConstraints(a, b, staticFriction(a, b))
			} else {
				pair.constraints = nil
			}
		} else {
			pair.constraints = nil
			switch pair.state {
			case contactNew, contactActive:
				pair.state = contactSeparating
			case contactSeparating:
				pair.separatingFrames++
				if pair.separatingFrames >= contactSeparationFrames {
					pair.state = contactGone
					ended = append(ended, pair)
				}
			}
		}
	}

	// Pairs the broad phase stopped reporting entirely (bodies moved far
	// apart, or one slept) age out the same way a manifold that went to
	// zero points would.
	for _, key := range t.order {
		if seen[key] {
			continue
		}
		pair := t.pairs[key]
		switch pair.state {
		case contactNew, contactActive:
			pair.state = contactSeparating
			pair.constraints = nil
		case contactSeparating:
			pair.separatingFrames++
			if pair.separatingFrames >= contactSeparationFrames {
				pair.state = contactGone
				ended = append(ended, pair)
			}
		}
	}

	kept := t.order[:0]
	for _, key := range t.order {
		if t.pairs[key].state == contactGone {
			delete(t.pairs, key)
			continue
		}
		kept = append(kept, key)
	}
	t.order = kept
	return started, ended
}

// syncConstraints rebuilds the per-point contactConstraint list from
// the current manifold. Lagrange multipliers reset to zero every
// substep (§4.2(c)): only the manifold geometry persists frame to
// frame, not the accumulated multipliers.
func (p *contactPair) syncConstraints(a, b *Body, staticFriction Scalar) {
	p.constraints = p.constraints[:0]
	for i := 0; i < p.manifold.Count; i++ {
		p.constraints = append(p.constraints, newContactConstraint(a, b, p.manifold.Points[i], staticFriction))
	}
}

// resetLambdas clears every point's accumulated normal/tangential
// multiplier, called once per substep before the position solver runs.
func (p *contactPair) resetLambdas() {
	for _, cc := range p.constraints {
		cc.lambdaN, cc.lambdaT = 0, 0
	}
}

func (p *contactPair) solve(h Scalar) {
	for _, cc := range p.constraints {
		cc.solve(h)
	}
}
