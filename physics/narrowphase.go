// Copyright © 2024 Galvanized Logic Inc.

package physics

// narrowphase turns a broad-phase candidate pair into a contact
// manifold. query calls the Collider for every allowed pair that has
// colliders; the sensor/sleeping rules of §4.2(b) are applied after
// that by solvable, which decides whether the manifold gets solver
// constraints. predictionDistance is threaded
// straight through to Collider.ContactManifold so every query in this
// World uses the same speculative-contact band (§6.3, Config.PredictionDistance).
type narrowphase struct {
	predictionDistance Scalar
}

// query runs the narrow-phase check for one candidate pair and
// reports the manifold to use for contact solving. A pair involving a
// sensor collider, or where neither body is awake and Dynamic, never
// produces solver contacts — sensors still report their manifold (for
// CollisionStarted/Ended events) but narrowphase.solvable reports
// false for them so contacts.go never builds a contactConstraint from
// it.
func (n narrowphase) query(a, b *Body) ContactManifold {
	if a.Collider == nil || b.Collider == nil {
		return ContactManifold{}
	}
	if !broadCouldTouch(a, b) {
		return ContactManifold{}
	}
	return a.Collider.ContactManifold(a.Position, a.Rotation, b.Collider, b.Position, b.Rotation, n.predictionDistance)
}

// solvable reports whether a manifold between a and b should produce
// position/velocity solver constraints, as opposed to merely a
// collision event. Sensors, and pairs where neither body is an awake
// Dynamic body, are reported but never solved.
func (narrowphase) solvable(a, b *Body) bool {
	if a.IsSensor || b.IsSensor {
		return false
	}
	if a.Collider != nil && a.Collider.Sensor() {
		return false
	}
	if b.Collider != nil && b.Collider.Sensor() {
		return false
	}
	awake := (a.Kind == Dynamic && a.Active()) || (b.Kind == Dynamic && b.Active())
	return awake
}

// broadCouldTouch re-checks the membership/filter and dynamic-pairing
// rule narrowphase inherits from broadphase.candidatePairAllowed, so a
// direct caller of query (tests, or a host driving narrow phase without
// the sweep-and-prune stage) gets the same exclusion behavior.
func broadCouldTouch(a, b *Body) bool {
	return candidatePairAllowed(a, b)
}

// staticFrictionOf returns the combined static friction coefficient
// used to seed a new contactConstraint, per the material combination
// rule of §3 (geometric mean).
func staticFrictionOf(a, b *Body) Scalar {
	static, _ := combineFriction(a.Material, b.Material)
	return static
}
