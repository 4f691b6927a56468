// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// constraintEpsilon guards every delta-lambda computation in this file
// against dividing by an essentially-zero correction vector.
const constraintEpsilon = 1e-50

// dynamicInverseInertia returns body b's inverse inertia tensor
// rotated into world space: R * I⁻¹_local * Rᵀ (§4.2(c)). Static and
// Kinematic bodies, and Dynamic bodies with zero inverse mass, report
// the zero tensor so they never receive a correction.
func dynamicInverseInertia(b *Body) lin.M3 {
	r := lin.NewM3().SetQ(&b.Rotation)
	rt := lin.NewM3().Transpose(r)
	local := lin.NewM3I().ScaleV(&b.inverseInertiaLocal)
	out := lin.NewM3().Mult(r, local)
	out.Mult(out, rt)
	return *out
}

// positionalPrep holds the per-call data shared by a positional
// constraint's delta-lambda computation and its apply step, so a
// caller that needs both doesn't recompute the world-space attachment
// arms or inverse inertia tensors twice. invMass1/invMass2 default to
// each body's own inverse mass but can be overridden per pair (see
// prepareContactPositional) to implement dominance.
type positionalPrep struct {
	b1, b2             *Body
	invMass1, invMass2 Scalar
	r1wc, r2wc         lin.V3
	invI1, invI2       lin.M3
}

// preparePositional computes the world-space attachment point offsets
// (r1_lc/r2_lc rotated into world space) and the dynamic inverse
// inertia tensors for a positional or contact constraint anchored at
// local offsets r1lc/r2lc from each body's origin.
func preparePositional(b1, b2 *Body, r1lc, r2lc lin.V3) positionalPrep {
	var p positionalPrep
	p.b1, p.b2 = b1, b2
	p.invMass1, p.invMass2 = b1.inverseMass, b2.inverseMass
	p.r1wc.MultQ(&r1lc, &b1.Rotation)
	p.r2wc.MultQ(&r2lc, &b2.Rotation)
	p.invI1 = dynamicInverseInertia(b1)
	p.invI2 = dynamicInverseInertia(b2)
	return p
}

// dominanceInverseMasses returns a and b's inverse masses adjusted for
// their dominance groups (§4.2(c)): if dominance(a) > dominance(b), b
// is treated as immovable for this pair (and symmetrically); bodies of
// equal dominance are unaffected.
func dominanceInverseMasses(a, b *Body) (invA, invB Scalar) {
	invA, invB = a.inverseMass, b.inverseMass
	switch {
	case a.Dominance > b.Dominance:
		invB = 0
	case b.Dominance > a.Dominance:
		invA = 0
	}
	return invA, invB
}

// prepareContactPositional is preparePositional with each body's
// effective inverse mass and inverse inertia zeroed out according to
// dominanceInverseMasses, so in a contact between bodies of unequal
// dominance only the higher-dominance body is moved; the lower-dominance
// body is held fixed for this pair.
func prepareContactPositional(b1, b2 *Body, r1lc, r2lc lin.V3) positionalPrep {
	p := preparePositional(b1, b2, r1lc, r2lc)
	p.invMass1, p.invMass2 = dominanceInverseMasses(b1, b2)
	if p.invMass1 == 0 {
		p.invI1 = lin.M3{}
	}
	if p.invMass2 == 0 {
		p.invI2 = lin.M3{}
	}
	return p
}

// generalizedInverseMass is w1+w2 from the XPBD paper §3.3: the sum of
// each body's linear inverse mass plus the angular contribution of a
// unit correction along n applied at each body's attachment arm.
func (p *positionalPrep) generalizedInverseMass(n lin.V3) Scalar {
	r1xn := lin.NewV3().Cross(&p.r1wc, &n)
	r2xn := lin.NewV3().Cross(&p.r2wc, &n)
	w1 := p.invMass1 + r1xn.Dot(lin.NewV3().MultMv(&p.invI1, r1xn))
	w2 := p.invMass2 + r2xn.Dot(lin.NewV3().MultMv(&p.invI2, r2xn))
	return w1 + w2
}

// deltaLambda is the XPBD update rule (§4.2(c)):
//
//	Δλ = (-C - α̃·λ) / (w1 + w2 + α̃),  α̃ = compliance / h²
//
// deltaX is the (unnormalized) constraint correction vector; its
// length is C and its direction is the constraint's effective normal.
func (p *positionalPrep) deltaLambda(h, compliance, lambda Scalar, deltaX lin.V3) Scalar {
	c := deltaX.Len()
	if c <= constraintEpsilon {
		return 0
	}
	n := lin.NewV3().Scale(&deltaX, 1/c)
	w := p.generalizedInverseMass(*n)
	if w == 0 {
		slog.Warn("xpbd: positional constraint has zero generalized inverse mass")
		return 0
	}
	atil := compliance / (h * h)
	return (-c - atil*lambda) / (w + atil)
}

// apply moves both bodies (and rotates them) by the impulse implied by
// deltaLambda along deltaX's direction, per eq. (6)-(9) of the XPBD
// paper. Static/Kinematic bodies and locked axes are held fixed.
func (p *positionalPrep) apply(deltaLambda Scalar, deltaX lin.V3) {
	c := deltaX.Len()
	if c <= constraintEpsilon {
		return
	}
	n := lin.NewV3().Scale(&deltaX, 1/c)
	impulse := lin.NewV3().Scale(n, deltaLambda)

	if p.b1.movable() && p.invMass1 != 0 {
		dp := lin.NewV3().Scale(impulse, p.invMass1)
		p.b1.LockedAxes.applyLinear(dp)
		p.b1.Position.Add(&p.b1.Position, dp)

		dq := lin.NewV3().MultMv(&p.invI1, lin.NewV3().Cross(&p.r1wc, impulse))
		p.b1.LockedAxes.applyAngular(dq)
		integrateRotation(&p.b1.Rotation, *dq, 1)
	}
	if p.b2.movable() && p.invMass2 != 0 {
		dp := lin.NewV3().Scale(impulse, -p.invMass2)
		p.b2.LockedAxes.applyLinear(dp)
		p.b2.Position.Add(&p.b2.Position, dp)

		dq := lin.NewV3().MultMv(&p.invI2, lin.NewV3().Cross(&p.r2wc, impulse))
		dq.Scale(dq, -1)
		p.b2.LockedAxes.applyAngular(dq)
		integrateRotation(&p.b2.Rotation, *dq, 1)
	}
}

// angularPrep is the rotation-only counterpart of positionalPrep, used
// by orientation-locking and axis-alignment constraints that have no
// attachment arm (the correction acts identically everywhere on the
// body, so there is no r_wc).
type angularPrep struct {
	b1, b2       *Body
	invI1, invI2 lin.M3
}

func prepareAngular(b1, b2 *Body) angularPrep {
	return angularPrep{b1: b1, b2: b2, invI1: dynamicInverseInertia(b1), invI2: dynamicInverseInertia(b2)}
}

func (p *angularPrep) deltaLambda(h, compliance, lambda Scalar, deltaQ lin.V3) Scalar {
	theta := deltaQ.Len()
	if theta <= constraintEpsilon {
		return 0
	}
	n := lin.NewV3().Scale(&deltaQ, 1/theta)
	w1 := n.Dot(lin.NewV3().MultMv(&p.invI1, n))
	w2 := n.Dot(lin.NewV3().MultMv(&p.invI2, n))
	atil := compliance / (h * h)
	if w1+w2+atil == 0 {
		return 0
	}
	return (-theta - atil*lambda) / (w1 + w2 + atil)
}

func (p *angularPrep) apply(deltaLambda Scalar, deltaQ lin.V3) {
	theta := deltaQ.Len()
	if theta <= constraintEpsilon {
		return
	}
	n := lin.NewV3().Scale(&deltaQ, 1/theta)
	impulse := lin.NewV3().Scale(n, -deltaLambda)

	if p.b1.movable() {
		dq := lin.NewV3().MultMv(&p.invI1, impulse)
		p.b1.LockedAxes.applyAngular(dq)
		integrateRotation(&p.b1.Rotation, *dq, 1)
	}
	if p.b2.movable() {
		dq := lin.NewV3().MultMv(&p.invI2, impulse)
		dq.Scale(dq, -1)
		p.b2.LockedAxes.applyAngular(dq)
		integrateRotation(&p.b2.Rotation, *dq, 1)
	}
}

// integrateRotation advances rot by the angular correction w*scale
// using the quaternion derivative q' = q + scale/2 * (w,0) * q,
// renormalizing afterward.
func integrateRotation(rot *lin.Q, w lin.V3, scale Scalar) {
	aux := lin.NewQ().SetS(w.X, w.Y, w.Z, 0)
	q := lin.NewQ().Mult(rot, aux)
	rot.X += 0.5 * scale * q.X
	rot.Y += 0.5 * scale * q.Y
	rot.Z += 0.5 * scale * q.Z
	rot.W += 0.5 * scale * q.W
	rot.Unit()
}
