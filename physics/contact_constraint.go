// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/galvanizedlogic/xpbd/math/lin"

// contactConstraint is the position-level half of one manifold point:
// a one-sided non-penetration constraint plus the "soft" static
// friction bracketed by μ_s·λ_n (§4.2(c)).
type contactConstraint struct {
	bodyA, bodyB *Body
	r1lc, r2lc   lin.V3
	normal       lin.V3
	staticFriction Scalar

	lambdaN, lambdaT Scalar
}

func newContactConstraint(a, b *Body, point ContactPoint, staticFriction Scalar) *contactConstraint {
	invA := lin.NewQ().Inv(lin.NewQ().Set(&a.Rotation))
	invB := lin.NewQ().Inv(lin.NewQ().Set(&b.Rotation))

	r1wc := lin.NewV3().Sub(&point.PointOnA, &a.Position)
	r2wc := lin.NewV3().Sub(&point.PointOnB, &b.Position)

	cc := &contactConstraint{bodyA: a, bodyB: b, normal: point.Normal, staticFriction: staticFriction}
	cc.r1lc.MultQ(r1wc, invA)
	cc.r2lc.MultQ(r2wc, invB)
	return cc
}

// solve runs one position-level iteration: push the penetrating points
// apart along the contact normal, then (if the accumulated tangential
// lambda would exceed μ_s·λ_n) slide the attachment points back to
// their pre-substep tangential offset, which is how XPBD folds static
// friction into the position solve instead of the velocity solve.
func (cc *contactConstraint) solve(h Scalar) {
	prep := prepareContactPositional(cc.bodyA, cc.bodyB, cc.r1lc, cc.r2lc)

	p1 := lin.NewV3().Add(&cc.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&cc.bodyB.Position, &prep.r2wc)
	d := lin.NewV3().Sub(p1, p2).Dot(&cc.normal)
	if d <= 0 {
		return
	}

	deltaX := lin.NewV3().Scale(&cc.normal, d)
	dLambdaN := prep.deltaLambda(h, 0, cc.lambdaN, *deltaX)
	prep.apply(dLambdaN, *deltaX)
	cc.lambdaN += dLambdaN

	// Recompute the attachment arms/points after the normal correction
	// moved both bodies, before the friction branch below reads them.
	prep = prepareContactPositional(cc.bodyA, cc.bodyB, cc.r1lc, cc.r2lc)
	p1.Add(&cc.bodyA.Position, &prep.r1wc)
	p2.Add(&cc.bodyB.Position, &prep.r2wc)

	dLambdaT := prep.deltaLambda(h, 0, cc.lambdaT, *deltaX)
	lambdaN := cc.lambdaN
	lambdaT := cc.lambdaT + dLambdaT
	if lambdaT <= cc.staticFriction*lambdaN {
		return
	}

	p1til := lin.NewV3().Add(&cc.bodyA.previousPosition, lin.NewV3().MultQ(&cc.r1lc, &cc.bodyA.previousRotation))
	p2til := lin.NewV3().Add(&cc.bodyB.previousPosition, lin.NewV3().MultQ(&cc.r2lc, &cc.bodyB.previousRotation))
	deltaP := lin.NewV3().Sub(lin.NewV3().Sub(p1, p1til), lin.NewV3().Sub(p2, p2til))
	along := deltaP.Dot(&cc.normal)
	deltaPt := lin.NewV3().Sub(deltaP, lin.NewV3().Scale(&cc.normal, along))

	prep.apply(dLambdaT, *deltaPt)
	cc.lambdaT += dLambdaT
}
