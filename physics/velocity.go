// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// recoverVelocity derives a body's velocity for this substep from the
// position/rotation delta the position solver produced (§4.2(d)).
// preLinear/preAngular report the body's velocity BEFORE this call so
// the velocity-level solver below can compare against it for
// restitution.
func recoverVelocity(b *Body, h Scalar) (preLinear, preAngular lin.V3) {
	preLinear, preAngular = b.LinearVelocity, b.AngularVelocity
	if !b.movable() || !b.Active() {
		return preLinear, preAngular
	}

	b.LinearVelocity.Scale(lin.NewV3().Sub(&b.Position, &b.previousPosition), 1/h)

	inv := lin.NewQ().Inv(lin.NewQ().Set(&b.previousRotation))
	deltaQ := lin.NewQ().Mult(inv, &b.Rotation)
	sign := Scalar(2)
	if deltaQ.W < 0 {
		sign = -2
	}
	b.AngularVelocity.Scale(lin.NewV3().SetS(deltaQ.X, deltaQ.Y, deltaQ.Z), sign/h)

	return preLinear, preAngular
}

// solveVelocity applies the velocity-level restitution + dynamic
// friction pass (§4.2(e)) to one contact point, given the bodies'
// velocities from just before recoverVelocity ran this substep.
func solveVelocity(cc *contactConstraint, preA, preAngA, preB, preAngB lin.V3, h Scalar) {
	b1, b2 := cc.bodyA, cc.bodyB
	if !b1.movable() && !b2.movable() {
		return
	}

	prep := prepareContactPositional(b1, b2, cc.r1lc, cc.r2lc)
	n := cc.normal

	v := lin.NewV3().Sub(
		lin.NewV3().Add(&b1.LinearVelocity, lin.NewV3().Cross(&b1.AngularVelocity, &prep.r1wc)),
		lin.NewV3().Add(&b2.LinearVelocity, lin.NewV3().Cross(&b2.AngularVelocity, &prep.r2wc)))
	vn := n.Dot(v)
	vt := lin.NewV3().Sub(v, lin.NewV3().Scale(&n, vn))

	deltaV := lin.NewV3()

	_, dynamicFriction := combineFriction(b1.Material, b2.Material)
	fn := cc.lambdaN / h
	fact := math.Min(dynamicFriction*math.Abs(fn), vt.Len())
	if vtLen := vt.Len(); vtLen > constraintEpsilon {
		deltaV.Add(deltaV, lin.NewV3().Scale(lin.NewV3().Scale(vt, 1/vtLen), -fact))
	}

	vTil := lin.NewV3().Sub(
		lin.NewV3().Add(&preA, lin.NewV3().Cross(&preAngA, &prep.r1wc)),
		lin.NewV3().Add(&preB, lin.NewV3().Cross(&preAngB, &prep.r2wc)))
	vnTil := n.Dot(vTil)
	e := combineRestitution(b1.Material, b2.Material)
	fact = -vn + math.Min(-e*vnTil, 0)
	deltaV.Add(deltaV, lin.NewV3().Scale(&n, fact))

	w := prep.generalizedInverseMass(n)
	if w == 0 {
		return
	}
	p := lin.NewV3().Scale(deltaV, 1/w)

	if b1.movable() && prep.invMass1 != 0 {
		dv := lin.NewV3().Scale(p, prep.invMass1)
		b1.LockedAxes.applyLinear(dv)
		b1.LinearVelocity.Add(&b1.LinearVelocity, dv)
		dw := lin.NewV3().MultMv(&prep.invI1, lin.NewV3().Cross(&prep.r1wc, p))
		b1.LockedAxes.applyAngular(dw)
		b1.AngularVelocity.Add(&b1.AngularVelocity, dw)
	}
	if b2.movable() && prep.invMass2 != 0 {
		dv := lin.NewV3().Scale(p, -prep.invMass2)
		b2.LockedAxes.applyLinear(dv)
		b2.LinearVelocity.Add(&b2.LinearVelocity, dv)
		dw := lin.NewV3().Neg(lin.NewV3().MultMv(&prep.invI2, lin.NewV3().Cross(&prep.r2wc, p)))
		b2.LockedAxes.applyAngular(dw)
		b2.AngularVelocity.Add(&b2.AngularVelocity, dw)
	}
}
