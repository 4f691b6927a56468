// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// JointID is a stable, opaque identifier for a joint.
type JointID uuid128

// uuid128 avoids importing google/uuid a second time just for a type
// alias; JointID is backed by the same 16-byte representation as
// BodyID.
type uuid128 = BodyID

// Axis enumerates the six signed local axes a joint can align or
// limit around.
type Axis uint8

const (
	AxisPosX Axis = iota
	AxisNegX
	AxisPosY
	AxisNegY
	AxisPosZ
	AxisNegZ
)

// axisInWorld rotates the unit local axis into world space.
func axisInWorld(rot *lin.Q, axis Axis) lin.V3 {
	var local lin.V3
	switch axis {
	case AxisPosX:
		local = lin.V3{X: 1}
	case AxisNegX:
		local = lin.V3{X: -1}
	case AxisPosY:
		local = lin.V3{Y: 1}
	case AxisNegY:
		local = lin.V3{Y: -1}
	case AxisPosZ:
		local = lin.V3{Z: 1}
	case AxisNegZ:
		local = lin.V3{Z: -1}
	}
	out := lin.NewV3()
	out.MultQ(&local, rot)
	return *out
}

// limitAngle computes the signed angle phi between n1 and n2 about
// rotation axis n, and if phi falls outside [lower, upper] returns the
// corrective delta_q that would rotate n1 back to the nearest limit,
// including the obtuse-angle correction needed when n1 and n2 point
// more than 90 degrees apart.
func limitAngle(n, n1, n2 lin.V3, lower, upper Scalar) (deltaQ lin.V3, active bool) {
	phi := math.Asin(n.Dot(lin.NewV3().Cross(&n1, &n2)))
	if n1.Dot(&n2) < 0 {
		phi = math.Pi - phi
	}
	if phi > math.Pi {
		phi -= 2 * math.Pi
	}
	if phi < -math.Pi {
		phi += 2 * math.Pi
	}
	if phi < lower || phi > upper {
		phi = lin.Clamp(phi, lower, upper)
		rot := lin.NewQ().SetAa(n.X, n.Y, n.Z, phi)
		n1.MultQ(&n1, rot)
		deltaQ.Cross(&n1, &n2)
		return deltaQ, true
	}
	return deltaQ, false
}

// Joint is any of the five joint types of §4.2(c): every joint is a
// small bundle of positional/angular constraints solved once per
// position-solver iteration, with its own persistent Lagrange
// multipliers reset every substep.
type Joint interface {
	ID() JointID
	solve(h Scalar)
	resetLambdas()
	bodyASlot() int
	bodyBSlot() int
}

type jointBase struct {
	id         JointID
	bodyA      *Body
	bodyB      *Body
	slotA      int
	slotB      int
	compliance Scalar
}

func (j *jointBase) ID() JointID   { return j.id }
func (j *jointBase) bodyASlot() int { return j.slotA }
func (j *jointBase) bodyBSlot() int { return j.slotB }

func newJointID() JointID { return JointID(newBodyID()) }

// FixedJoint welds two bodies at a fixed relative offset and
// orientation: a positional constraint holding the anchor points
// together plus a mutual-orientation constraint holding the bodies'
// rotations in lockstep (§4.2(c) Fixed).
type FixedJoint struct {
	jointBase
	r1lc, r2lc lin.V3

	lambdaPos Scalar
	lambdaRot Scalar
}

func NewFixedJoint(a, b *Body, anchorA, anchorB lin.V3, compliance Scalar) *FixedJoint {
	return &FixedJoint{
		jointBase: jointBase{id: newJointID(), bodyA: a, bodyB: b, compliance: compliance},
		r1lc:      anchorA,
		r2lc:      anchorB,
	}
}

func (j *FixedJoint) resetLambdas() { j.lambdaPos, j.lambdaRot = 0, 0 }

func (j *FixedJoint) solve(h Scalar) {
	prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
	p1 := lin.NewV3().Add(&j.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&j.bodyB.Position, &prep.r2wc)
	deltaX := lin.NewV3().Sub(p1, p2)
	dLambda := prep.deltaLambda(h, j.compliance, j.lambdaPos, *deltaX)
	prep.apply(dLambda, *deltaX)
	j.lambdaPos += dLambda

	ap := prepareAngular(j.bodyA, j.bodyB)
	invB := lin.NewQ().Inv(lin.NewQ().Set(&j.bodyB.Rotation))
	aux := lin.NewQ().Mult(invB, &j.bodyA.Rotation)
	deltaQ := lin.V3{X: 2 * aux.X, Y: 2 * aux.Y, Z: 2 * aux.Z}
	dLambdaR := ap.deltaLambda(h, j.compliance, j.lambdaRot, deltaQ)
	ap.apply(dLambdaR, deltaQ)
	j.lambdaRot += dLambdaR
}

// DistanceJoint holds two anchor points a fixed Euclidean distance
// apart while leaving relative rotation free (§4.2(c) Distance).
type DistanceJoint struct {
	jointBase
	r1lc, r2lc lin.V3
	restLength Scalar
	lambda     Scalar
}

func NewDistanceJoint(a, b *Body, anchorA, anchorB lin.V3, restLength, compliance Scalar) *DistanceJoint {
	return &DistanceJoint{
		jointBase:  jointBase{id: newJointID(), bodyA: a, bodyB: b, compliance: compliance},
		r1lc:       anchorA,
		r2lc:       anchorB,
		restLength: restLength,
	}
}

func (j *DistanceJoint) resetLambdas() { j.lambda = 0 }

func (j *DistanceJoint) solve(h Scalar) {
	prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
	p1 := lin.NewV3().Add(&j.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&j.bodyB.Position, &prep.r2wc)
	diff := lin.NewV3().Sub(p1, p2)
	length := diff.Len()
	if length <= constraintEpsilon {
		return
	}
	c := length - j.restLength
	deltaX := lin.NewV3().Scale(diff, c/length)
	dLambda := prep.deltaLambda(h, j.compliance, j.lambda, *deltaX)
	prep.apply(dLambda, *deltaX)
	j.lambda += dLambda
}

// RevoluteJoint (hinge) keeps one local axis of each body aligned and
// their anchor points coincident, optionally limiting the swing angle
// about the hinge axis (§4.2(c) Revolute).
type RevoluteJoint struct {
	jointBase
	r1lc, r2lc     lin.V3
	axisA, axisB   Axis
	lambdaAlign    Scalar
	lambdaPos      Scalar

	limited          bool
	limitAxisA, limitAxisB Axis
	lower, upper     Scalar
	lambdaLimit      Scalar
}

func NewRevoluteJoint(a, b *Body, anchorA, anchorB lin.V3, axisA, axisB Axis, compliance Scalar) *RevoluteJoint {
	return &RevoluteJoint{
		jointBase: jointBase{id: newJointID(), bodyA: a, bodyB: b, compliance: compliance},
		r1lc:      anchorA, r2lc: anchorB, axisA: axisA, axisB: axisB,
	}
}

// SetLimit bounds the hinge swing angle (radians) about limitAxisA/B.
func (j *RevoluteJoint) SetLimit(limitAxisA, limitAxisB Axis, lower, upper Scalar) {
	j.limited = true
	j.limitAxisA, j.limitAxisB = limitAxisA, limitAxisB
	j.lower, j.upper = lower, upper
}

func (j *RevoluteJoint) resetLambdas() { j.lambdaAlign, j.lambdaPos, j.lambdaLimit = 0, 0, 0 }

func (j *RevoluteJoint) solve(h Scalar) {
	ap := prepareAngular(j.bodyA, j.bodyB)
	a1 := axisInWorld(&j.bodyA.Rotation, j.axisA)
	a2 := axisInWorld(&j.bodyB.Rotation, j.axisB)
	deltaQ := *lin.NewV3().Cross(&a1, &a2)
	dAlign := ap.deltaLambda(h, j.compliance, j.lambdaAlign, deltaQ)
	ap.apply(dAlign, deltaQ)
	j.lambdaAlign += dAlign

	prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
	p1 := lin.NewV3().Add(&j.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&j.bodyB.Position, &prep.r2wc)
	deltaX := lin.NewV3().Sub(p1, p2)
	dPos := prep.deltaLambda(h, 0, j.lambdaPos, *deltaX)
	prep.apply(dPos, *deltaX)
	j.lambdaPos += dPos

	if j.limited {
		n1 := axisInWorld(&j.bodyA.Rotation, j.limitAxisA)
		n2 := axisInWorld(&j.bodyB.Rotation, j.limitAxisB)
		n := axisInWorld(&j.bodyA.Rotation, j.axisA)
		if deltaQ, ok := limitAngle(n, n1, n2, j.lower, j.upper); ok {
			ap := prepareAngular(j.bodyA, j.bodyB)
			dLimit := ap.deltaLambda(h, 0, j.lambdaLimit, deltaQ)
			ap.apply(dLimit, deltaQ)
			j.lambdaLimit += dLimit
		}
	}
}

// SphericalJoint (ball-socket) keeps two anchor points coincident
// while limiting swing and twist angles independently (§4.2(c)
// Spherical) — ported from spherical_joint_constraint_solve.
type SphericalJoint struct {
	jointBase
	r1lc, r2lc lin.V3
	lambdaPos  Scalar

	swingAxisA, swingAxisB Axis
	swingLower, swingUpper Scalar
	lambdaSwing            Scalar

	twistAxisA, twistAxisB Axis
	twistLower, twistUpper Scalar
	lambdaTwist            Scalar
}

func NewSphericalJoint(a, b *Body, anchorA, anchorB lin.V3,
	swingAxisA, swingAxisB Axis, swingLower, swingUpper Scalar,
	twistAxisA, twistAxisB Axis, twistLower, twistUpper Scalar) *SphericalJoint {
	return &SphericalJoint{
		jointBase:  jointBase{id: newJointID(), bodyA: a, bodyB: b},
		r1lc:       anchorA, r2lc: anchorB,
		swingAxisA: swingAxisA, swingAxisB: swingAxisB, swingLower: swingLower, swingUpper: swingUpper,
		twistAxisA: twistAxisA, twistAxisB: twistAxisB, twistLower: twistLower, twistUpper: twistUpper,
	}
}

func (j *SphericalJoint) resetLambdas() { j.lambdaPos, j.lambdaSwing, j.lambdaTwist = 0, 0, 0 }

func (j *SphericalJoint) solve(h Scalar) {
	prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
	p1 := lin.NewV3().Add(&j.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&j.bodyB.Position, &prep.r2wc)
	deltaX := lin.NewV3().Sub(p1, p2)
	dPos := prep.deltaLambda(h, 0, j.lambdaPos, *deltaX)
	prep.apply(dPos, *deltaX)
	j.lambdaPos += dPos

	n1 := axisInWorld(&j.bodyA.Rotation, j.swingAxisA)
	n2 := axisInWorld(&j.bodyB.Rotation, j.swingAxisB)
	n := lin.NewV3().Cross(&n1, &n2)
	if nl := n.Len(); nl > constraintEpsilon {
		n.Scale(n, 1/nl)
		if deltaQ, ok := limitAngle(*n, n1, n2, j.swingLower, j.swingUpper); ok {
			ap := prepareAngular(j.bodyA, j.bodyB)
			d := ap.deltaLambda(h, 0, j.lambdaSwing, deltaQ)
			ap.apply(d, deltaQ)
			j.lambdaSwing += d
		}
	}

	a1 := axisInWorld(&j.bodyA.Rotation, j.swingAxisA)
	z1 := axisInWorld(&j.bodyA.Rotation, j.twistAxisA)
	a2 := axisInWorld(&j.bodyB.Rotation, j.swingAxisB)
	z2 := axisInWorld(&j.bodyB.Rotation, j.twistAxisB)
	bisector := lin.NewV3().Add(&a1, &a2)
	if bl := bisector.Len(); bl > constraintEpsilon {
		bisector.Scale(bisector, 1/bl)
		t1 := lin.NewV3().Sub(&z1, lin.NewV3().Scale(bisector, bisector.Dot(&z1)))
		t2 := lin.NewV3().Sub(&z2, lin.NewV3().Scale(bisector, bisector.Dot(&z2)))
		l1, l2 := t1.Len(), t2.Len()
		if l1 > constraintEpsilon && l2 > constraintEpsilon {
			t1.Scale(t1, 1/l1)
			t2.Scale(t2, 1/l2)
			if deltaQ, ok := limitAngle(*bisector, *t1, *t2, j.twistLower, j.twistUpper); ok {
				ap := prepareAngular(j.bodyA, j.bodyB)
				d := ap.deltaLambda(h, 0, j.lambdaTwist, deltaQ)
				ap.apply(d, deltaQ)
				j.lambdaTwist += d
			}
		}
	}
}

// PrismaticJoint keeps two bodies' orientations aligned and restricts
// relative translation to a single axis (optionally limited), the
// translational twin of RevoluteJoint's rotational freedom: an angular
// alignment constraint plus an axis-restricted positional constraint,
// with the optional limit clamping the anchor offset along the slide
// axis to [lower, upper].
type PrismaticJoint struct {
	jointBase
	r1lc, r2lc   lin.V3
	axisA, axisB Axis
	lambdaAlign  Scalar
	lambdaPerp   Scalar

	limited      bool
	lower, upper Scalar
	lambdaLimit  Scalar
}

func NewPrismaticJoint(a, b *Body, anchorA, anchorB lin.V3, axisA, axisB Axis, compliance Scalar) *PrismaticJoint {
	return &PrismaticJoint{
		jointBase: jointBase{id: newJointID(), bodyA: a, bodyB: b, compliance: compliance},
		r1lc:      anchorA, r2lc: anchorB, axisA: axisA, axisB: axisB,
	}
}

func (j *PrismaticJoint) SetLimit(lower, upper Scalar) {
	j.limited = true
	j.lower, j.upper = lower, upper
}

func (j *PrismaticJoint) resetLambdas() { j.lambdaAlign, j.lambdaPerp, j.lambdaLimit = 0, 0, 0 }

func (j *PrismaticJoint) solve(h Scalar) {
	ap := prepareAngular(j.bodyA, j.bodyB)
	a1 := axisInWorld(&j.bodyA.Rotation, j.axisA)
	a2 := axisInWorld(&j.bodyB.Rotation, j.axisB)
	deltaQ := *lin.NewV3().Cross(&a1, &a2)
	dAlign := ap.deltaLambda(h, j.compliance, j.lambdaAlign, deltaQ)
	ap.apply(dAlign, deltaQ)
	j.lambdaAlign += dAlign

	// Positional correction restricted to the plane perpendicular to
	// the slide axis: project the anchor separation onto that plane
	// and treat the projection as the constraint vector.
	axis := axisInWorld(&j.bodyA.Rotation, j.axisA)
	prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
	p1 := lin.NewV3().Add(&j.bodyA.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&j.bodyB.Position, &prep.r2wc)
	sep := lin.NewV3().Sub(p1, p2)
	along := sep.Dot(&axis)
	perp := lin.NewV3().Sub(sep, lin.NewV3().Scale(&axis, along))
	dPerp := prep.deltaLambda(h, 0, j.lambdaPerp, *perp)
	prep.apply(dPerp, *perp)
	j.lambdaPerp += dPerp

	if j.limited {
		clampedAlong := lin.Clamp(along, j.lower, j.upper)
		if !lin.Aeq(clampedAlong, along) {
			excess := along - clampedAlong
			deltaX := lin.NewV3().Scale(&axis, excess)
			prep := preparePositional(j.bodyA, j.bodyB, j.r1lc, j.r2lc)
			dLimit := prep.deltaLambda(h, 0, j.lambdaLimit, *deltaX)
			prep.apply(dLimit, *deltaX)
			j.lambdaLimit += dLimit
		}
	}
}
