// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"github.com/galvanizedlogic/xpbd/math/lin"
)

// gravity is the world's constant downward acceleration, applied to
// every awake Dynamic body scaled by its GravityScale (§4.2(a)).
type gravity = lin.V3

// integrateBody advances one body's position and velocity by one
// substep of length h, per §4.2(a): semi-implicit Euler on the net
// external force/torque and gravity, linear/angular damping applied
// as a per-substep velocity scale, then the quaternion-derivative
// rotation update.
func integrateBody(b *Body, g gravity, h Scalar) {
	b.previousPosition = b.Position
	b.previousRotation = b.Rotation

	if !b.movable() || !b.Active() {
		return
	}

	force, torque := b.netForce()
	force.Add(&force, lin.NewV3().Scale(&g, b.Mass*b.GravityScale))

	b.LinearVelocity.Add(&b.LinearVelocity, lin.NewV3().Scale(&force, h*b.inverseMass))
	b.LinearVelocity.Scale(&b.LinearVelocity, dampingFactor(b.Material.LinearDamping, h))
	b.LockedAxes.applyLinear(&b.LinearVelocity)
	b.Position.Add(&b.Position, lin.NewV3().Scale(&b.LinearVelocity, h))

	invI := dynamicInverseInertia(b)
	I := dynamicInertia(b)
	gyroscopic := lin.NewV3().Cross(&b.AngularVelocity, lin.NewV3().MultMv(&I, &b.AngularVelocity))
	b.AngularVelocity.Add(&b.AngularVelocity,
		lin.NewV3().Scale(lin.NewV3().MultMv(&invI, lin.NewV3().Sub(&torque, gyroscopic)), h))
	b.AngularVelocity.Scale(&b.AngularVelocity, dampingFactor(b.Material.AngularDamping, h))
	b.LockedAxes.applyAngular(&b.AngularVelocity)

	integrateRotation(&b.Rotation, b.AngularVelocity, h)
}

// dynamicInertia is dynamicInverseInertia's un-inverted counterpart,
// needed by the gyroscopic term of the angular velocity update.
func dynamicInertia(b *Body) lin.M3 {
	r := lin.NewM3().SetQ(&b.Rotation)
	rt := lin.NewM3().Transpose(r)
	local := lin.NewM3I().ScaleV(&lin.V3{X: invertOrZero(b.inverseInertiaLocal.X), Y: invertOrZero(b.inverseInertiaLocal.Y), Z: invertOrZero(b.inverseInertiaLocal.Z)})
	out := lin.NewM3().Mult(r, local)
	out.Mult(out, rt)
	return *out
}

// dampingFactor turns a per-second damping coefficient into the
// per-substep velocity multiplier clamp(1-k*h, 0, 1).
func dampingFactor(k, h Scalar) Scalar {
	return lin.Clamp(1-k*h, 0, 1)
}

// applyImpulses consumes a body's pending linear/angular impulse
// accumulators at the start of a Step, before the first substep, and
// clears them — the instantaneous counterpart to the continuous
// per-substep force integration above.
func applyImpulses(b *Body) {
	if !b.movable() {
		b.linearImpulse = lin.V3{}
		b.angularImpulse = lin.V3{}
		return
	}
	b.LinearVelocity.Add(&b.LinearVelocity, lin.NewV3().Scale(&b.linearImpulse, b.inverseMass))
	invI := dynamicInverseInertia(b)
	b.AngularVelocity.Add(&b.AngularVelocity, lin.NewV3().MultMv(&invI, &b.angularImpulse))
	b.linearImpulse = lin.V3{}
	b.angularImpulse = lin.V3{}
}
