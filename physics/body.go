// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/galvanizedlogic/xpbd/math/lin"
	"github.com/google/uuid"
)

// BodyID is a stable, opaque identifier for a body. It survives across
// saves/loads and across independent Worlds, unlike the dense internal
// slot a World uses to index its body store.
type BodyID uuid.UUID

// NilBodyID is the zero value, never assigned to a live body.
var NilBodyID BodyID

// String implements fmt.Stringer.
func (id BodyID) String() string { return uuid.UUID(id).String() }

func newBodyID() BodyID { return BodyID(uuid.New()) }

// BodyKind is the tagged variant of §3: Dynamic responds to forces and
// all constraints, Kinematic has externally driven pose/velocity and
// imparts momentum without being moved by constraints, Static never
// moves and is treated as infinite mass/inertia.
type BodyKind uint8

const (
	Dynamic BodyKind = iota
	Kinematic
	Static
)

// allLayers is the default Memberships/Filters value for a freshly
// constructed body: collide with everything until a host opts into
// narrower collision layers, rather than the zero value's unintended
// "collides with nothing".
const allLayers uint32 = ^uint32(0)

func (k BodyKind) String() string {
	switch k {
	case Dynamic:
		return "dynamic"
	case Kinematic:
		return "kinematic"
	case Static:
		return "static"
	default:
		return "unknown"
	}
}

// AxisMask locks a subset of a body's translation/rotation axes. A
// locked translation axis holds the corresponding velocity component
// and position delta at zero at every substep boundary (§3 invariant).
type AxisMask uint8

const (
	LockTransX AxisMask = 1 << iota
	LockTransY
	LockTransZ
	LockRotX
	LockRotY
	LockRotZ
)

// Has reports whether every bit in mask is set in m.
func (m AxisMask) Has(mask AxisMask) bool { return m&mask == mask }

// applyLinear zeroes the locked components of a linear velocity/delta.
func (m AxisMask) applyLinear(v *lin.V3) {
	if m.Has(LockTransX) {
		v.X = 0
	}
	if m.Has(LockTransY) {
		v.Y = 0
	}
	if m.Has(LockTransZ) {
		v.Z = 0
	}
}

// applyAngular zeroes the locked components of an angular velocity.
func (m AxisMask) applyAngular(v *lin.V3) {
	if m.Has(LockRotX) {
		v.X = 0
	}
	if m.Has(LockRotY) {
		v.Y = 0
	}
	if m.Has(LockRotZ) {
		v.Z = 0
	}
}

// Material holds the physical response coefficients combined pairwise
// during the velocity solver (§4.2(e)): restitution by max, friction
// by geometric mean.
type Material struct {
	Restitution     Scalar
	StaticFriction  Scalar
	DynamicFriction Scalar
	LinearDamping   Scalar
	AngularDamping  Scalar
}

// DefaultMaterial is the Material NewBody gives every new body.
func DefaultMaterial() Material {
	return Material{
		Restitution:     0,
		StaticFriction:  0.5,
		DynamicFriction: 0.5,
	}
}

func combineRestitution(a, b Material) Scalar {
	if a.Restitution > b.Restitution {
		return a.Restitution
	}
	return b.Restitution
}

func combineFriction(a, b Material) (static, dynamic Scalar) {
	return sqrtClamped(a.StaticFriction * b.StaticFriction), sqrtClamped(a.DynamicFriction * b.DynamicFriction)
}

// externalForce is one accumulated force/torque applied at a world
// point, cleared at the end of every outer frame (§3 "External
// accumulators").
type externalForce struct {
	point   lin.V3
	newtons lin.V3
}

// Body is a single rigid body or particle in the simulation (§3).
//
// Exported fields are written by the host between steps (§6.1) and
// read back after Step returns; fields the solver owns internally are
// unexported. A Body is always addressed through its BodyID from host
// code; the engine indexes bodies by dense slot internally.
type Body struct {
	ID   BodyID
	Kind BodyKind

	Position Vec
	Rotation Rot

	LinearVelocity  Vec
	AngularVelocity Vec

	Mass         Scalar // ignored for Static/Kinematic, whose inverse mass is always 0.
	InertiaLocal Vec    // diagonal local inertia tensor, inverted into inverseInertiaLocal; ignored for Static/Kinematic.
	CenterOfMass Vec

	Material Material

	LockedAxes   AxisMask
	Dominance    int
	GravityScale Scalar

	IsSensor bool

	Memberships uint32 // collision layer bitmask this body belongs to.
	Filters     uint32 // collision layer bitmask this body interacts with.

	Collider Collider // optional; nil bodies take part in integration/sleeping only.

	// previousPosition/previousRotation are the substep-start snapshot
	// read back during velocity recovery (§4.2(d)).
	previousPosition lin.V3
	previousRotation lin.Q

	inverseMass         Scalar
	inverseInertiaLocal lin.V3

	forces  []externalForce
	torques []externalForce // torques reuse externalForce.newtons as the torque vector; point is unused.

	linearImpulse  lin.V3
	angularImpulse lin.V3

	active             bool
	timeBelowThreshold Scalar

	slot int // dense index into World.bodies, valid only within one World.
}

// NewBody returns a Body of the given kind, at the origin, with unit
// rotation and the given mass (ignored for Kinematic/Static kinds,
// which always carry zero inverse mass/inertia per §3).
func NewBody(kind BodyKind, mass Scalar) *Body {
	b := &Body{
		ID:           newBodyID(),
		Kind:         kind,
		Rotation:     lin.Q{X: 0, Y: 0, Z: 0, W: 1},
		Mass:         mass,
		InertiaLocal: lin.V3{X: 1, Y: 1, Z: 1},
		Material:     DefaultMaterial(),
		GravityScale: 1,
		active:       true,
		Memberships:  allLayers,
		Filters:      allLayers,
	}
	b.previousRotation = b.Rotation
	b.recomputeMassProperties()
	return b
}

// recomputeMassProperties derives inverse mass/inertia from Mass and
// InertiaLocal, enforcing the §3 invariant that Static/Kinematic
// bodies carry zero inverse mass and inverse inertia.
func (b *Body) recomputeMassProperties() {
	if b.Kind != Dynamic || b.Mass <= 0 || !isFinite3(b.InertiaLocal) || !isFinite(b.Mass) {
		b.inverseMass = 0
		b.inverseInertiaLocal = lin.V3{}
		return
	}
	b.inverseMass = 1 / b.Mass
	b.inverseInertiaLocal = lin.V3{
		X: invertOrZero(b.InertiaLocal.X),
		Y: invertOrZero(b.InertiaLocal.Y),
		Z: invertOrZero(b.InertiaLocal.Z),
	}
}

func invertOrZero(x Scalar) Scalar {
	if lin.AeqZ(x) {
		return 0
	}
	return 1 / x
}

// movable reports whether the solver is allowed to change this
// body's position/rotation.
func (b *Body) movable() bool { return b.Kind == Dynamic && b.inverseMass != 0 }

// AddForce accumulates a force (and, via its offset from the center of
// mass, a torque) acting on this body until the next frame boundary.
func (b *Body) AddForce(worldPoint, newtons lin.V3) {
	b.forces = append(b.forces, externalForce{point: worldPoint, newtons: newtons})
	b.Wake()
}

// AddTorque accumulates a pure torque (no associated linear force).
func (b *Body) AddTorque(newtonMeters lin.V3) {
	b.torques = append(b.torques, externalForce{newtons: newtonMeters})
	b.Wake()
}

// ApplyLinearImpulse adds an instantaneous linear impulse, consumed at
// the start of the next Step and then cleared.
func (b *Body) ApplyLinearImpulse(impulse lin.V3) {
	b.linearImpulse.Add(&b.linearImpulse, &impulse)
	b.Wake()
}

// ApplyAngularImpulse adds an instantaneous angular impulse.
func (b *Body) ApplyAngularImpulse(impulse lin.V3) {
	b.angularImpulse.Add(&b.angularImpulse, &impulse)
	b.Wake()
}

// clearAccumulators drops per-frame force/torque/impulse accumulators,
// per §4.1 step 2 / §3 "External accumulators (reset at frame end)".
func (b *Body) clearAccumulators() {
	b.forces = b.forces[:0]
	b.torques = b.torques[:0]
	b.linearImpulse = lin.V3{}
	b.angularImpulse = lin.V3{}
}

// netForce sums the accumulated point forces into a single force
// vector and its induced torque about the center of mass.
func (b *Body) netForce() (force, torque lin.V3) {
	for _, f := range b.forces {
		force.Add(&force, &f.newtons)
		d := lin.NewV3().Sub(&f.point, &b.Position)
		d.Sub(d, &b.CenterOfMass)
		torque.Add(&torque, lin.NewV3().Cross(d, &f.newtons))
	}
	for _, t := range b.torques {
		torque.Add(&torque, &t.newtons)
	}
	return force, torque
}

// Active reports whether the body currently participates in
// integration and collision response (always true for non-Dynamic
// bodies, since they have nothing to sleep).
func (b *Body) Active() bool { return b.active || b.Kind != Dynamic }

// Wake transitions a sleeping body back to active and resets its
// sleep-candidacy timer. Per §4.5 this is how external writes
// (position, force, impulse) are required to behave.
func (b *Body) Wake() {
	b.active = true
	b.timeBelowThreshold = 0
}

// SetPosition writes the body's world position directly, as a host
// does per §6.1, and wakes the body.
func (b *Body) SetPosition(p lin.V3) {
	b.Position = p
	b.Wake()
}

// SetRotation writes the body's world rotation directly and wakes it.
func (b *Body) SetRotation(r lin.Q) {
	b.Rotation = r
	b.Wake()
}

func isFinite(x Scalar) bool { return x == x && x < lin.Large && x > -lin.Large }

func isFinite3(v lin.V3) bool { return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z) }

func sqrtClamped(x Scalar) Scalar {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}
