// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// ColliderID is a stable, opaque identifier for a registered collider
// shape, independent of the dense body slot it happens to be attached
// to.
type ColliderID uint32

// ContactPoint is one point of a contact manifold, in world space,
// along with the interpenetration depth along Normal (§4.2(b)).
// Normal points from shape A toward shape B.
type ContactPoint struct {
	PointOnA lin.V3
	PointOnB lin.V3
	Normal   lin.V3
	Depth    Scalar
}

// ContactManifold is up to four contact points between two colliders,
// as produced by a narrow-phase query (§4.2(b)). A host Collider may
// report several points; the reference Sphere and Box colliders report
// at most one for every pair, box-box included.
type ContactManifold struct {
	Points [4]ContactPoint
	Count  int
}

func (m *ContactManifold) add(p ContactPoint) {
	if m.Count >= len(m.Points) {
		return
	}
	m.Points[m.Count] = p
	m.Count++
}

// AABB is an axis-aligned bounding box, used by broad phase (§4.4) and
// by a collider's own Aabb/SweptAABB queries (§6.3).
type AABB struct {
	Min, Max lin.V3
}

// Overlaps reports whether a and b intersect, touching along a single
// point/edge/face is not considered an overlap.
func (a AABB) Overlaps(b AABB) bool {
	return a.Max.X > b.Min.X && a.Min.X < b.Max.X &&
		a.Max.Y > b.Min.Y && a.Min.Y < b.Max.Y &&
		a.Max.Z > b.Min.Z && a.Min.Z < b.Max.Z
}

func (a AABB) expand(margin Scalar) AABB {
	return AABB{
		Min: lin.V3{X: a.Min.X - margin, Y: a.Min.Y - margin, Z: a.Min.Z - margin},
		Max: lin.V3{X: a.Max.X + margin, Y: a.Max.Y + margin, Z: a.Max.Z + margin},
	}
}

func (a AABB) union(b AABB) AABB {
	return AABB{
		Min: lin.V3{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: lin.V3{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

func (a AABB) center() lin.V3 {
	return lin.V3{X: (a.Min.X + a.Max.X) / 2, Y: (a.Min.Y + a.Max.Y) / 2, Z: (a.Min.Z + a.Max.Z) / 2}
}

// RayHit is the result of a successful RayCast (§6.3).
type RayHit struct {
	Distance Scalar
	Point    lin.V3
	Normal   lin.V3
}

// ShapeHit is the result of a successful ShapeCast: sweeping one
// collider through another along a direction and reporting the first
// time of impact.
type ShapeHit struct {
	TOI    Scalar
	Point  lin.V3
	Normal Scalar
}

// Projection is the nearest point on a collider's surface to an
// arbitrary world point, per PointProject (§6.3).
type Projection struct {
	Point  lin.V3
	Inside bool
}

// Collider is the narrow-phase dispatcher §1 and §6.3 describe as an
// opaque, externally supplied dependency: the engine never inspects
// shape internals, only calls through this interface. Sphere and Box
// below are a reference implementation so the package is independently
// testable; a host is free to supply its own Collider for meshes,
// capsules, heightfields, and so on.
type Collider interface {
	// Aabb returns the collider's axis-aligned bounding box for a body
	// at the given position/rotation.
	Aabb(pos lin.V3, rot lin.Q) AABB

	// SweptAabb returns the union of the AABB at the start and end of
	// a substep, used by broad phase to avoid tunneling to the extent
	// a discrete pass can (§4.4).
	SweptAabb(posStart, posEnd lin.V3, rot lin.Q) AABB

	// MassProperties returns the volume and the local-space diagonal
	// inertia tensor for unit density; callers scale by density/mass.
	MassProperties() (volume Scalar, inertia lin.V3)

	// IsConvex reports whether this shape is convex; non-convex shapes
	// may only appear against convex shapes in this reference
	// implementation (§1 scope).
	IsConvex() bool

	// Sensor reports whether this collider produces contact events
	// without contributing contact constraints (§4.2(b), [Sensors]).
	Sensor() bool

	// ContactManifold computes the contact points between this
	// collider (at posA/rotA) and other (at posB/rotB). predictionDistance
	// widens the query into a speculative band: pairs separated by up to
	// predictionDistance still report a point, with a positive Depth, so
	// the solver can see a fast-closing contact before actual
	// interpenetration occurs (§4.2(b)). An empty manifold (Count == 0)
	// means no contact within that band.
	ContactManifold(posA lin.V3, rotA lin.Q, other Collider, posB lin.V3, rotB lin.Q, predictionDistance Scalar) ContactManifold

	RayCast(origin, dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q) (RayHit, bool)
	PointProject(point lin.V3, pos lin.V3, rot lin.Q) Projection

	// ShapeCast sweeps this collider from pos along dir up to maxDistance
	// and reports the first time of impact against other (§6.3); not
	// part of the stepping pipeline, used only for host spatial queries.
	ShapeCast(dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) (ShapeHit, bool)

	// Intersects is a cheap boolean overlap test, equivalent to
	// ContactManifold(...).Count > 0 but without computing manifold
	// geometry.
	Intersects(pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) bool
}

// Sphere is a reference Collider centered at the body origin.
type Sphere struct {
	Radius  Scalar
	IsSensorShape bool
}

func NewSphere(radius Scalar) *Sphere { return &Sphere{Radius: math.Abs(radius)} }

func (s *Sphere) Aabb(pos lin.V3, _ lin.Q) AABB {
	r := s.Radius
	return AABB{
		Min: lin.V3{X: pos.X - r, Y: pos.Y - r, Z: pos.Z - r},
		Max: lin.V3{X: pos.X + r, Y: pos.Y + r, Z: pos.Z + r},
	}
}

func (s *Sphere) SweptAabb(posStart, posEnd lin.V3, rot lin.Q) AABB {
	return s.Aabb(posStart, rot).union(s.Aabb(posEnd, rot))
}

func (s *Sphere) MassProperties() (Scalar, lin.V3) {
	vol := 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius
	i := 0.4 * s.Radius * s.Radius
	return vol, lin.V3{X: i, Y: i, Z: i}
}

func (s *Sphere) IsConvex() bool { return true }
func (s *Sphere) Sensor() bool   { return s.IsSensorShape }

func (s *Sphere) ContactManifold(posA lin.V3, rotA lin.Q, other Collider, posB lin.V3, rotB lin.Q, predictionDistance Scalar) ContactManifold {
	switch ob := other.(type) {
	case *Sphere:
		return sphereSphereManifold(posA, s.Radius, posB, ob.Radius, predictionDistance)
	case *Box:
		m := boxSphereManifold(posB, rotB, ob, posA, s.Radius, predictionDistance)
		return flipManifold(m)
	}
	return ContactManifold{}
}

func (s *Sphere) RayCast(origin, dir lin.V3, maxDistance Scalar, pos lin.V3, _ lin.Q) (RayHit, bool) {
	oc := lin.NewV3().Sub(&origin, &pos)
	b := oc.Dot(&dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return RayHit{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxDistance {
		return RayHit{}, false
	}
	point := lin.NewV3().Scale(&dir, t)
	point.Add(point, &origin)
	normal := lin.NewV3().Sub(point, &pos)
	normal.Unit()
	return RayHit{Distance: t, Point: *point, Normal: *normal}, true
}

func (s *Sphere) PointProject(point lin.V3, pos lin.V3, _ lin.Q) Projection {
	d := lin.NewV3().Sub(&point, &pos)
	dist := d.Len()
	if lin.AeqZ(dist) {
		return Projection{Point: lin.V3{X: pos.X + s.Radius, Y: pos.Y, Z: pos.Z}, Inside: true}
	}
	d.Scale(d, s.Radius/dist)
	d.Add(d, &pos)
	return Projection{Point: *d, Inside: dist < s.Radius}
}

func (s *Sphere) ShapeCast(dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) (ShapeHit, bool) {
	return shapeCastMarch(s, dir, maxDistance, pos, rot, other, posB, rotB)
}

func (s *Sphere) Intersects(pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) bool {
	return s.ContactManifold(pos, rot, other, posB, rotB, 0).Count > 0
}

// Box is a reference Collider: an axis-aligned-in-local-space box of
// half-extents Hx/Hy/Hz, oriented by the body's rotation.
type Box struct {
	Hx, Hy, Hz    Scalar
	IsSensorShape bool
}

func NewBox(hx, hy, hz Scalar) *Box {
	return &Box{Hx: math.Abs(hx), Hy: math.Abs(hy), Hz: math.Abs(hz)}
}

func (b *Box) Aabb(pos lin.V3, rot lin.Q) AABB {
	xx, xy, xz := lin.MultSQ(1, 0, 0, &rot)
	yx, yy, yz := lin.MultSQ(0, 1, 0, &rot)
	zx, zy, zz := lin.MultSQ(0, 0, 1, &rot)
	xx, xy, xz = math.Abs(xx), math.Abs(xy), math.Abs(xz)
	yx, yy, yz = math.Abs(yx), math.Abs(yy), math.Abs(yz)
	zx, zy, zz = math.Abs(zx), math.Abs(zy), math.Abs(zz)

	ex := b.Hx*xx + b.Hy*xy + b.Hz*xz
	ey := b.Hx*yx + b.Hy*yy + b.Hz*yz
	ez := b.Hx*zx + b.Hy*zy + b.Hz*zz
	return AABB{
		Min: lin.V3{X: pos.X - ex, Y: pos.Y - ey, Z: pos.Z - ez},
		Max: lin.V3{X: pos.X + ex, Y: pos.Y + ey, Z: pos.Z + ez},
	}
}

func (b *Box) SweptAabb(posStart, posEnd lin.V3, rot lin.Q) AABB {
	return b.Aabb(posStart, rot).union(b.Aabb(posEnd, rot))
}

func (b *Box) MassProperties() (Scalar, lin.V3) {
	vol := b.Hx * 2 * b.Hy * 2 * b.Hz * 2
	lx2, ly2, lz2 := 4*b.Hx*b.Hx, 4*b.Hy*b.Hy, 4*b.Hz*b.Hz
	return vol, lin.V3{X: (ly2 + lz2) / 12, Y: (lx2 + lz2) / 12, Z: (lx2 + ly2) / 12}
}

func (b *Box) IsConvex() bool { return true }
func (b *Box) Sensor() bool   { return b.IsSensorShape }

func (b *Box) ContactManifold(posA lin.V3, rotA lin.Q, other Collider, posB lin.V3, rotB lin.Q, predictionDistance Scalar) ContactManifold {
	switch ob := other.(type) {
	case *Sphere:
		return boxSphereManifold(posA, rotA, b, posB, ob.Radius, predictionDistance)
	case *Box:
		return boxBoxManifold(posA, rotA, b, posB, rotB, ob, predictionDistance)
	}
	return ContactManifold{}
}

func (b *Box) RayCast(origin, dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q) (RayHit, bool) {
	// Ray casting against boxes uses a conservative bounding sphere of
	// radius max(Hx, Hy, Hz)·√3 for every orientation, axis-aligned
	// included, so the reported distance, point and normal are those of
	// that sphere, not of the box faces.
	r := math.Max(b.Hx, math.Max(b.Hy, b.Hz)) * math.Sqrt(3)
	sph := Sphere{Radius: r}
	return sph.RayCast(origin, dir, maxDistance, pos, rot)
}

func (b *Box) PointProject(point lin.V3, pos lin.V3, rot lin.Q) Projection {
	local := lin.NewV3().Sub(&point, &pos)
	inv := lin.NewQ().Inv(&rot)
	local = local.MultQ(local, inv)
	inside := math.Abs(local.X) <= b.Hx && math.Abs(local.Y) <= b.Hy && math.Abs(local.Z) <= b.Hz
	clamped := lin.V3{
		X: lin.Clamp(local.X, -b.Hx, b.Hx),
		Y: lin.Clamp(local.Y, -b.Hy, b.Hy),
		Z: lin.Clamp(local.Z, -b.Hz, b.Hz),
	}
	world := clamped.MultQ(&clamped, &rot)
	world.Add(world, &pos)
	return Projection{Point: *world, Inside: inside}
}

func (b *Box) ShapeCast(dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) (ShapeHit, bool) {
	return shapeCastMarch(b, dir, maxDistance, pos, rot, other, posB, rotB)
}

func (b *Box) Intersects(pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) bool {
	return b.ContactManifold(pos, rot, other, posB, rotB, 0).Count > 0
}

// shapeCastMarch is a conservative ShapeCast shared by Sphere and Box:
// it marches the moving shape along dir in fixed steps and reports the
// first sample at which Intersects becomes true. §6.3 only requires
// ShapeCast for host spatial queries outside the stepping pipeline, so
// this reference implementation favors simplicity over the swept-GJK
// precision a production collider library would use.
func shapeCastMarch(shape Collider, dir lin.V3, maxDistance Scalar, pos lin.V3, rot lin.Q, other Collider, posB lin.V3, rotB lin.Q) (ShapeHit, bool) {
	if dir.LenSqr() < lin.Epsilon {
		return ShapeHit{}, false
	}
	unit := dir
	unit.Unit()
	const steps = 64
	step := maxDistance / steps
	for i := 0; i <= steps; i++ {
		t := Scalar(i) * step
		sample := lin.NewV3().Scale(&unit, t)
		sample.Add(sample, &pos)
		if shape.Intersects(*sample, rot, other, posB, rotB) {
			return ShapeHit{TOI: t, Point: *sample}, true
		}
	}
	return ShapeHit{}, false
}

func sphereSphereManifold(posA lin.V3, ra Scalar, posB lin.V3, rb Scalar, predictionDistance Scalar) ContactManifold {
	d := lin.NewV3().Sub(&posB, &posA)
	dist := d.Len()
	if dist > ra+rb+predictionDistance {
		return ContactManifold{}
	}
	normal := lin.V3{X: 1, Y: 0, Z: 0}
	if dist > lin.Epsilon {
		normal = *d.Scale(d, 1/dist)
	}
	onA := lin.NewV3().Scale(&normal, ra)
	onA.Add(onA, &posA)
	onB := lin.NewV3().Scale(&normal, -rb)
	onB.Add(onB, &posB)
	var m ContactManifold
	m.add(ContactPoint{PointOnA: *onA, PointOnB: *onB, Normal: normal, Depth: dist - (ra + rb)})
	return m
}

// boxSphereManifold handles an arbitrarily rotated box against a
// sphere by testing the sphere center in the box's local frame, a
// closed-form clamp-to-box-then-measure-distance test.
func boxSphereManifold(posBox lin.V3, rotBox lin.Q, box *Box, posSphere lin.V3, radius Scalar, predictionDistance Scalar) ContactManifold {
	inv := lin.NewQ().Inv(&rotBox)
	local := lin.NewV3().Sub(&posSphere, &posBox)
	local = local.MultQ(local, inv)

	clamped := lin.V3{
		X: lin.Clamp(local.X, -box.Hx, box.Hx),
		Y: lin.Clamp(local.Y, -box.Hy, box.Hy),
		Z: lin.Clamp(local.Z, -box.Hz, box.Hz),
	}
	diff := lin.NewV3().Sub(local, &clamped)
	dist := diff.Len()
	if dist > radius+predictionDistance {
		return ContactManifold{}
	}

	var worldNormal lin.V3
	if dist > lin.Epsilon {
		n := diff.Scale(diff, 1/dist)
		worldNormal = *n.MultQ(n, &rotBox)
	} else {
		worldNormal = lin.V3{X: 0, Y: 1, Z: 0}
	}
	onBoxWorld := clamped.MultQ(&clamped, &rotBox)
	onBoxWorld.Add(onBoxWorld, &posBox)
	onSphereWorld := lin.NewV3().Scale(&worldNormal, -radius)
	onSphereWorld.Add(onSphereWorld, &posSphere)

	var m ContactManifold
	m.add(ContactPoint{PointOnA: *onBoxWorld, PointOnB: *onSphereWorld, Normal: worldNormal, Depth: dist - radius})
	return m
}

// boxBoxManifold uses the separating-axis test over the 15 candidate
// axes (each box's 3 face normals plus the 9 edge-edge cross products)
// and reports the single deepest contact point, a deliberately
// conservative reference implementation: §6.3 treats full multi-point
// box-box clipping as a host concern, not something this package must
// reproduce from scratch.
func boxBoxManifold(posA lin.V3, rotA lin.Q, a *Box, posB lin.V3, rotB lin.Q, b *Box, predictionDistance Scalar) ContactManifold {
	axesA := boxAxes(rotA)
	axesB := boxAxes(rotB)
	halfA := lin.V3{X: a.Hx, Y: a.Hy, Z: a.Hz}
	halfB := lin.V3{X: b.Hx, Y: b.Hy, Z: b.Hz}

	d := lin.NewV3().Sub(&posB, &posA)

	best := math.Inf(1)
	var bestAxis lin.V3
	test := func(axis lin.V3) bool {
		if axis.LenSqr() < lin.Epsilon {
			return true
		}
		axis.Unit()
		ra := projectedRadius(halfA, axesA, axis)
		rb := projectedRadius(halfB, axesB, axis)
		dist := math.Abs(d.Dot(&axis))
		overlap := ra + rb - dist
		if overlap < -predictionDistance {
			return false
		}
		if overlap < best {
			best = overlap
			if d.Dot(&axis) < 0 {
				axis.Scale(&axis, -1)
			}
			bestAxis = axis
		}
		return true
	}

	for _, ax := range axesA {
		if !test(ax) {
			return ContactManifold{}
		}
	}
	for _, ax := range axesB {
		if !test(ax) {
			return ContactManifold{}
		}
	}
	for _, ax := range axesA {
		for _, bx := range axesB {
			cross := *lin.NewV3().Cross(&ax, &bx)
			if !test(cross) {
				return ContactManifold{}
			}
		}
	}

	onA := lin.NewV3().Scale(&bestAxis, projectedRadius(halfA, axesA, bestAxis))
	onA.Add(onA, &posA)
	onB := lin.NewV3().Scale(&bestAxis, -projectedRadius(halfB, axesB, bestAxis))
	onB.Add(onB, &posB)

	var m ContactManifold
	m.add(ContactPoint{PointOnA: *onA, PointOnB: *onB, Normal: bestAxis, Depth: -best})
	return m
}

func boxAxes(rot lin.Q) [3]lin.V3 {
	xx, xy, xz := lin.MultSQ(1, 0, 0, &rot)
	yx, yy, yz := lin.MultSQ(0, 1, 0, &rot)
	zx, zy, zz := lin.MultSQ(0, 0, 1, &rot)
	return [3]lin.V3{{X: xx, Y: xy, Z: xz}, {X: yx, Y: yy, Z: yz}, {X: zx, Y: zy, Z: zz}}
}

func projectedRadius(half lin.V3, axes [3]lin.V3, dir lin.V3) Scalar {
	return half.X*math.Abs(axes[0].Dot(&dir)) + half.Y*math.Abs(axes[1].Dot(&dir)) + half.Z*math.Abs(axes[2].Dot(&dir))
}

func flipManifold(m ContactManifold) ContactManifold {
	var out ContactManifold
	for i := 0; i < m.Count; i++ {
		p := m.Points[i]
		out.add(ContactPoint{
			PointOnA: p.PointOnB,
			PointOnB: p.PointOnA,
			Normal:   *lin.NewV3().Scale(&p.Normal, -1),
			Depth:    p.Depth,
		})
	}
	return out
}
