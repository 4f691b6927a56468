// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func identity() lin.Q { return lin.Q{X: 0, Y: 0, Z: 0, W: 1} }

func TestSphereAabbCenteredOnPosition(t *testing.T) {
	s := NewSphere(2)
	box := s.Aabb(lin.V3{X: 1, Y: 1, Z: 1}, identity())
	if box.Min.X != -1 || box.Max.X != 3 {
		t.Errorf("sphere AABB X range = [%v,%v], want [-1,3]", box.Min.X, box.Max.X)
	}
}

func TestSphereSphereManifoldDetectsOverlap(t *testing.T) {
	s := NewSphere(1)
	m := s.ContactManifold(lin.V3{}, identity(), NewSphere(1), lin.V3{X: 1.5}, identity(), 0)
	if m.Count != 1 {
		t.Fatalf("expected one contact point for overlapping spheres, got %d", m.Count)
	}
	if m.Points[0].Depth >= 0 {
		t.Errorf("overlapping spheres should report negative depth, got %v", m.Points[0].Depth)
	}
}

func TestSphereSphereManifoldEmptyWhenSeparated(t *testing.T) {
	s := NewSphere(1)
	m := s.ContactManifold(lin.V3{}, identity(), NewSphere(1), lin.V3{X: 10}, identity(), 0)
	if m.Count != 0 {
		t.Error("separated spheres should yield an empty manifold")
	}
}

func TestSphereSphereManifoldSpeculativeWithinPredictionDistance(t *testing.T) {
	s := NewSphere(1)
	// Spheres are separated by exactly 0.05 beyond touching (dist 2.05,
	// radii sum 2): within a 0.05 prediction distance this must still
	// report a contact, with a positive depth and no actual overlap.
	m := s.ContactManifold(lin.V3{}, identity(), NewSphere(1), lin.V3{X: 2.05}, identity(), 0.05)
	if m.Count != 1 {
		t.Fatalf("expected a speculative contact within prediction distance, got %d points", m.Count)
	}
	if m.Points[0].Depth <= 0 {
		t.Errorf("speculative contact should report positive separation, got depth %v", m.Points[0].Depth)
	}

	m = s.ContactManifold(lin.V3{}, identity(), NewSphere(1), lin.V3{X: 2.06}, identity(), 0.05)
	if m.Count != 0 {
		t.Error("a gap beyond the prediction distance should yield an empty manifold")
	}
}

func TestBoxBoxManifoldDetectsOverlap(t *testing.T) {
	a := NewBox(1, 1, 1)
	b := NewBox(1, 1, 1)
	m := a.ContactManifold(lin.V3{}, identity(), b, lin.V3{X: 1.5}, identity(), 0)
	if m.Count != 1 {
		t.Fatalf("expected one contact point for overlapping boxes, got %d", m.Count)
	}
}

func TestBoxBoxManifoldEmptyWhenSeparated(t *testing.T) {
	a := NewBox(1, 1, 1)
	b := NewBox(1, 1, 1)
	m := a.ContactManifold(lin.V3{}, identity(), b, lin.V3{X: 10}, identity(), 0)
	if m.Count != 0 {
		t.Error("separated boxes should yield an empty manifold")
	}
}

func TestSphereRayCastHitsFrontFace(t *testing.T) {
	s := NewSphere(1)
	hit, ok := s.RayCast(lin.V3{X: -5}, lin.V3{X: 1}, 100, lin.V3{}, identity())
	if !ok {
		t.Fatal("expected ray to hit the sphere")
	}
	if math.Abs(hit.Distance-4) > 1e-6 {
		t.Errorf("hit distance = %v, want 4", hit.Distance)
	}
}

func TestSphereRayCastMissesBeyondMaxDistance(t *testing.T) {
	s := NewSphere(1)
	_, ok := s.RayCast(lin.V3{X: -5}, lin.V3{X: 1}, 1, lin.V3{}, identity())
	if ok {
		t.Error("ray should miss when maxDistance is shorter than the hit distance")
	}
}

func TestBoxPointProjectClampsToSurface(t *testing.T) {
	b := NewBox(1, 1, 1)
	proj := b.PointProject(lin.V3{X: 5, Y: 0, Z: 0}, lin.V3{}, identity())
	if proj.Inside {
		t.Error("point far outside the box should not be reported as inside")
	}
	if math.Abs(proj.Point.X-1) > 1e-6 {
		t.Errorf("projected point X = %v, want 1", proj.Point.X)
	}
}

func TestShapeCastMarchFindsFirstContact(t *testing.T) {
	a := NewSphere(1)
	b := NewSphere(1)
	hit, ok := a.ShapeCast(lin.V3{X: 1}, 10, lin.V3{}, identity(), b, lin.V3{X: 5}, identity())
	if !ok {
		t.Fatal("expected the shape cast to find a contact before maxDistance")
	}
	if hit.TOI <= 0 || hit.TOI >= 5 {
		t.Errorf("TOI = %v, want in (0,5)", hit.TOI)
	}
}

func TestShapeCastMarchNoHitWhenTooFar(t *testing.T) {
	a := NewSphere(1)
	b := NewSphere(1)
	_, ok := a.ShapeCast(lin.V3{X: 1}, 1, lin.V3{}, identity(), b, lin.V3{X: 100}, identity())
	if ok {
		t.Error("shape cast should not find a contact within a too-short maxDistance")
	}
}
