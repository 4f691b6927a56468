// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestNarrowphaseQueryReportsManifoldForOverlappingSpheres(t *testing.T) {
	a := NewBody(Static, 0)
	a.Collider = NewSphere(1)
	b := NewBody(Dynamic, 1)
	b.Collider = NewSphere(1)
	b.Position = lin.V3{X: 1.5}

	m := narrowphase{}.query(a, b)
	if m.Count == 0 {
		t.Error("expected a non-empty manifold for overlapping spheres")
	}
}

func TestNarrowphaseQueryEmptyWithoutColliders(t *testing.T) {
	a := NewBody(Static, 0)
	b := NewBody(Dynamic, 1)
	m := narrowphase{}.query(a, b)
	if m.Count != 0 {
		t.Error("expected an empty manifold when a body has no collider")
	}
}

func TestNarrowphaseNotSolvableForSensor(t *testing.T) {
	a := NewBody(Static, 0)
	a.Collider = NewSphere(1)
	b := NewBody(Dynamic, 1)
	b.Collider = NewSphere(1)
	b.IsSensor = true

	if (narrowphase{}).solvable(a, b) {
		t.Error("a pair involving a sensor body should never be solvable")
	}
}

func TestNarrowphaseNotSolvableWhenBothSleeping(t *testing.T) {
	a := NewBody(Dynamic, 1)
	a.Collider = NewSphere(1)
	a.active = false
	b := NewBody(Dynamic, 1)
	b.Collider = NewSphere(1)
	b.active = false

	if (narrowphase{}).solvable(a, b) {
		t.Error("a pair of two sleeping dynamic bodies should not be solvable")
	}
}

func TestStaticFrictionOfIsGeometricMean(t *testing.T) {
	a := NewBody(Static, 0)
	a.Material.StaticFriction = 0.8
	b := NewBody(Dynamic, 1)
	b.Material.StaticFriction = 0.2
	if got := staticFrictionOf(a, b); !lin.Aeq(got, 0.4) {
		t.Errorf("staticFrictionOf = %v, want 0.4", got)
	}
}
