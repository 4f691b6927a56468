// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestPositionalConstraintPullsSeparatedBodiesTogether(t *testing.T) {
	a := NewBody(Dynamic, 1)
	a.Position = lin.V3{X: -1}
	b := NewBody(Dynamic, 1)
	b.Position = lin.V3{X: 1}

	prep := preparePositional(a, b, lin.V3{}, lin.V3{})
	p1 := lin.NewV3().Add(&a.Position, &prep.r1wc)
	p2 := lin.NewV3().Add(&b.Position, &prep.r2wc)
	deltaX := lin.NewV3().Sub(p1, p2) // length 2, should shrink toward 0

	dLambda := prep.deltaLambda(1.0/60, 0, 0, *deltaX)
	prep.apply(dLambda, *deltaX)

	newDist := lin.NewV3().Sub(&b.Position, &a.Position).Len()
	if newDist >= 2 {
		t.Errorf("positions did not move closer together: new distance %v, started at 2", newDist)
	}
}

func TestPositionalConstraintSkipsStaticBodies(t *testing.T) {
	a := NewBody(Static, 0)
	a.Position = lin.V3{X: -1}
	b := NewBody(Dynamic, 1)
	b.Position = lin.V3{X: 1}

	prep := preparePositional(a, b, lin.V3{}, lin.V3{})
	deltaX := lin.V3{X: -2}
	dLambda := prep.deltaLambda(1.0/60, 0, 0, deltaX)
	prep.apply(dLambda, deltaX)

	if a.Position.X != -1 {
		t.Errorf("static body should never move, got %v", a.Position.X)
	}
}

func TestDeltaLambdaZeroForNegligibleCorrection(t *testing.T) {
	a := NewBody(Dynamic, 1)
	b := NewBody(Dynamic, 1)
	prep := preparePositional(a, b, lin.V3{}, lin.V3{})
	got := prep.deltaLambda(1.0/60, 0, 0, lin.V3{})
	if got != 0 {
		t.Errorf("deltaLambda for zero-length correction = %v, want 0", got)
	}
}

func TestHigherComplianceYieldsSmallerCorrection(t *testing.T) {
	rigid := func() Scalar {
		a := NewBody(Dynamic, 1)
		a.Position = lin.V3{X: -1}
		b := NewBody(Dynamic, 1)
		b.Position = lin.V3{X: 1}
		prep := preparePositional(a, b, lin.V3{}, lin.V3{})
		deltaX := lin.V3{X: -2}
		dLambda := prep.deltaLambda(1.0/60, 0, 0, deltaX)
		prep.apply(dLambda, deltaX)
		return lin.NewV3().Sub(&b.Position, &a.Position).Len()
	}
	soft := func() Scalar {
		a := NewBody(Dynamic, 1)
		a.Position = lin.V3{X: -1}
		b := NewBody(Dynamic, 1)
		b.Position = lin.V3{X: 1}
		prep := preparePositional(a, b, lin.V3{}, lin.V3{})
		deltaX := lin.V3{X: -2}
		dLambda := prep.deltaLambda(1.0/60, 1e-3, 0, deltaX)
		prep.apply(dLambda, deltaX)
		return lin.NewV3().Sub(&b.Position, &a.Position).Len()
	}
	rigidDist, softDist := rigid(), soft()
	if softDist <= rigidDist {
		t.Errorf("soft constraint (dist %v) should correct less than rigid (dist %v)", softDist, rigidDist)
	}
}

func TestDominanceInverseMassesZeroesLowerDominanceSide(t *testing.T) {
	a := NewBody(Dynamic, 1)
	a.Dominance = 1
	b := NewBody(Dynamic, 1)

	invA, invB := dominanceInverseMasses(a, b)
	if invA != a.inverseMass {
		t.Errorf("higher-dominance body's inverse mass changed: got %v, want %v", invA, a.inverseMass)
	}
	if invB != 0 {
		t.Errorf("lower-dominance body's inverse mass = %v, want 0", invB)
	}
}

func TestDominanceInverseMassesUnaffectedWhenEqual(t *testing.T) {
	a := NewBody(Dynamic, 1)
	b := NewBody(Dynamic, 2)

	invA, invB := dominanceInverseMasses(a, b)
	if invA != a.inverseMass || invB != b.inverseMass {
		t.Errorf("equal dominance should leave both inverse masses unchanged, got (%v,%v)", invA, invB)
	}
}

func TestIntegrateRotationStaysUnit(t *testing.T) {
	rot := lin.Q{X: 0, Y: 0, Z: 0, W: 1}
	w := lin.V3{X: 1, Y: 2, Z: 3}
	integrateRotation(&rot, w, 1.0/60)
	if l := rot.Len(); l < 1-1e-5 || l > 1+1e-5 {
		t.Errorf("rotation length = %v, want ~1", l)
	}
}
