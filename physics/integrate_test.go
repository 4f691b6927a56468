// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestIntegrateBodyFreefall(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.Position = lin.V3{Y: 10}
	g := lin.V3{Y: -9.81}
	dt := 1.0 / 60.0
	substeps := 8
	h := dt / Scalar(substeps)

	for frame := 0; frame < 60; frame++ {
		for s := 0; s < substeps; s++ {
			integrateBody(b, g, h)
		}
	}

	// Semi-implicit Euler from rest: after n substeps of length h the
	// height is y0 - g*h*h*n*(n+1)/2, about 5.0848 here (the
	// continuous-time 5.095 differs from it by g*h*t/2).
	n := Scalar(60 * substeps)
	want := 10 - 9.81*h*h*n*(n+1)/2
	if math.Abs(b.Position.Y-want) > 1e-6 {
		t.Errorf("after 1s of freefall, y = %v, want ~%v", b.Position.Y, want)
	}
}

func TestIntegrateBodySkipsStaticBodies(t *testing.T) {
	b := NewBody(Static, 0)
	b.Position = lin.V3{Y: 10}
	integrateBody(b, lin.V3{Y: -9.81}, 1.0/60)
	if b.Position.Y != 10 {
		t.Errorf("static body moved to %v, want unchanged", b.Position.Y)
	}
}

func TestIntegrateBodySkipsSleepingBodies(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.Position = lin.V3{Y: 10}
	b.active = false
	integrateBody(b, lin.V3{Y: -9.81}, 1.0/60)
	if b.Position.Y != 10 {
		t.Errorf("sleeping body moved to %v, want unchanged", b.Position.Y)
	}
}

func TestDampingFactorClampsToZeroAndOne(t *testing.T) {
	if got := dampingFactor(1000, 1); got != 0 {
		t.Errorf("dampingFactor(1000,1) = %v, want 0", got)
	}
	if got := dampingFactor(-5, 1.0/60); got != 1 {
		t.Errorf("dampingFactor(-5, h) = %v, want clamped to 1", got)
	}
}

func TestApplyImpulsesConvertsLinearImpulseToVelocity(t *testing.T) {
	b := NewBody(Dynamic, 2)
	b.ApplyLinearImpulse(lin.V3{X: 4})
	applyImpulses(b)
	if !lin.Aeq(b.LinearVelocity.X, 2) {
		t.Errorf("linear velocity after impulse = %v, want 2 (impulse/mass)", b.LinearVelocity.X)
	}
	if b.linearImpulse.X != 0 {
		t.Error("linearImpulse accumulator should be cleared after applyImpulses")
	}
}
