// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestRecoverVelocityDerivesLinearVelocityFromPositionDelta(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.previousPosition = lin.V3{X: 0}
	b.Position = lin.V3{X: 0.1}
	h := Scalar(1.0 / 60)

	recoverVelocity(b, h)

	if !lin.Aeq(b.LinearVelocity.X, 0.1*60) {
		t.Errorf("recovered linear velocity X = %v, want %v", b.LinearVelocity.X, 0.1*60)
	}
}

func TestRecoverVelocitySkipsStaticBodies(t *testing.T) {
	b := NewBody(Static, 0)
	b.LinearVelocity = lin.V3{X: 5}
	recoverVelocity(b, 1.0/60)
	if b.LinearVelocity.X != 5 {
		t.Error("recoverVelocity should leave a static body's velocity untouched")
	}
}

func TestRecoverVelocityReturnsPreCallVelocity(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.LinearVelocity = lin.V3{X: 3}
	b.Position = lin.V3{X: 0.1}
	pre, _ := recoverVelocity(b, 1.0/60)
	if pre.X != 3 {
		t.Errorf("pre-call velocity returned = %v, want 3", pre.X)
	}
}
