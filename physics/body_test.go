// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestNewBodyMassProperties(t *testing.T) {
	b := NewBody(Dynamic, 2)
	if b.inverseMass != 0.5 {
		t.Errorf("inverse mass = %v, want 0.5", b.inverseMass)
	}
	if !b.movable() {
		t.Error("dynamic body with positive mass should be movable")
	}
}

func TestStaticBodyHasZeroInverseMass(t *testing.T) {
	b := NewBody(Static, 5)
	if b.inverseMass != 0 {
		t.Errorf("static body inverse mass = %v, want 0", b.inverseMass)
	}
	if b.movable() {
		t.Error("static body should never be movable")
	}
}

func TestInvalidMassZeroesInverseMass(t *testing.T) {
	b := NewBody(Dynamic, -1)
	if b.inverseMass != 0 {
		t.Errorf("negative mass should yield zero inverse mass, got %v", b.inverseMass)
	}
}

func TestAxisMaskLocksComponents(t *testing.T) {
	m := LockTransX | LockRotY
	v := lin.V3{X: 1, Y: 2, Z: 3}
	m.applyLinear(&v)
	if v.X != 0 || v.Y != 2 || v.Z != 3 {
		t.Errorf("applyLinear = %v, want X zeroed only", v)
	}
	w := lin.V3{X: 1, Y: 2, Z: 3}
	m.applyAngular(&w)
	if w.Y != 0 || w.X != 1 || w.Z != 3 {
		t.Errorf("applyAngular = %v, want Y zeroed only", w)
	}
}

func TestWakeResetsSleepTimer(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.active = false
	b.timeBelowThreshold = 10
	b.Wake()
	if !b.Active() {
		t.Error("Wake should make the body active")
	}
	if b.timeBelowThreshold != 0 {
		t.Errorf("timeBelowThreshold = %v, want 0 after Wake", b.timeBelowThreshold)
	}
}

func TestNonDynamicAlwaysActive(t *testing.T) {
	b := NewBody(Static, 0)
	b.active = false
	if !b.Active() {
		t.Error("static bodies are always reported active")
	}
}

func TestNetForceCombinesForcesAndTorques(t *testing.T) {
	b := NewBody(Dynamic, 1)
	b.AddForce(lin.V3{X: 1, Y: 0, Z: 0}, lin.V3{X: 0, Y: 1, Z: 0})
	b.AddTorque(lin.V3{X: 0, Y: 0, Z: 5})
	force, torque := b.netForce()
	if force.Y != 1 {
		t.Errorf("force = %v, want Y=1", force)
	}
	if torque.Z != 6 { // cross((1,0,0)-com, (0,1,0)) = (0,0,1), plus the pure torque (0,0,5)
		t.Errorf("torque.Z = %v, want 6", torque.Z)
	}
}

func TestCombineFrictionIsGeometricMean(t *testing.T) {
	a := Material{StaticFriction: 0.8, DynamicFriction: 0.5}
	b := Material{StaticFriction: 0.2, DynamicFriction: 0.5}
	static, dynamic := combineFriction(a, b)
	if !lin.Aeq(static, 0.4) {
		t.Errorf("combined static friction = %v, want 0.4", static)
	}
	if !lin.Aeq(dynamic, 0.5) {
		t.Errorf("combined dynamic friction = %v, want 0.5", dynamic)
	}
}

func TestCombineRestitutionIsMax(t *testing.T) {
	a := Material{Restitution: 0.3}
	b := Material{Restitution: 0.9}
	if got := combineRestitution(a, b); got != 0.9 {
		t.Errorf("combined restitution = %v, want 0.9", got)
	}
}
