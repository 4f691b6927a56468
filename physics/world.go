// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

// World is the scheduler of §4.1: it owns the body store, the joint
// store, and the broad-phase/contact-table working state, and drives
// the outer-frame pipeline as a persistent object so hosts can
// register bodies/joints once and Tick repeatedly rather than rebuild
// everything from scratch every call.
type World struct {
	Config Config

	bodies []*Body
	bySlot map[BodyID]int

	joints   []Joint
	jointsOK map[JointID]bool

	broad   *broadphase
	contacts *contactTable
	narrow  narrowphase
	sleep   sleepBudget

	paused   bool
	stepOnce bool
	accumulator Scalar
}

// NewWorld returns an empty World configured with cfg.
func NewWorld(cfg Config) *World {
	return &World{
		Config:   cfg,
		bySlot:   map[BodyID]int{},
		jointsOK: map[JointID]bool{},
		broad:    newBroadphase(cfg.BroadphaseMargin),
		contacts: newContactTable(),
		narrow:   narrowphase{predictionDistance: cfg.PredictionDistance},
		sleep: sleepBudget{
			linearThreshold:  cfg.SleepEnergyThreshold,
			angularThreshold: cfg.SleepEnergyThreshold,
			delay:            cfg.SleepTimeThreshold,
		},
	}
}

// AddBody registers b, assigning it a dense internal slot. b.ID must
// be either NilBodyID (a fresh id is assigned) or an id not already
// registered in this World.
func (w *World) AddBody(b *Body) (BodyID, error) {
	if b.ID == NilBodyID {
		b.ID = newBodyID()
	} else if _, exists := w.bySlot[b.ID]; exists {
		return NilBodyID, ErrDuplicateBodyID
	}
	b.slot = len(w.bodies)
	w.bodies = append(w.bodies, b)
	w.bySlot[b.ID] = b.slot
	return b.ID, nil
}

// RemoveBody retires a body via swap-removal with the last slot, which
// is O(1) but invalidates any joint's cached slot index; a host must
// call RemoveJoint for every joint incident to id before removing the
// body, since §9 models joints as holding stable ids, not owning
// references, and this store does not scan for them on every removal.
func (w *World) RemoveBody(id BodyID) error {
	slot, ok := w.bySlot[id]
	if !ok {
		return ErrUnknownBody
	}
	last := len(w.bodies) - 1
	w.bodies[slot] = w.bodies[last]
	w.bodies[slot].slot = slot
	w.bodies = w.bodies[:last]
	delete(w.bySlot, id)
	if slot < len(w.bodies) {
		w.bySlot[w.bodies[slot].ID] = slot
	}
	return nil
}

// Body returns the live body for id, or nil.
func (w *World) Body(id BodyID) *Body {
	if slot, ok := w.bySlot[id]; ok {
		return w.bodies[slot]
	}
	return nil
}

// AddJoint registers a joint between two already-registered bodies.
func (w *World) AddJoint(j Joint) error {
	var a, b *Body
	switch jt := j.(type) {
	case *FixedJoint:
		a, b = jt.bodyA, jt.bodyB
	case *DistanceJoint:
		a, b = jt.bodyA, jt.bodyB
	case *RevoluteJoint:
		a, b = jt.bodyA, jt.bodyB
	case *SphericalJoint:
		a, b = jt.bodyA, jt.bodyB
	case *PrismaticJoint:
		a, b = jt.bodyA, jt.bodyB
	}
	slotA, slotB := -1, -1
	if a != nil && w.Body(a.ID) == a {
		slotA = a.slot
	}
	if b != nil && w.Body(b.ID) == b {
		slotB = b.slot
	}
	if slotA < 0 || slotB < 0 {
		return ErrUnknownBody
	}
	setJointSlots(j, slotA, slotB)
	w.joints = append(w.joints, j)
	w.jointsOK[j.ID()] = true
	return nil
}

// RemoveJoint retires a joint by id.
func (w *World) RemoveJoint(id JointID) {
	for i, j := range w.joints {
		if j.ID() == id {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			break
		}
	}
	delete(w.jointsOK, id)
}

// Pause halts the outer step loop between frames; Tick still returns
// a zero-event StepResult while paused (§4.1 step 1).
func (w *World) Pause()  { w.paused = true }
func (w *World) Resume() { w.paused = false }

// StepOnce requests exactly one outer step on the next Tick call even
// while paused, per §4.1's pause/step-once requirement.
func (w *World) StepOnce() { w.stepOnce = true }

// Tick advances the simulation by the host-supplied wall-clock delta,
// per the configured TimestepMode (§4.1 "Timestep mode"), and returns
// the merged events and diagnostics of every outer step it ran this
// call (zero, one, or several under TimestepFixed).
func (w *World) Tick(delta Scalar) (StepResult, []Diagnostic) {
	if w.paused && !w.stepOnce {
		return StepResult{}, nil
	}
	if w.stepOnce {
		w.stepOnce = false
		return w.step(w.Config.FixedDt)
	}

	var merged StepResult
	var diags []Diagnostic
	switch w.Config.TimestepMode {
	case TimestepFixed:
		w.accumulator += delta
		for w.accumulator >= w.Config.FixedDt {
			r, d := w.step(w.Config.FixedDt)
			merged = mergeResults(merged, r)
			diags = append(diags, d...)
			w.accumulator -= w.Config.FixedDt
		}
	default:
		dt := lin.Clamp(delta, 1e-6, w.Config.MaxVariableDt)
		merged, diags = w.step(dt)
	}
	return merged, diags
}

func mergeResults(a, b StepResult) StepResult {
	a.Started = append(a.Started, b.Started...)
	a.Ended = append(a.Ended, b.Ended...)
	a.Colliding = append(a.Colliding, b.Colliding...)
	return a
}

// step runs exactly one outer step of length dt, the pipeline of §4.1:
// broad phase once, then S substeps of {integrate, narrow phase,
// constraint solver, velocity update, velocity solver}, then contact
// reporting and sleeping.
func (w *World) step(dt Scalar) (StepResult, []Diagnostic) {
	log := w.Config.logger()
	var diags []Diagnostic

	for _, b := range w.bodies {
		diags = append(diags, normalizeBody(b, log)...)
	}

	S := w.Config.SubstepCount
	if S < 1 {
		S = 1
	}
	h := dt / Scalar(S)

	candidates := w.broad.candidatePairs(w.bodies)

	preLinear := make([]lin.V3, len(w.bodies))
	preAngular := make([]lin.V3, len(w.bodies))

	var started, ended []*contactPair
	startedSeen := map[pairKey]bool{}
	endedSeen := map[pairKey]bool{}

	for s := 0; s < S; s++ {
		for _, b := range w.bodies {
			applyImpulses(b)
			integrateBody(b, w.Config.Gravity, h)
		}

		stepStarted, stepEnded := w.contacts.update(w.bodies, candidates, w.narrow.query, w.narrow.solvable, staticFrictionOf)
		for _, p := range stepStarted {
			key := makePairKey(p.slotA, p.slotB)
			if !startedSeen[key] {
				startedSeen[key] = true
				started = append(started, p)
			}
		}
		for _, p := range stepEnded {
			key := makePairKey(p.slotA, p.slotB)
			if !endedSeen[key] {
				endedSeen[key] = true
				ended = append(ended, p)
			}
		}

		ordered := w.contacts.ordered()

		for _, j := range w.joints {
			j.resetLambdas()
		}
		for _, p := range ordered {
			p.resetLambdas()
		}

		for _, j := range w.joints {
			j.solve(h)
		}
		for _, p := range ordered {
			if p.state == contactNew || p.state == contactActive {
				p.solve(h)
			}
		}

		for i, b := range w.bodies {
			preLinear[i], preAngular[i] = recoverVelocity(b, h)
		}

		for _, p := range ordered {
			if p.state != contactNew && p.state != contactActive {
				continue
			}
			for _, cc := range p.constraints {
				solveVelocity(cc, preLinear[p.slotA], preAngular[p.slotA], preLinear[p.slotB], preAngular[p.slotB], h)
			}
		}
	}

	var active []*contactPair
	for _, p := range w.contacts.ordered() {
		switch p.state {
		case contactNew, contactActive:
			active = append(active, p)
		}
	}
	result := contactEvents(w.bodies, started, ended, active)

	islands := collectIslands(w.bodies, candidates, w.joints)
	updateSleep(w.bodies, islands, w.sleep, dt)

	for _, b := range w.bodies {
		b.clearAccumulators()
	}

	return result, diags
}

// normalizeBody applies the §7 error-handling policy for a single
// body before integration: invalid mass demotes to Kinematic for the
// frame, non-finite accumulators are dropped, degenerate orientation
// is renormalized.
func normalizeBody(b *Body, log *slog.Logger) []Diagnostic {
	var diags []Diagnostic
	if b.Kind == Dynamic && (!isFinite(b.Mass) || b.Mass <= 0 || !isFinite3(b.InertiaLocal)) {
		log.Warn("xpbd: invalid mass/inertia, demoting to kinematic for this frame", "body", b.ID.String())
		diags = append(diags, Diagnostic{Code: DiagInvalidMass, BodyID: b.ID, Message: "non-finite or non-positive mass/inertia"})
		saved := b.Kind
		b.Kind = Kinematic
		b.recomputeMassProperties()
		b.Kind = saved
		b.inverseMass, b.inverseInertiaLocal = 0, lin.V3{}
	}

	force, torque := b.netForce()
	if !isFinite3(force) || !isFinite3(torque) {
		log.Warn("xpbd: non-finite external accumulator, zeroing", "body", b.ID.String())
		diags = append(diags, Diagnostic{Code: DiagNonFiniteAccumulator, BodyID: b.ID, Message: "non-finite force or torque"})
		b.forces = b.forces[:0]
		b.torques = b.torques[:0]
	}

	if d := b.Rotation.Len() - 1; d > 1e-6 || d < -1e-6 {
		b.Rotation.Unit()
	}
	return diags
}

func setJointSlots(j Joint, a, b int) {
	switch jt := j.(type) {
	case *FixedJoint:
		jt.slotA, jt.slotB = a, b
	case *DistanceJoint:
		jt.slotA, jt.slotB = a, b
	case *RevoluteJoint:
		jt.slotA, jt.slotB = a, b
	case *SphericalJoint:
		jt.slotA, jt.slotB = a, b
	case *PrismaticJoint:
		jt.slotA, jt.slotB = a, b
	}
}
