// Copyright © 2024 Galvanized Logic Inc.

package physics

// Default sleeping thresholds (§4.5).
const (
	defaultLinearSleepThreshold  = 0.10
	defaultAngularSleepThreshold = 0.10
	defaultSleepDelay            = 1.0
)

// sleepBudget holds the tunables §4.5 lets a host override per World.
type sleepBudget struct {
	linearThreshold  Scalar
	angularThreshold Scalar
	delay            Scalar
}

func defaultSleepBudget() sleepBudget {
	return sleepBudget{
		linearThreshold:  defaultLinearSleepThreshold,
		angularThreshold: defaultAngularSleepThreshold,
		delay:            defaultSleepDelay,
	}
}

// updateSleep advances each body's time-below-threshold timer and puts
// whole islands to sleep together, never individual bodies — §4.5's
// rule that a body can't sleep while anything it's touching or
// jointed to is still moving.
func updateSleep(bodies []*Body, islands [][]int, budget sleepBudget, dt Scalar) {
	for _, island := range islands {
		allBelowDelay := true
		for _, slot := range island {
			b := bodies[slot]
			if !b.movable() {
				continue
			}
			if b.LinearVelocity.Len() < budget.linearThreshold && b.AngularVelocity.Len() < budget.angularThreshold {
				b.timeBelowThreshold += dt
			} else {
				b.timeBelowThreshold = 0
			}
			if b.timeBelowThreshold < budget.delay {
				allBelowDelay = false
			}
		}

		for _, slot := range island {
			b := bodies[slot]
			if !b.movable() {
				continue
			}
			if allBelowDelay {
				if b.active {
					b.LinearVelocity = Vec{}
					b.AngularVelocity = Vec{}
				}
				b.active = false
			} else {
				b.active = true
			}
		}
	}
}
