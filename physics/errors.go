// Copyright © 2024 Galvanized Logic Inc.

package physics

import "fmt"

// DiagnosticCode enumerates the five recoverable-anomaly kinds of §7.
// None of these ever surface as a Go error from Step; they are always
// normalized in place and reported here instead.
type DiagnosticCode uint8

const (
	DiagInvalidMass DiagnosticCode = iota
	DiagDegenerateCollider
	DiagNonFiniteAccumulator
	DiagUnknownJointEndpoint
	DiagColliderFailure
)

func (c DiagnosticCode) String() string {
	switch c {
	case DiagInvalidMass:
		return "invalid_mass"
	case DiagDegenerateCollider:
		return "degenerate_collider"
	case DiagNonFiniteAccumulator:
		return "non_finite_accumulator"
	case DiagUnknownJointEndpoint:
		return "unknown_joint_endpoint"
	case DiagColliderFailure:
		return "collider_failure"
	default:
		return "unknown"
	}
}

// Diagnostic is one recoverable-anomaly report emitted by a Step call,
// per §7. BodyID is NilBodyID when the diagnostic isn't tied to a
// single body (e.g. a joint referencing a despawned endpoint reports
// the joint's surviving body, if any, else NilBodyID).
type Diagnostic struct {
	Code    DiagnosticCode
	BodyID  BodyID
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (body %s)", d.Code, d.Message, d.BodyID)
}

// ErrDuplicateBodyID is returned by World.AddBody when the supplied
// Body already has a non-nil ID registered in this World.
var ErrDuplicateBodyID = fmt.Errorf("physics: body id already registered")

// ErrUnknownBody is returned by World.AddJoint/RemoveBody when a
// referenced BodyID has no corresponding live body.
var ErrUnknownBody = fmt.Errorf("physics: unknown body id")
