// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/galvanizedlogic/xpbd/math/lin"

// mathtypes.go names the vector, rotation and scalar types of this
// package (§9). Only the 3D (quaternion) configuration exists. Body
// fields and Config use Vec/Rot/Scalar, but the solvers use lin.V3,
// lin.Q and lin.M3 directly (cross products, 3x3 inertia tensors,
// quaternion updates), so swapping these three declarations alone
// does not give a 2D build.

// Scalar is the engine's floating point precision.
type Scalar = float64

// Vec is a position, velocity, force, or axis in the configured
// dimensionality.
type Vec = lin.V3

// Rot is a body orientation in the configured dimensionality.
type Rot = lin.Q
