// Package kinematics computes forward kinematics for a humanoid body.
//
// A body is described by a Model: a set of kinematic chains (Head, LArm,
// RArm, LLeg, RLeg) whose joints each rotate about one principal axis and
// carry a fixed link offset along the local x-axis. The Engine turns a
// snapshot of joint angles into one torso-frame Transform per chain joint.
package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// Transform is a 4x4 homogeneous rigid-body transform.
// Row-major: t[row][col], translation in column 3.
type Transform [4][4]float64

// JointAngles maps joint name to angle in radians.
type JointAngles map[string]float64

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns t * other.
func (t Transform) Mul(other Transform) Transform {
	var out Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += t[i][k] * other[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// ApproxEqual reports whether every element of t and other differs by at most tol.
func (t Transform) ApproxEqual(other Transform, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(t[i][j]-other[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// Position returns the translation column.
func (t Transform) Position() r3.Vector {
	return r3.Vector{X: t[0][3], Y: t[1][3], Z: t[2][3]}
}

// Clone returns a copy of the angle map.
func (a JointAngles) Clone() JointAngles {
	out := make(JointAngles, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
