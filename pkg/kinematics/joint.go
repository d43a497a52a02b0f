package kinematics

import (
	"math"
	"strings"
)

// Axis is the principal rotation axis of a joint.
type Axis int

const (
	// AxisZ is yaw, the fallback for names that are neither roll nor pitch.
	AxisZ Axis = iota
	// AxisX is roll.
	AxisX
	// AxisY is pitch.
	AxisY
)

// String returns a human-readable axis name.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// AxisOf classifies a joint by name: "Roll" wins over "Pitch", anything
// else is yaw. HipYawPitch is a pitch joint under this rule.
func AxisOf(name string) Axis {
	switch {
	case strings.Contains(name, "Roll"):
		return AxisX
	case strings.Contains(name, "Pitch"):
		return AxisY
	default:
		return AxisZ
	}
}

// Joint is a single revolute joint with a fixed link offset along local x.
type Joint struct {
	Name   string
	Length float64 // meters
}

// Axis returns the joint's rotation axis.
func (j Joint) Axis() Axis {
	return AxisOf(j.Name)
}

// LocalTransform returns the joint's transform at the given angle:
// translation (Length, 0, 0) and a rotation about the joint axis.
// Yaw turns x toward y. Roll turns z toward y and pitch turns x toward z,
// which is the NAO body convention (Rx(-angle) and Ry(-angle)).
func (j Joint) LocalTransform(angle float64) Transform {
	t := Identity()
	t[0][3] = j.Length

	s, c := math.Sincos(angle)
	switch j.Axis() {
	case AxisX:
		t[1][1], t[1][2] = c, s
		t[2][1], t[2][2] = -s, c
	case AxisY:
		t[0][0], t[0][2] = c, -s
		t[2][0], t[2][2] = s, c
	default:
		t[0][0], t[0][1] = c, -s
		t[1][0], t[1][1] = s, c
	}
	return t
}
