package kinematics

import "errors"

var (
	// ErrUnknownJoint is returned when a name is not a joint of the body model.
	ErrUnknownJoint = errors.New("unknown joint")

	// ErrMissingAngle is returned when the angle snapshot lacks a chain joint.
	ErrMissingAngle = errors.New("missing joint angle")

	// ErrInvalidModel is returned when a body model is malformed.
	ErrInvalidModel = errors.New("invalid body model")

	// ErrMalformedTransform is returned when a serialized transform cannot be decoded or encoded.
	ErrMalformedTransform = errors.New("malformed transform")
)
