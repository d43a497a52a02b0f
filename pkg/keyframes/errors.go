package keyframes

import "errors"

var (
	// ErrNotFound is returned when a named motion does not exist.
	ErrNotFound = errors.New("motion not found")

	// ErrInvalidKeyframes is returned when a motion file is malformed.
	ErrInvalidKeyframes = errors.New("invalid keyframes")
)
