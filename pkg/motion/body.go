// Package motion runs the per-cycle control of the body: it reads joint
// angles, updates forward kinematics, plays keyframe sequences and forwards
// joint targets to the actuators.
//
// RPC handlers never touch the actuators directly. They queue intents in
// Targets or install a sequence in the Coordinator; the Loop is the single
// writer that applies both once per cycle.
package motion

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-nao/pkg/kinematics"
)

// Sensor provides the current joint angles. Implementations must return a
// map the caller may keep.
type Sensor interface {
	JointAngles() kinematics.JointAngles
}

// Actuator accepts joint targets for the lower-level joint controllers.
type Actuator interface {
	SetTargets(targets map[string]float64) error
}

// Body is both ends of the hardware boundary.
type Body interface {
	Sensor
	Actuator
}

// PostureFunc classifies the body's stance from one cycle's state.
type PostureFunc func(angles kinematics.JointAngles, transforms map[string]kinematics.Transform) string

// PostureUnknown is reported when no classifier is configured.
const PostureUnknown = "Unknown"

// MirrorBody is an ideal body: every target is reached instantly and read
// back as the sensed angle on the next cycle.
type MirrorBody struct {
	model *kinematics.Model

	mu     sync.RWMutex
	angles kinematics.JointAngles
	writes uint64
}

var _ Body = (*MirrorBody)(nil)

// NewMirrorBody creates a body with every joint of the model at zero.
func NewMirrorBody(model *kinematics.Model) *MirrorBody {
	angles := make(kinematics.JointAngles)
	for _, name := range model.JointNames() {
		angles[name] = 0
	}
	return &MirrorBody{model: model, angles: angles}
}

// JointAngles returns a copy of the current angles.
func (b *MirrorBody) JointAngles() kinematics.JointAngles {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.angles.Clone()
}

// SetTargets applies the targets. Unknown joints reject the whole batch.
func (b *MirrorBody) SetTargets(targets map[string]float64) error {
	for name := range targets {
		if !b.model.HasJoint(name) {
			return fmt.Errorf("%w: %s", kinematics.ErrUnknownJoint, name)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for name, angle := range targets {
		b.angles[name] = angle
	}
	b.writes++
	return nil
}

// Writes returns how many target batches were applied.
func (b *MirrorBody) Writes() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
