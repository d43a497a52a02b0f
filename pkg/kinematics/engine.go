package kinematics

import (
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
)

// Engine composes chain transforms from joint angles. It owns one Transform
// per chain joint, overwritten in place on every successful Compute. Joints
// outside the chains keep the identity transform.
// Safe for concurrent use.
type Engine struct {
	model *Model

	mu         sync.RWMutex
	transforms map[string]Transform
	cycles     uint64
}

// NewEngine creates an engine for the model with every transform at identity.
func NewEngine(model *Model) *Engine {
	e := &Engine{
		model:      model,
		transforms: make(map[string]Transform, len(model.known)),
	}
	for name := range model.known {
		e.transforms[name] = Identity()
	}
	return e
}

// Model returns the body model the engine was built for.
func (e *Engine) Model() *Model {
	return e.model
}

// Compute runs forward kinematics for every chain.
//
// The angles of all chain joints are copied before composition starts, so a
// caller mutating the map afterwards cannot affect this cycle. A missing
// chain joint fails the whole cycle and leaves the previous transforms intact.
func (e *Engine) Compute(angles JointAngles) error {
	snapshot := make(map[string]float64, len(e.model.joints))
	for _, c := range e.model.chains {
		for _, j := range c.joints {
			a, ok := angles[j.Name]
			if !ok {
				return fmt.Errorf("%w: %s", ErrMissingAngle, j.Name)
			}
			snapshot[j.Name] = a
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.model.chains {
		t := Identity()
		for _, j := range c.joints {
			t = t.Mul(j.LocalTransform(snapshot[j.Name]))
			e.transforms[j.Name] = t
		}
	}
	e.cycles++
	return nil
}

// Transform returns the torso-frame transform of a joint.
func (e *Engine) Transform(name string) (Transform, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.transforms[name]
	if !ok {
		return Transform{}, fmt.Errorf("%w: %s", ErrUnknownJoint, name)
	}
	return t, nil
}

// Transforms returns a copy of all joint transforms.
func (e *Engine) Transforms() map[string]Transform {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]Transform, len(e.transforms))
	for k, v := range e.transforms {
		out[k] = v
	}
	return out
}

// Positions returns every joint's torso-frame position.
func (e *Engine) Positions() map[string]r3.Vector {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]r3.Vector, len(e.transforms))
	for k, v := range e.transforms {
		out[k] = v.Position()
	}
	return out
}

// Cycles returns the number of successful Compute calls.
func (e *Engine) Cycles() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cycles
}
