// Package agent implements the server side of the remote control protocol.
//
// An Agent owns the forward kinematics engine and the control loop of one
// body. Its methods are the RPC catalogue; they only read published state
// or queue intents, never touching the actuators directly.
package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/kinematics"
	"github.com/teslashibe/go-nao/pkg/motion"
)

var (
	// ErrNoReading is returned when a known joint has not been sensed yet.
	ErrNoReading = errors.New("no reading for joint")

	// ErrUnknownEffector is returned for set_transform on a name that is not a chain.
	ErrUnknownEffector = errors.New("unknown effector")

	// ErrNoSolver is returned for set_transform when no IK solver is configured.
	ErrNoSolver = errors.New("inverse kinematics unavailable")
)

// Solver resolves an effector target pose into joint targets.
type Solver interface {
	Solve(effector string, target kinematics.Transform) (map[string]float64, error)
}

// Options configures an Agent.
type Options struct {
	// Rate is the control cycle period. Zero uses the loop default.
	Rate time.Duration

	// Solver handles set_transform. Nil disables it.
	Solver Solver

	// Posture classifies each cycle. Nil reports motion.PostureUnknown.
	Posture motion.PostureFunc
}

// Agent serves the remote control catalogue for one body.
type Agent struct {
	model  *kinematics.Model
	engine *kinematics.Engine
	loop   *motion.Loop
	solver Solver
}

// New creates an agent driving body with the given model.
func New(model *kinematics.Model, body motion.Body, opts Options) *Agent {
	engine := kinematics.NewEngine(model)
	loop := motion.NewLoop(motion.LoopConfig{
		Engine:  engine,
		Body:    body,
		Posture: opts.Posture,
		Rate:    opts.Rate,
	})
	return &Agent{
		model:  model,
		engine: engine,
		loop:   loop,
		solver: opts.Solver,
	}
}

// Loop returns the agent's control loop.
func (a *Agent) Loop() *motion.Loop {
	return a.loop
}

// Run runs the control loop until Stop.
func (a *Agent) Run() {
	a.loop.Run()
}

// Stop stops the control loop.
func (a *Agent) Stop() {
	a.loop.Stop()
}

// GetAngle returns the last sensed angle of a joint.
func (a *Agent) GetAngle(joint string) (float64, error) {
	if !a.model.HasJoint(joint) {
		return 0, fmt.Errorf("%w: %s", kinematics.ErrUnknownJoint, joint)
	}
	angle, ok := a.loop.Angle(joint)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoReading, joint)
	}
	return angle, nil
}

// SetAngle queues a target angle for the joint controllers. The joint moves
// on a later control cycle.
func (a *Agent) SetAngle(joint string, angle float64) error {
	if !a.model.HasJoint(joint) {
		return fmt.Errorf("%w: %s", kinematics.ErrUnknownJoint, joint)
	}
	a.loop.Targets().Set(joint, angle)
	return nil
}

// GetPosture returns the last classified posture.
func (a *Agent) GetPosture() (string, error) {
	return a.loop.Posture(), nil
}

// ExecuteKeyframes plays kf and returns once its duration has elapsed.
func (a *Agent) ExecuteKeyframes(kf keyframes.Keyframes) error {
	start := time.Now()
	a.loop.Coordinator().Execute(kf)
	log.Component("agent").Info("keyframes executed",
		"joints", len(kf.Names), "duration", kf.Duration(), "elapsed", time.Since(start))
	return nil
}

// GetTransform returns the serialized torso-frame transform of a joint.
// Joints outside the chains report the identity.
func (a *Agent) GetTransform(name string) (string, error) {
	t, err := a.engine.Transform(name)
	if err != nil {
		return "", err
	}
	return kinematics.Encode(t)
}

// SetTransform solves inverse kinematics for an effector and queues the
// resulting joint targets.
func (a *Agent) SetTransform(effector string, transform string) error {
	target, err := kinematics.Decode(transform)
	if err != nil {
		return err
	}
	if _, ok := a.model.Chain(effector); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEffector, effector)
	}
	if a.solver == nil {
		return ErrNoSolver
	}

	targets, err := a.solver.Solve(effector, target)
	if err != nil {
		return fmt.Errorf("solve %s: %w", effector, err)
	}
	for joint := range targets {
		if !a.model.HasJoint(joint) {
			return fmt.Errorf("solver returned %w: %s", kinematics.ErrUnknownJoint, joint)
		}
	}

	a.loop.Targets().SetMany(targets)
	return nil
}
