package motion

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/kinematics"
)

// DeadZoneRad is the smallest target change forwarded to the actuator.
const DeadZoneRad = 1e-4

// errorLogInterval limits repeated cycle error logs.
const errorLogInterval = 5 * time.Second

// Frame is one cycle's published state.
type Frame struct {
	Cycle     uint64               `json:"cycle"`
	Time      time.Time            `json:"time"`
	Posture   string               `json:"posture"`
	Angles    map[string]float64   `json:"angles"`
	Positions map[string]r3.Vector `json:"positions"`
}

// LoopConfig wires a Loop to its collaborators.
type LoopConfig struct {
	Engine      *kinematics.Engine
	Body        Body
	Targets     *Targets
	Coordinator *Coordinator

	// Posture classifies each cycle. Nil reports PostureUnknown.
	Posture PostureFunc

	// Rate is the cycle period. Zero means 20ms.
	Rate time.Duration
}

// Loop is the fixed-rate control cycle. It is the only writer to the
// actuator and the only caller of Engine.Compute.
type Loop struct {
	engine  *kinematics.Engine
	body    Body
	targets *Targets
	coord   *Coordinator
	posture PostureFunc
	rate    time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	// Perception snapshot published for readers.
	mu      sync.RWMutex
	angles  kinematics.JointAngles
	label   string
	cycle   uint64
	onCycle func(Frame)

	// Owned by the loop goroutine.
	commanded     map[string]float64
	lastSent      map[string]float64
	finishedGen   uint64
	errorCount    uint64
	lastErrorTime time.Time
}

// NewLoop creates a loop. Targets and Coordinator are created when nil.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Rate <= 0 {
		cfg.Rate = 20 * time.Millisecond
	}
	if cfg.Targets == nil {
		cfg.Targets = NewTargets()
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = NewCoordinator()
	}
	return &Loop{
		engine:    cfg.Engine,
		body:      cfg.Body,
		targets:   cfg.Targets,
		coord:     cfg.Coordinator,
		posture:   cfg.Posture,
		rate:      cfg.Rate,
		stop:      make(chan struct{}),
		label:     PostureUnknown,
		commanded: make(map[string]float64),
		lastSent:  make(map[string]float64),
	}
}

// Targets returns the intent buffer drained by the loop.
func (l *Loop) Targets() *Targets { return l.targets }

// Coordinator returns the keyframe coordinator read by the loop.
func (l *Loop) Coordinator() *Coordinator { return l.coord }

// Engine returns the forward kinematics engine updated by the loop.
func (l *Loop) Engine() *kinematics.Engine { return l.engine }

// OnCycle registers a callback invoked at the end of every cycle.
// The callback runs on the loop goroutine and must not block.
func (l *Loop) OnCycle(fn func(Frame)) {
	l.mu.Lock()
	l.onCycle = fn
	l.mu.Unlock()
}

// Angle returns the last sensed angle of a joint.
func (l *Loop) Angle(joint string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.angles[joint]
	return a, ok
}

// Angles returns a copy of the last sensed angles.
func (l *Loop) Angles() kinematics.JointAngles {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.angles.Clone()
}

// Posture returns the last classified posture.
func (l *Loop) Posture() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.label
}

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cycle
}

// Run executes cycles at the configured rate. Blocks until Stop is called.
func (l *Loop) Run() {
	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()

	log.Component("loop").Info("control loop started", "rate", l.rate)
	l.tick()

	for {
		select {
		case <-l.stop:
			log.Component("loop").Info("control loop stopped", "cycles", l.Cycles())
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop halts the loop. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Step runs a single cycle on the calling goroutine. It must not be used
// while Run is active.
func (l *Loop) Step() {
	l.tick()
}

// tick executes one control cycle: sense, compute, classify, publish, command.
func (l *Loop) tick() {
	angles := l.body.JointAngles()

	if err := l.engine.Compute(angles); err != nil {
		l.reportError("forward kinematics failed", err)
	}
	transforms := l.engine.Transforms()

	label := PostureUnknown
	if l.posture != nil {
		label = l.posture(angles, transforms)
	}

	l.mu.Lock()
	l.angles = angles
	l.label = label
	l.cycle++
	cycle := l.cycle
	onCycle := l.onCycle
	l.mu.Unlock()

	l.applyPlayback()
	for joint, angle := range l.targets.Drain() {
		if l.engine.Model().HasJoint(joint) {
			l.commanded[joint] = angle
		}
	}
	l.send()

	if onCycle != nil {
		positions := make(map[string]r3.Vector, len(transforms))
		for name, t := range transforms {
			positions[name] = t.Position()
		}
		onCycle(Frame{
			Cycle:     cycle,
			Time:      time.Now(),
			Posture:   label,
			Angles:    angles.Clone(),
			Positions: positions,
		})
	}
}

// applyPlayback commands the installed sequence's angles for this cycle.
// The final frame of each sequence is applied exactly once after it ends.
func (l *Loop) applyPlayback() {
	pb, ok := l.coord.Playback()
	if !ok || pb.Generation == l.finishedGen {
		return
	}

	t := time.Since(pb.Start).Seconds()
	if end := pb.Keyframes.MaxDuration(); t >= end {
		t = end
		l.finishedGen = pb.Generation
	}

	for joint, angle := range pb.Keyframes.Evaluate(t) {
		if l.engine.Model().HasJoint(joint) {
			l.commanded[joint] = angle
		}
	}
}

// send forwards commanded targets that moved beyond the dead zone.
func (l *Loop) send() {
	changed := make(map[string]float64)
	for joint, angle := range l.commanded {
		last, ok := l.lastSent[joint]
		if !ok || math.Abs(angle-last) >= DeadZoneRad {
			changed[joint] = angle
		}
	}
	if len(changed) == 0 {
		return
	}

	if err := l.body.SetTargets(changed); err != nil {
		l.reportError("set targets failed", err)
		return
	}
	for joint, angle := range changed {
		l.lastSent[joint] = angle
	}
}

// reportError logs cycle errors at most once per errorLogInterval.
func (l *Loop) reportError(msg string, err error) {
	l.errorCount++
	if l.lastErrorTime.IsZero() || time.Since(l.lastErrorTime) > errorLogInterval {
		log.Component("loop").Warn(msg, "err", err, "total_errors", l.errorCount)
		l.lastErrorTime = time.Now()
	}
}
