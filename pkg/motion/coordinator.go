package motion

import (
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/keyframes"
)

// State is the coordinator's execution state.
type State int

const (
	// StateIdle means no sequence is executing.
	StateIdle State = iota

	// StateRunning means an Execute call is blocked on a sequence.
	StateRunning
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Playback is the installed sequence as seen by the control loop.
type Playback struct {
	Keyframes  keyframes.Keyframes
	Start      time.Time
	Duration   time.Duration
	Generation uint64
}

// Coordinator installs keyframe sequences and blocks their callers until the
// sequence duration has elapsed. It never applies angles itself; the Loop
// reads Playback every cycle.
//
// There is no cancellation: once Execute starts it returns only after the
// duration elapses.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	current Playback
	gen     uint64
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Execute installs kf and blocks until the elapsed time first exceeds its
// maximum timestamp. A sequence without timestamps returns immediately.
// A newer call replaces the installed sequence; each call still blocks for
// its own duration.
func (c *Coordinator) Execute(kf keyframes.Keyframes) {
	duration := kf.Duration()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	start := time.Now()
	c.current = Playback{
		Keyframes:  kf,
		Start:      start,
		Duration:   duration,
		Generation: gen,
	}
	c.state = StateRunning
	c.mu.Unlock()

	log.Component("coordinator").Debug("keyframes installed",
		"generation", gen, "joints", len(kf.Names), "duration", duration)

	waitElapsed(start, duration)

	c.mu.Lock()
	if c.gen == gen {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// waitElapsed blocks until time.Since(start) > d.
func waitElapsed(start time.Time, d time.Duration) {
	for {
		remaining := d - time.Since(start)
		if remaining < 0 {
			return
		}
		timer := time.NewTimer(timerDelay(remaining))
		<-timer.C
	}
}

// timerDelay pads remaining by a microsecond without overflowing.
func timerDelay(remaining time.Duration) time.Duration {
	if remaining > math.MaxInt64-time.Microsecond {
		return remaining
	}
	return remaining + time.Microsecond
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Playback returns the most recently installed sequence.
// ok is false until the first Execute.
func (c *Coordinator) Playback() (pb Playback, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.gen > 0
}
