package motion

import "sync"

// Targets buffers joint-target intents between RPC handlers and the loop.
// Later writes to the same joint replace earlier ones until the next Drain.
type Targets struct {
	mu      sync.Mutex
	pending map[string]float64
}

// NewTargets creates an empty intent buffer.
func NewTargets() *Targets {
	return &Targets{pending: make(map[string]float64)}
}

// Set queues a target angle for one joint.
func (t *Targets) Set(joint string, angle float64) {
	t.mu.Lock()
	t.pending[joint] = angle
	t.mu.Unlock()
}

// SetMany queues several targets atomically.
func (t *Targets) SetMany(targets map[string]float64) {
	t.mu.Lock()
	for joint, angle := range targets {
		t.pending[joint] = angle
	}
	t.mu.Unlock()
}

// Drain returns and clears all pending intents. Returns nil when empty.
func (t *Targets) Drain() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return nil
	}
	out := t.pending
	t.pending = make(map[string]float64, len(out))
	return out
}

// Len returns the number of pending intents.
func (t *Targets) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
