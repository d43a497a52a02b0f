package rpc

import (
	"context"
	"log/slog"
	"sync"
	"weak"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/kinematics"
)

// postTask is one queued call. It receives the client only while it runs.
type postTask struct {
	method Method
	run    func(ctx context.Context, c *Client) error
}

// Post dispatches calls without waiting for them. Calls are queued to a
// bounded worker pool and return at once; their outcome is only logged.
//
// A Post holds its client weakly. Once the client is collected every call
// returns ErrClientGone, and the pool is shut down by a runtime cleanup.
type Post struct {
	client weak.Pointer[Client]
	tasks  chan postTask
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newPost(c *Client, workers, queue int) *Post {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Post{
		client: weak.Make(c),
		tasks:  make(chan postTask, queue),
		ctx:    ctx,
		cancel: cancel,
		logger: log.Component("rpc-post"),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Post) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.runTask(task)
	}
}

// runTask resolves the client for the duration of one call only.
func (p *Post) runTask(task postTask) {
	c := p.client.Value()
	if c == nil {
		p.logger.Debug("client collected, dropping call", "method", task.method)
		return
	}
	if err := task.run(p.ctx, c); err != nil {
		p.logger.Warn("posted call failed", "method", task.method, "err", err)
	}
}

// submit queues a task without blocking.
func (p *Post) submit(task postTask) error {
	if p.client.Value() == nil {
		return ErrClientGone
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPostClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPostQueueFull
	}
}

// shutdown stops accepting calls and cancels the ones in flight.
func (p *Post) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
	p.cancel()
}

func (p *Post) wait() {
	p.wg.Wait()
}

// SetAngle queues set_angle.
func (p *Post) SetAngle(joint string, angle float64) error {
	return p.submit(postTask{
		method: MethodSetAngle,
		run: func(ctx context.Context, c *Client) error {
			return c.SetAngle(ctx, joint, angle)
		},
	})
}

// ExecuteKeyframes queues execute_keyframes and returns before the motion
// starts.
func (p *Post) ExecuteKeyframes(kf keyframes.Keyframes) error {
	return p.submit(postTask{
		method: MethodExecuteKeyframes,
		run: func(ctx context.Context, c *Client) error {
			return c.ExecuteKeyframes(ctx, kf)
		},
	})
}

// SetTransform queues set_transform.
func (p *Post) SetTransform(effector string, target kinematics.Transform) error {
	return p.submit(postTask{
		method: MethodSetTransform,
		run: func(ctx context.Context, c *Client) error {
			return c.SetTransform(ctx, effector, target)
		},
	})
}
