package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/kinematics"
)

// Default non-blocking dispatch pool size.
const (
	DefaultPostWorkers = 4
	DefaultPostQueue   = 64
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	postWorkers int
	postQueue   int
}

// WithPostPool sets the worker count and queue length of the Post pool.
func WithPostPool(workers, queue int) Option {
	return func(o *clientOptions) {
		if workers > 0 {
			o.postWorkers = workers
		}
		if queue >= 0 {
			o.postQueue = queue
		}
	}
}

// Client issues catalogue calls over a single Channel for its lifetime.
// Transport failures are logged and returned wrapped in ErrTransport;
// remote failures are returned as *Error. Nothing is retried.
type Client struct {
	ch     Channel
	post   *Post
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Dial creates a client for the server at baseURL using an HTTPChannel.
func Dial(baseURL string, opts ...Option) *Client {
	return NewClient(NewHTTPChannel(baseURL), opts...)
}

// NewClient creates a client that owns ch.
func NewClient(ch Channel, opts ...Option) *Client {
	o := clientOptions{postWorkers: DefaultPostWorkers, postQueue: DefaultPostQueue}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		ch:     ch,
		logger: log.Component("rpc-client"),
	}
	c.post = newPost(c, o.postWorkers, o.postQueue)
	runtime.AddCleanup(c, releaseCollected, collectedRefs{post: c.post, ch: ch})
	return c
}

// collectedRefs is what a collected client leaves behind to release.
type collectedRefs struct {
	post *Post
	ch   Channel
}

func releaseCollected(r collectedRefs) {
	r.post.shutdown()
	_ = r.ch.Close()
}

// Post returns the non-blocking view of the client. The Post does not keep
// the client alive.
func (c *Client) Post() *Post {
	return c.post
}

// Close stops the Post pool, waits for its workers and closes the channel.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.post.shutdown()
		c.post.wait()
		c.closeErr = c.ch.Close()
	})
	return c.closeErr
}

// call performs one request and decodes its result into result.
func (c *Client) call(ctx context.Context, method Method, result any, params ...any) error {
	req, err := NewRequest(method, params...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	resp, err := c.ch.Call(ctx, req)
	if err != nil {
		c.logger.Warn("rpc call failed", "method", method, "id", req.ID, "err", err)
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}

	if err := resp.ParseResult(result); err != nil {
		if errors.Is(err, ErrTransport) {
			c.logger.Warn("rpc response unreadable", "method", method, "id", req.ID, "err", err)
		}
		return err
	}
	return nil
}

// GetAngle returns the current angle of joint in radians.
func (c *Client) GetAngle(ctx context.Context, joint string) (float64, error) {
	var angle float64
	if err := c.call(ctx, MethodGetAngle, &angle, joint); err != nil {
		return 0, err
	}
	return angle, nil
}

// SetAngle sets the target angle of joint. The joint reaches it on a later
// control cycle.
func (c *Client) SetAngle(ctx context.Context, joint string, angle float64) error {
	return c.call(ctx, MethodSetAngle, nil, joint, angle)
}

// GetPosture returns the current posture label.
func (c *Client) GetPosture(ctx context.Context) (string, error) {
	var posture string
	if err := c.call(ctx, MethodGetPosture, &posture); err != nil {
		return "", err
	}
	return posture, nil
}

// ExecuteKeyframes plays kf on the server and returns after it completes.
func (c *Client) ExecuteKeyframes(ctx context.Context, kf keyframes.Keyframes) error {
	return c.call(ctx, MethodExecuteKeyframes, nil, kf)
}

// GetTransform returns the torso-frame transform of a chain joint.
func (c *Client) GetTransform(ctx context.Context, name string) (kinematics.Transform, error) {
	var text string
	if err := c.call(ctx, MethodGetTransform, &text, name); err != nil {
		return kinematics.Transform{}, err
	}
	t, err := kinematics.Decode(text)
	if err != nil {
		c.logger.Warn("transform payload unreadable", "name", name, "err", err)
		return kinematics.Transform{}, err
	}
	return t, nil
}

// SetTransform requests that effector reach target.
func (c *Client) SetTransform(ctx context.Context, effector string, target kinematics.Transform) error {
	text, err := kinematics.Encode(target)
	if err != nil {
		return err
	}
	return c.call(ctx, MethodSetTransform, nil, effector, text)
}
