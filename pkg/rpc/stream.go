package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/motion"
)

// WatchTransforms subscribes to a server's transform stream at url
// (for example "ws://localhost:8000/ws/transforms") and calls fn for every
// frame until ctx is done or the connection drops.
func WatchTransforms(ctx context.Context, url string, fn func(motion.Frame)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrTransport, url, err)
	}
	defer conn.Close()

	logger := log.Component("rpc-stream")
	logger.Info("transform stream connected", "url", url)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return fmt.Errorf("%w: read stream: %w", ErrTransport, err)
		}

		var frame motion.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warn("skipping unreadable frame", "err", err)
			continue
		}
		fn(frame)
	}
}
