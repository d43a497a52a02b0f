package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-nao/internal/log"
)

// broadcastBuffer is the number of messages queued before Broadcast drops.
const broadcastBuffer = 256

// Hub maintains the set of subscribers and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	count   atomic.Int64
	dropped atomic.Uint64
	running atomic.Bool
}

// New creates a hub. Call Run to start it.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.Component("hub").With("hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set until Stop. Call it in a goroutine.
func (h *Hub) Run() {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logger.Info("subscriber connected", "total", len(h.clients))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("subscriber disconnected", "remaining", len(h.clients))

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					h.remove(client)
					h.logger.Warn("dropped slow subscriber")
				}
			}

		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

// remove closes a client's queue once. Only called from Run.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
}

// Stop disconnects every subscriber and ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues msg for every subscriber. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		if h.dropped.Add(1) == 1 {
			h.logger.Warn("broadcast queue full, dropping messages")
		}
	}
}

// BroadcastJSON encodes v and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewTextMessage(data))
	return nil
}

// ClientCount returns the number of subscribers.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns the number of broadcasts dropped on a full queue.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
