// Package hub fans websocket messages out to many subscribers.
//
// A Hub owns the subscriber set on one goroutine; each Client has its own
// write pump so a slow subscriber never blocks the broadcaster.
package hub

// Message is one text payload queued for every subscriber.
type Message struct {
	Data []byte
}

// NewTextMessage wraps pre-encoded text, usually JSON.
func NewTextMessage(data []byte) Message {
	return Message{Data: data}
}
