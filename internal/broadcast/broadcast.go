// Package broadcast fans public room events out to Server-Sent Events
// subscribers such as a projector scoreboard.
package broadcast

import "sync"

const subscriberBuffer = 16

// Message is one SSE frame: Event names it, Data is the JSON payload.
type Message struct {
	Event string
	Data  []byte
}

type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan Message]bool
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Message]bool),
	}
}

// Subscribe returns a channel of messages. After Close it returns a channel
// that is already closed.
func (b *Broadcaster) Subscribe() chan Message {
	ch := make(chan Message, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = true
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[ch] {
		delete(b.clients, ch)
		close(ch)
	}
}

// Publish delivers to every subscriber with room in its buffer and returns
// how many were skipped.
func (b *Broadcaster) Publish(event string, data []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	skipped := 0
	for ch := range b.clients {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			// skip clients with full data channels
			skipped++
		}
	}
	return skipped
}

func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	b.clients = make(map[chan Message]bool)
}
