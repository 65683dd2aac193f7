package wshub

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Application close codes sent to clients.
const (
	StatusUnauthorized websocket.StatusCode = 4001
	StatusKicked       websocket.StatusCode = 4003
	StatusRoomClosed   websocket.StatusCode = 4004
	StatusReplaced     websocket.StatusCode = 4005
)

const writeTimeout = 10 * time.Second

// Client represents a single WebSocket connection in the hub. ID is a
// participant id, or the host key for the host channel.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	once   sync.Once
	done   chan struct{}
	code   websocket.StatusCode
	reason string
}

func NewClient(id string, conn *websocket.Conn, buffer int) *Client {
	if buffer < 1 {
		buffer = 1
	}
	return &Client{ID: id, Conn: conn, Send: make(chan []byte, buffer), done: make(chan struct{})}
}

// Close asks the write pump to flush what is queued and close the
// connection with code. Only the first call counts.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.code = code
		c.reason = reason
		close(c.done)
	})
}

// Done is closed once Close has been called.
func (c *Client) Done() <-chan struct{} { return c.done }

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.Send:
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-c.done:
			for {
				select {
				case msg := <-c.Send:
					if err := c.write(ctx, msg); err != nil {
						return
					}
				default:
					_ = c.Conn.Close(c.code, c.reason)
					return
				}
			}
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Conn.Write(wctx, websocket.MessageText, msg)
}

// Hub manages per-room WebSocket connections, at most one per id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Attach registers c, closing any earlier connection with the same id.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	prev := h.clients[c.ID]
	h.clients[c.ID] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close(StatusReplaced, "replaced by a newer connection")
	}
}

// Release removes c if it is still the registered connection for its id and
// reports whether the id is now vacant. A connection that was replaced
// leaves its successor in place.
func (h *Hub) Release(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := h.clients[c.ID]
	if !ok {
		return true
	}
	if cur != c {
		return false
	}
	delete(h.clients, c.ID)
	return true
}

func (h *Hub) Has(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues data for one id. Non-blocking: a client whose buffer is full is
// dropped. Reports whether the data was queued.
func (h *Hub) Send(id string, data []byte) bool {
	h.mu.RLock()
	c := h.clients[id]
	h.mu.RUnlock()
	if c == nil {
		return false
	}
	return h.offer(c, data)
}

// Broadcast sends to every client except the listed ids. Non-blocking: drops
// clients whose buffers are full. Returns how many were dropped.
func (h *Hub) Broadcast(data []byte, except ...string) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if !contains(except, id) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if !h.offer(c, data) {
			dropped++
		}
	}
	return dropped
}

func (h *Hub) offer(c *Client, data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		h.log.Warn("dropping slow client", zap.String("client", c.ID))
		h.remove(c)
		c.Close(websocket.StatusPolicyViolation, "too slow")
		return false
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c.ID] == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
}

// Evict closes the connection for id after its queued messages are written.
func (h *Hub) Evict(id string, code websocket.StatusCode, reason string) {
	h.mu.Lock()
	c := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if c != nil {
		c.Close(code, reason)
	}
}

// CloseAll evicts every client.
func (h *Hub) CloseAll(code websocket.StatusCode, reason string) {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
	for _, c := range clients {
		c.Close(code, reason)
	}
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
