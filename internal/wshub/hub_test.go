package wshub

import (
	"testing"
	"time"
)

func newTestClient(id string, buffer int) *Client {
	return NewClient(id, nil, buffer)
}

func TestAttachAndBroadcast(t *testing.T) {
	h := NewHub(nil)

	c1 := newTestClient("p1", 16)
	c2 := newTestClient("p2", 16)
	c3 := newTestClient("host", 16)

	h.Attach(c1)
	h.Attach(c2)
	h.Attach(c3)

	if dropped := h.Broadcast([]byte(`{"type":"ping"}`), "p1"); dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}

	// c2 and c3 should receive the message, c1 should not
	select {
	case data := <-c2.Send:
		if string(data) != `{"type":"ping"}` {
			t.Fatalf("unexpected message: %s", data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	select {
	case <-c3.Send:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c3 did not receive message")
	}

	select {
	case <-c1.Send:
		t.Fatal("c1 was excluded")
	default:
		// expected
	}
}

func TestAttachReplacesPrevious(t *testing.T) {
	h := NewHub(nil)

	old := newTestClient("p1", 4)
	h.Attach(old)
	fresh := newTestClient("p1", 4)
	h.Attach(fresh)

	select {
	case <-old.Done():
	default:
		t.Fatal("old connection should be closed")
	}
	if old.code != StatusReplaced {
		t.Fatalf("expected close code %d, got %d", StatusReplaced, old.code)
	}

	// the replaced connection going away must not vacate the id
	if h.Release(old) {
		t.Fatal("release of a replaced client should report the id as held")
	}
	if !h.Has("p1") {
		t.Fatal("fresh client should still be registered")
	}
	if !h.Release(fresh) {
		t.Fatal("release of the current client should vacate the id")
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty hub, got %d", h.Len())
	}
}

func TestSendUnknown(t *testing.T) {
	h := NewHub(nil)
	if h.Send("nobody", []byte("x")) {
		t.Fatal("send to unknown id should fail")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub(nil)

	// Channel with capacity 1
	c := newTestClient("p1", 1)
	h.Attach(c)

	// Fill the channel
	c.Send <- []byte("filler")

	// This should not block; the client is dropped instead
	if dropped := h.Broadcast([]byte("next")); dropped != 1 {
		t.Fatalf("expected 1 drop, got %d", dropped)
	}
	if h.Has("p1") {
		t.Fatal("slow client should be removed")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("slow client should be closed")
	}

	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}
}

func TestEvictKeepsQueuedMessages(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient("p1", 4)
	h.Attach(c)

	h.Send("p1", []byte(`{"type":"kicked"}`))
	h.Evict("p1", StatusKicked, "kicked")

	if h.Has("p1") {
		t.Fatal("evicted client should be removed")
	}
	if c.code != StatusKicked {
		t.Fatalf("expected close code %d, got %d", StatusKicked, c.code)
	}
	if len(c.Send) != 1 {
		t.Fatalf("queued message should remain for the write pump, got %d", len(c.Send))
	}
}

func TestCloseAll(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", 1)
	b := newTestClient("b", 1)
	h.Attach(a)
	h.Attach(b)

	h.CloseAll(StatusRoomClosed, "room closed")
	if h.Len() != 0 {
		t.Fatalf("expected empty hub, got %d", h.Len())
	}
	for _, c := range []*Client{a, b} {
		if c.code != StatusRoomClosed {
			t.Fatalf("client %s: expected %d, got %d", c.ID, StatusRoomClosed, c.code)
		}
	}
}
