package broadcast

import (
	"testing"
	"time"
)

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}
	if b.Len() != 1 {
		t.Errorf("clients count = %d, want 1", b.Len())
	}

	b.Unsubscribe(ch)
	if b.Len() != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", b.Len())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	// a second unsubscribe must not panic
	b.Unsubscribe(ch)
}

func TestBroadcaster_Publish(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Publish("reveal", []byte(`{"type":"reveal"}`))

	for i, ch := range []chan Message{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Event != "reveal" || string(msg.Data) != `{"type":"reveal"}` {
				t.Errorf("ch%d got %+v", i+1, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	b := NewBroadcaster()

	ch := b.Subscribe()

	// Fill the channel buffer
	for i := 0; i < subscriberBuffer; i++ {
		b.Publish("fill", nil)
	}

	// This should not block even though channel is full
	done := make(chan int)
	go func() {
		done <- b.Publish("overflow", nil)
	}()

	select {
	case skipped := <-done:
		if skipped != 1 {
			t.Errorf("skipped = %d, want 1", skipped)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Publish blocked on full channel")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()

	b.Close()
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}

	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should yield a closed channel")
	}
	b.Close()
}
