package game

import (
	"time"

	"quizroom/internal/events"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Scheduler runs fn once after d on the same goroutine that owns the game.
// The returned stop function cancels a pending run.
type Scheduler interface {
	After(d time.Duration, fn func()) (stop func() bool)
}

// Emitter delivers events. Sends never block; a participant whose channel
// cannot keep up is dropped by the implementation.
type Emitter interface {
	// Broadcast sends to the host and every connected participant.
	Broadcast(ev events.Event)
	// ToPlayers sends to every connected participant but not the host.
	ToPlayers(ev events.Event)
	// BroadcastExcept skips one participant.
	BroadcastExcept(playerID string, ev events.Event)
	ToPlayer(playerID string, ev events.Event)
	ToHost(ev events.Event)
	// Disconnect ends a participant's channel with a terminal notice.
	Disconnect(playerID string, reason CloseReason)
}

type CloseReason string

const (
	CloseKicked     CloseReason = "kicked"
	CloseLeft       CloseReason = "left"
	CloseRoomClosed CloseReason = "room_closed"
)

// timer is a scheduled callback that can be cancelled from the owning
// goroutine. A callback already queued when Stop is called still sees
// stopped and does nothing.
type timer struct {
	stop    func() bool
	stopped bool
}

func (g *Game) after(d time.Duration, fn func()) *timer {
	t := &timer{}
	t.stop = g.sched.After(d, func() {
		if t.stopped {
			return
		}
		t.stopped = true
		fn()
	})
	return t
}

func (t *timer) Stop() {
	if t == nil || t.stopped {
		return
	}
	t.stopped = true
	t.stop()
}
