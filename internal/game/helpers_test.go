package game

import (
	"fmt"
	"testing"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/questions"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type pending struct {
	at        time.Time
	fn        func()
	fired     bool
	cancelled bool
}

// manualScheduler fires callbacks only when the test advances time.
type manualScheduler struct {
	clock *fakeClock
	queue []*pending
}

func (s *manualScheduler) After(d time.Duration, fn func()) func() bool {
	p := &pending{at: s.clock.now.Add(d), fn: fn}
	s.queue = append(s.queue, p)
	return func() bool {
		live := !p.fired && !p.cancelled
		p.cancelled = true
		return live
	}
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.clock.now.Add(d)
	for {
		var next *pending
		for _, p := range s.queue {
			if p.fired || p.cancelled || p.at.After(target) {
				continue
			}
			if next == nil || p.at.Before(next.at) {
				next = p
			}
		}
		if next == nil {
			break
		}
		s.clock.now = next.at
		next.fired = true
		next.fn()
	}
	s.clock.now = target
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, p := range s.queue {
		if !p.fired && !p.cancelled {
			n++
		}
	}
	return n
}

type sent struct {
	to string
	ev events.Event
}

const (
	toAll     = "*all"
	toPlayers = "*players"
)

type recorder struct {
	sent        []sent
	disconnects map[string]CloseReason
}

func newRecorder() *recorder {
	return &recorder{disconnects: make(map[string]CloseReason)}
}

func (r *recorder) Broadcast(ev events.Event)           { r.sent = append(r.sent, sent{to: toAll, ev: ev}) }
func (r *recorder) ToPlayers(ev events.Event)           { r.sent = append(r.sent, sent{to: toPlayers, ev: ev}) }
func (r *recorder) ToHost(ev events.Event)              { r.sent = append(r.sent, sent{to: HostID, ev: ev}) }
func (r *recorder) ToPlayer(id string, ev events.Event) { r.sent = append(r.sent, sent{to: id, ev: ev}) }
func (r *recorder) BroadcastExcept(id string, ev events.Event) {
	r.sent = append(r.sent, sent{to: "!" + id, ev: ev})
}
func (r *recorder) Disconnect(id string, reason CloseReason) { r.disconnects[id] = reason }

// received lists what viewer would have been sent, in order.
func (r *recorder) received(viewer string) []events.Event {
	var out []events.Event
	for _, s := range r.sent {
		switch {
		case s.to == toAll,
			s.to == viewer,
			s.to == toPlayers && viewer != HostID,
			len(s.to) > 0 && s.to[0] == '!' && s.to[1:] != viewer:
			out = append(out, s.ev)
		}
	}
	return out
}

func (r *recorder) lastOfType(viewer, typ string) events.Event {
	evs := r.received(viewer)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].EventType() == typ {
			return evs[i]
		}
	}
	return nil
}

func (r *recorder) count(viewer, typ string) int {
	n := 0
	for _, ev := range r.received(viewer) {
		if ev.EventType() == typ {
			n++
		}
	}
	return n
}

type harness struct {
	g     *Game
	clock *fakeClock
	sched *manualScheduler
	out   *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	sched := &manualScheduler{clock: clock}
	out := newRecorder()
	g := New("ABCDEF", DefaultSettings(), clock, sched, out, nil)
	n := 0
	g.newID = func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
	return &harness{g: g, clock: clock, sched: sched, out: out}
}

// join adds and connects a participant.
func (h *harness) join(t *testing.T, name string) string {
	t.Helper()
	p, err := h.g.Join(name)
	require.NoError(t, err)
	require.NoError(t, h.g.Attach(p.ID))
	return p.ID
}

// start begins a game over qs and runs out the countdown.
func (h *harness) start(t *testing.T, limit *time.Duration, qs ...questions.Question) {
	t.Helper()
	cats := []questions.Category{{ID: "test", Name: "Test", Questions: qs}}
	require.NoError(t, h.g.Start(StartRequest{NumQuestions: len(qs), TimeLimit: limit}, cats))
	require.Equal(t, PhaseStarting, h.g.Phase())
	h.sched.Advance(h.g.settings.StartCountdown)
	require.Equal(t, PhaseQuestion, h.g.Phase())
}

func choice(id string, correct int, limit time.Duration) questions.Choice {
	return questions.Choice{
		Base:    questions.Base{ID: id, Category: "test", Prompt: "Pick " + id, Limit: limit},
		Options: []string{"A", "B", "C", "D"},
		Correct: correct,
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }
