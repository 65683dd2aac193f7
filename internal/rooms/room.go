package rooms

import (
	"context"
	"sync/atomic"
	"time"

	"quizroom/internal/broadcast"
	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/questions"
	"quizroom/internal/wshub"

	"go.uber.org/zap"
)

const inboxSize = 256

// Close reasons reported in room_closed and the rooms_closed metric.
const (
	ReasonHostClosed  = "host_closed"
	ReasonHostTimeout = "host_timeout"
	ReasonInactivity  = "inactivity"
	ReasonShutdown    = "shutdown"
	ReasonInternal    = "internal_error"
)

var errRoomClosed = game.NotFound("room_not_found", "room not found")

// Room owns one game and serializes every change to it on a single
// goroutine. Other goroutines reach the game only through Do.
type Room struct {
	Code      string
	HostID    string
	CreatedAt time.Time

	game      *game.Game
	hub       *wshub.Hub
	feed      *broadcast.Broadcaster
	bank      questions.Bank
	settings  game.Settings
	hostGrace time.Duration
	log       *zap.Logger

	inbox      chan func()
	done       chan struct{}
	lastActive atomic.Int64
	onClose    func(*Room)

	// actor-owned
	graceStop func() bool
	graceGen  int
}

func newRoom(code, hostID string, opts Options, onClose func(*Room)) *Room {
	log := opts.Log.With(zap.String("room", code))
	r := &Room{
		Code:      code,
		HostID:    hostID,
		CreatedAt: time.Now(),
		hub:       wshub.NewHub(log.With(zap.String("component", "wshub"))),
		feed:      broadcast.NewBroadcaster(),
		bank:      opts.Bank,
		settings:  opts.Settings,
		hostGrace: opts.HostGrace,
		log:       log,
		inbox:     make(chan func(), inboxSize),
		done:      make(chan struct{}),
		onClose:   onClose,
	}
	out := &dispatcher{hub: r.hub, feed: r.feed, log: log}
	r.game = game.New(code, opts.Settings, game.SystemClock, r, out, log)
	r.touch()
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case fn := <-r.inbox:
			r.exec(fn)
		case <-r.done:
			return
		}
	}
}

func (r *Room) exec(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("room actor panic", zap.Any("panic", p), zap.Stack("stack"))
			r.shutdown(ReasonInternal, "The room hit an internal error")
		}
	}()
	fn()
}

// post queues fn for the actor. It reports false once the room is closed.
func (r *Room) post(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

// After implements game.Scheduler: fn runs on the actor after d.
func (r *Room) After(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { r.post(fn) })
	return t.Stop
}

// Do runs fn on the actor and waits for its result. Every call counts as
// activity for the idle sweep.
func (r *Room) Do(ctx context.Context, fn func(g *game.Game) error) error {
	r.touch()
	errc := make(chan error, 1)
	job := func() {
		if r.game.Closed() {
			errc <- errRoomClosed
			return
		}
		errc <- fn(r.game)
	}
	select {
	case r.inbox <- job:
	case <-r.done:
		return errRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-r.done:
		select {
		case err := <-errc:
			return err
		default:
			return errRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// LastActive is the time of the last inbound message or request.
func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) Feed() *broadcast.Broadcaster { return r.feed }

// Connected reports whether id currently holds a live channel.
func (r *Room) Connected(id string) bool { return r.hub.Has(id) }

// Close shuts the room down asynchronously.
func (r *Room) Close(reason, message string) {
	r.post(func() { r.shutdown(reason, message) })
}

// shutdown runs on the actor.
func (r *Room) shutdown(reason, message string) {
	select {
	case <-r.done:
		return
	default:
	}
	r.stopGrace()
	r.closeGame(reason, message)
	r.hub.CloseAll(wshub.StatusRoomClosed, reason)
	r.feed.Close()
	if r.onClose != nil {
		r.onClose(r)
	}
	close(r.done)

	metrics.RoomsClosed.WithLabelValues(reason).Inc()
	r.log.Info("room shut down", zap.String("reason", reason))
}

func (r *Room) closeGame(reason, message string) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("closing game", zap.Any("panic", p))
		}
	}()
	r.game.Close(reason, message)
}

func (r *Room) startGrace() {
	r.stopGrace()
	if r.hostGrace <= 0 {
		return
	}
	gen := r.graceGen
	r.graceStop = r.After(r.hostGrace, func() {
		if gen != r.graceGen {
			return
		}
		r.graceStop = nil
		r.log.Info("host grace period expired")
		r.shutdown(ReasonHostTimeout, "The host did not return")
	})
}

func (r *Room) stopGrace() {
	r.graceGen++
	if r.graceStop != nil {
		r.graceStop()
		r.graceStop = nil
	}
}

// AttachPlayer registers a participant's channel and sends them a snapshot.
func (r *Room) AttachPlayer(ctx context.Context, c *wshub.Client) error {
	return r.Do(ctx, func(g *game.Game) error {
		if g.Participant(c.ID) == nil {
			return game.NotFound("unknown_player", "player not found")
		}
		r.hub.Attach(c)
		return g.Attach(c.ID)
	})
}

// DetachPlayer marks the participant offline unless a newer channel has
// already replaced c.
func (r *Room) DetachPlayer(c *wshub.Client) {
	r.post(func() {
		if r.hub.Release(c) {
			r.game.Detach(c.ID)
		}
	})
}

func (r *Room) AttachHost(ctx context.Context, c *wshub.Client) error {
	return r.Do(ctx, func(g *game.Game) error {
		r.hub.Attach(c)
		r.stopGrace()
		g.HostAttach()
		return nil
	})
}

// DetachHost starts the host grace period. Round timers keep running.
func (r *Room) DetachHost(c *wshub.Client) {
	r.post(func() {
		if r.game.Closed() || !r.hub.Release(c) {
			return
		}
		r.game.HostDetach()
		r.startGrace()
	})
}

// View returns a snapshot as seen by viewer.
func (r *Room) View(ctx context.Context, viewer string) (events.RoomState, error) {
	var st events.RoomState
	err := r.Do(ctx, func(g *game.Game) error {
		st = g.Snapshot(viewer)
		return nil
	})
	return st, err
}

// reply reports a rejected request to the participant who sent it.
func (r *Room) reply(id string, err error) {
	data, encErr := events.Encode(events.Error{Code: game.Code(err), Message: err.Error()})
	if encErr != nil {
		return
	}
	r.hub.Send(id, data)
	r.log.Debug("request rejected", zap.String("client", id), zap.String("kind", game.Kind(err)), zap.Error(err))
}
