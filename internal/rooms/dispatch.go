package rooms

import (
	"quizroom/internal/broadcast"
	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/wshub"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// dispatcher delivers game events to the room's channels and mirrors public
// ones to the spectator feed.
type dispatcher struct {
	hub  *wshub.Hub
	feed *broadcast.Broadcaster
	log  *zap.Logger
}

func (d *dispatcher) encode(ev events.Event) []byte {
	data, err := events.Encode(ev)
	if err != nil {
		d.log.Error("encoding event", zap.String("type", ev.EventType()), zap.Error(err))
		return nil
	}
	return data
}

func (d *dispatcher) fanout(ev events.Event, except ...string) {
	data := d.encode(ev)
	if data == nil {
		return
	}
	dropped := d.hub.Broadcast(data, except...)
	dropped += d.feed.Publish(ev.EventType(), data)
	if dropped > 0 {
		metrics.EventsDropped.Add(float64(dropped))
	}
}

func (d *dispatcher) Broadcast(ev events.Event) { d.fanout(ev) }

func (d *dispatcher) ToPlayers(ev events.Event) { d.fanout(ev, game.HostID) }

func (d *dispatcher) BroadcastExcept(playerID string, ev events.Event) { d.fanout(ev, playerID) }

func (d *dispatcher) ToPlayer(playerID string, ev events.Event) { d.send(playerID, ev) }

func (d *dispatcher) ToHost(ev events.Event) { d.send(game.HostID, ev) }

func (d *dispatcher) send(id string, ev events.Event) {
	data := d.encode(ev)
	if data == nil {
		return
	}
	present := d.hub.Has(id)
	if !d.hub.Send(id, data) && present {
		metrics.EventsDropped.Inc()
	}
}

func (d *dispatcher) Disconnect(playerID string, reason game.CloseReason) {
	d.hub.Evict(playerID, closeCode(reason), string(reason))
}

func closeCode(reason game.CloseReason) websocket.StatusCode {
	switch reason {
	case game.CloseKicked:
		return wshub.StatusKicked
	case game.CloseRoomClosed:
		return wshub.StatusRoomClosed
	default:
		return websocket.StatusNormalClosure
	}
}
