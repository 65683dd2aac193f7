package server

import (
	"context"
	"encoding/json"
	"net/http"

	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/wshub"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const readLimit = 64 << 10

// handler applies one inbound message. Rejections are already reported to
// the sender by the room.
type handler func(ctx context.Context, cmd events.Command) error

// reject sends an error frame and closes a connection that never got
// attached to a room.
func reject(ctx context.Context, conn *websocket.Conn, code websocket.StatusCode, errCode, message string) {
	data, err := events.Encode(events.Error{Code: errCode, Message: message})
	if err == nil {
		_ = wsjson.Write(ctx, conn, json.RawMessage(data))
	}
	_ = conn.Close(code, message)
}

func (s *Server) handleHostWS(w http.ResponseWriter, r *http.Request) {
	room := s.Rooms.Get(chi.URLParam(r, "code"))
	id := hostID(r)
	if id == "" {
		id = r.URL.Query().Get("host")
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Log.Debug("websocket accept failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)
	ctx := r.Context()

	if room == nil {
		reject(ctx, conn, wshub.StatusUnauthorized, "room_not_found", "Room not found")
		return
	}
	if id == "" || id != room.HostID {
		reject(ctx, conn, wshub.StatusUnauthorized, "host_required", "Host authentication required")
		return
	}

	c := wshub.NewClient(game.HostID, conn, s.Rooms.SendBuffer())
	if err := room.AttachHost(ctx, c); err != nil {
		reject(ctx, conn, wshub.StatusRoomClosed, game.Code(err), err.Error())
		return
	}
	log := s.Log.With(zap.String("room", room.Code), zap.String("client", "host"))
	log.Info("host connected")

	s.serve(ctx, c, log, room.HandleHost)
	room.DetachHost(c)
	log.Info("host disconnected")
}

func (s *Server) handlePlayerWS(w http.ResponseWriter, r *http.Request) {
	room := s.Rooms.Get(chi.URLParam(r, "code"))
	playerID := chi.URLParam(r, "playerID")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Log.Debug("websocket accept failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)
	ctx := r.Context()

	if room == nil {
		reject(ctx, conn, wshub.StatusUnauthorized, "room_not_found", "Room not found")
		return
	}
	c := wshub.NewClient(playerID, conn, s.Rooms.SendBuffer())
	if err := room.AttachPlayer(ctx, c); err != nil {
		reject(ctx, conn, wshub.StatusUnauthorized, game.Code(err), "Player not in room")
		return
	}
	log := s.Log.With(zap.String("room", room.Code), zap.String("client", playerID))
	log.Info("player connected")

	s.serve(ctx, c, log, func(ctx context.Context, cmd events.Command) error {
		return room.HandlePlayer(ctx, playerID, cmd)
	})
	room.DetachPlayer(c)
	log.Info("player disconnected")
}

// serve runs the write pump and reads commands until the connection ends.
func (s *Server) serve(ctx context.Context, c *wshub.Client, log *zap.Logger, handle handler) {
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	ctx, cancel := context.WithCancel(ctx)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.WritePump(ctx)
	}()
	defer func() {
		cancel()
		<-pumpDone
		_ = c.Conn.CloseNow()
	}()

	for {
		_, data, err := c.Conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Debug("connection closed by peer")
			case -1:
				log.Debug("connection lost", zap.Error(err))
			default:
				log.Debug("connection closed", zap.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}

		var cmd events.Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type == "" {
			s.sendError(c, "invalid_message", "message must be a JSON object with a type")
			continue
		}
		if err := handle(ctx, cmd); err != nil {
			log.Debug("message rejected", zap.String("type", cmd.Type), zap.String("kind", game.Kind(err)), zap.Error(err))
		}
	}
}

// sendError queues an error for c alone. A full queue drops it.
func (s *Server) sendError(c *wshub.Client, code, message string) {
	data, err := events.Encode(events.Error{Code: code, Message: message})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}
