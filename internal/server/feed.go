package server

import (
	"fmt"
	"net/http"

	"quizroom/internal/broadcast"
	"quizroom/internal/events"
)

func writeEvent(w http.ResponseWriter, msg broadcast.Message) {
	fmt.Fprintf(w, "event: %s\n", msg.Event)
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// handleFeed streams the room's public events as Server-Sent Events,
// starting with a public snapshot.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	room := s.room(w, r)
	if room == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "Streaming unsupported")
		return
	}

	msgChan := room.Feed().Subscribe()
	defer room.Feed().Unsubscribe(msgChan)

	st, err := room.View(r.Context(), "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := events.Encode(st)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	writeEvent(w, broadcast.Message{Event: st.EventType(), Data: data})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}
