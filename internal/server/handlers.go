package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/rooms"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderHostID carries the host identity set by the authentication layer in
// front of this service.
const HeaderHostID = "X-Host-ID"

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrOrdering):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, game.Code(err), err.Error())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return game.Validation("invalid_body", "request body is not valid JSON")
	}
	return nil
}

func hostID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderHostID))
}

// room resolves the {code} path parameter, writing a 404 when it is unknown.
func (s *Server) room(w http.ResponseWriter, r *http.Request) *rooms.Room {
	room := s.Rooms.Get(chi.URLParam(r, "code"))
	if room == nil {
		writeError(w, http.StatusNotFound, "room_not_found", "Room not found")
	}
	return room
}

// hostRoom is room, restricted to the caller that hosts it.
func (s *Server) hostRoom(w http.ResponseWriter, r *http.Request) *rooms.Room {
	room := s.room(w, r)
	if room == nil {
		return nil
	}
	if id := hostID(r); id == "" || id != room.HostID {
		writeError(w, http.StatusUnauthorized, "host_required", "Host authentication required")
		return nil
	}
	return room
}

func teamJSON(t game.Team) events.Team {
	return events.Team{ID: t.ID, Name: t.Name, Color: t.Color}
}

func teamsJSON(ts []game.Team) []events.Team {
	out := make([]events.Team, len(ts))
	for i, t := range ts {
		out[i] = teamJSON(t)
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": s.Rooms.Len()})
}

type categoryInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Bank.Categories(r.Context())
	if err != nil {
		s.fail(w, r, game.Fatal("bank_unavailable", "question bank unavailable: %v", err))
		return
	}
	out := make([]categoryInfo, len(cats))
	for i, c := range cats {
		out[i] = categoryInfo{ID: c.ID, Name: c.Name, Count: len(c.Questions)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	id := hostID(r)
	if id == "" {
		id = uuid.NewString()
	}
	room, existing, err := s.Rooms.StartHosting(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if existing {
		status = http.StatusOK
	} else {
		s.Log.Info("hosting started", zap.String("room", room.Code))
	}
	writeJSON(w, status, map[string]any{
		"room_code": room.Code,
		"host_id":   id,
		"existing":  existing,
	})
}

func (s *Server) handleHostSession(w http.ResponseWriter, r *http.Request) {
	id := hostID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "host_required", "Host authentication required")
		return
	}
	room := s.Rooms.HostRoom(id)
	if room == nil {
		writeJSON(w, http.StatusOK, map[string]any{"has_session": false})
		return
	}
	st, err := room.View(r.Context(), "")
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"has_session": false})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_session":    true,
		"room_code":      room.Code,
		"state":          st.State,
		"player_count":   st.PlayerCount,
		"host_connected": st.HostConnected,
		"players":        st.Players,
	})
}

func (s *Server) handleCloseHostSession(w http.ResponseWriter, r *http.Request) {
	id := hostID(r)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "host_required", "Host authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"closed": s.Rooms.CloseHostSession(id)})
}

func (s *Server) handleRoomState(w http.ResponseWriter, r *http.Request) {
	room := s.room(w, r)
	if room == nil {
		return
	}
	st, err := room.View(r.Context(), "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	room := s.Rooms.Get(chi.URLParam(r, "code"))
	if room == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	st, err := room.View(r.Context(), "")
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":       true,
		"state":        st.State,
		"player_count": st.PlayerCount,
	})
}

func (s *Server) handleCloseRoom(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	s.Rooms.Close(room.Code, rooms.ReasonHostClosed, "The host closed the room")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	room := s.room(w, r)
	if room == nil {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp map[string]any
	err := room.Do(r.Context(), func(g *game.Game) error {
		p, err := g.Join(body.Name)
		if err != nil {
			return err
		}
		resp = map[string]any{
			"player_id":   p.ID,
			"player_name": p.Name,
			"color":       p.Color,
			"room_code":   room.Code,
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	room := s.room(w, r)
	if room == nil {
		return
	}
	var resp map[string]any
	err := room.Do(r.Context(), func(g *game.Game) error {
		board, teamBoard := g.Leaderboard()
		resp = map[string]any{
			"leaderboard":      board,
			"team_leaderboard": teamBoard,
			"team_mode":        g.TeamMode(),
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp map[string]any
	err := room.Do(r.Context(), func(g *game.Game) error {
		if err := g.SetMode(game.Mode(body.Mode)); err != nil {
			return err
		}
		resp = map[string]any{
			"game_mode": g.Mode(),
			"team_mode": g.TeamMode(),
			"teams":     teamsJSON(g.Teams()),
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetTeamMode(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Enabled == nil {
		s.fail(w, r, game.Validation("missing_enabled", "enabled is required"))
		return
	}
	err := room.Do(r.Context(), func(g *game.Game) error {
		return g.SetTeamMode(*body.Enabled)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"team_mode": *body.Enabled})
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var team game.Team
	err := room.Do(r.Context(), func(g *game.Game) error {
		var err error
		team, err = g.CreateTeam(body.Name, body.Color)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"team": teamJSON(team)})
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var team game.Team
	err := room.Do(r.Context(), func(g *game.Game) error {
		var err error
		team, err = g.UpdateTeam(chi.URLParam(r, "teamID"), body.Name, body.Color)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": teamJSON(team)})
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	err := room.Do(r.Context(), func(g *game.Game) error {
		return g.DeleteTeam(chi.URLParam(r, "teamID"))
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignTeam(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		PlayerID string  `json:"player_id"`
		TeamID   *string `json:"team_id"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	teamID := ""
	if body.TeamID != nil {
		teamID = *body.TeamID
	}
	err := room.Do(r.Context(), func(g *game.Game) error {
		return g.AssignTeam(body.PlayerID, teamID)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player_id": body.PlayerID, "team_id": body.TeamID})
}

func (s *Server) handleAutoAssign(w http.ResponseWriter, r *http.Request) {
	room := s.hostRoom(w, r)
	if room == nil {
		return
	}
	var body struct {
		NumTeams int `json:"num_teams"`
	}
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp map[string]any
	err := room.Do(r.Context(), func(g *game.Game) error {
		if err := g.AutoAssign(body.NumTeams); err != nil {
			return err
		}
		assignments := make(map[string]string)
		for _, p := range g.Snapshot("").Players {
			assignments[p.ID] = p.TeamID
		}
		resp = map[string]any{
			"teams":       teamsJSON(g.Teams()),
			"assignments": assignments,
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
