package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizroom/internal/game"
	"quizroom/internal/questions"
	"quizroom/internal/rooms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store := rooms.NewStore(rooms.Options{
		Settings: game.Settings{
			StartCountdown:    10 * time.Millisecond,
			DefaultTimeLimit:  5 * time.Second,
			BowlAnswerTimeout: 5 * time.Second,
			MinigameDuration:  5 * time.Second,
		},
		HostGrace:  time.Minute,
		IdleTTL:    time.Hour,
		SendBuffer: 64,
		Bank:       questions.Default(),
	})
	srv := &Server{Rooms: store, Bank: questions.Default(), Log: zap.NewNop()}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		store.CloseAll(rooms.ReasonShutdown, "test over")
		ts.Close()
	})
	return srv, ts
}

// call sends a JSON request and decodes a JSON response into out when given.
func call(t *testing.T, method, url, hostID string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if hostID != "" {
		req.Header.Set(HeaderHostID, hostID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createRoom(t *testing.T, baseURL, hostID string) string {
	t.Helper()
	var got struct {
		RoomCode string `json:"room_code"`
	}
	resp := call(t, http.MethodPost, baseURL+"/api/rooms", hostID, nil, &got)
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, resp.StatusCode)
	return got.RoomCode
}

func joinRoom(t *testing.T, baseURL, code, name string) string {
	t.Helper()
	var got struct {
		PlayerID string `json:"player_id"`
	}
	resp := call(t, http.MethodPost, baseURL+"/api/rooms/"+code+"/join", "", map[string]string{"name": name}, &got)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return got.PlayerID
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	var got map[string]any
	resp := call(t, http.MethodGet, ts.URL+"/healthz", "", nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", got["status"])
}

func TestHandleMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	createRoom(t, ts.URL, "host-1")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "quizroom_rooms_created_total")
}

func TestHandleCategories(t *testing.T) {
	_, ts := newTestServer(t)

	var got struct {
		Categories []categoryInfo `json:"categories"`
	}
	resp := call(t, http.MethodGet, ts.URL+"/api/categories", "", nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, got.Categories)
	assert.Equal(t, "general", got.Categories[0].ID)
	assert.Equal(t, 3, got.Categories[0].Count)
}

func TestHandleCreateRoom(t *testing.T) {
	_, ts := newTestServer(t)

	var first struct {
		RoomCode string `json:"room_code"`
		HostID   string `json:"host_id"`
		Existing bool   `json:"existing"`
	}
	resp := call(t, http.MethodPost, ts.URL+"/api/rooms", "host-1", nil, &first)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, first.RoomCode, 4)
	assert.Equal(t, "host-1", first.HostID)
	assert.False(t, first.Existing)

	var again struct {
		RoomCode string `json:"room_code"`
		Existing bool   `json:"existing"`
	}
	resp = call(t, http.MethodPost, ts.URL+"/api/rooms", "host-1", nil, &again)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, again.Existing)
	assert.Equal(t, first.RoomCode, again.RoomCode)
}

func TestHandleCreateRoom_IssuesHostID(t *testing.T) {
	_, ts := newTestServer(t)

	var got struct {
		HostID string `json:"host_id"`
	}
	call(t, http.MethodPost, ts.URL+"/api/rooms", "", nil, &got)
	assert.NotEmpty(t, got.HostID)
}

func TestHandleJoin(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	id := joinRoom(t, ts.URL, strings.ToLower(code), "  Ann  ")
	assert.NotEmpty(t, id)

	var st struct {
		State   string `json:"state"`
		Players []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"players"`
	}
	resp := call(t, http.MethodGet, ts.URL+"/api/rooms/"+code, "", nil, &st)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lobby", st.State)
	require.Len(t, st.Players, 1)
	assert.Equal(t, "Ann", st.Players[0].Name)
	assert.Equal(t, id, st.Players[0].ID)
}

func TestHandleJoin_Errors(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	var body errorBody
	resp := call(t, http.MethodPost, ts.URL+"/api/rooms/"+code+"/join", "", map[string]string{"name": "   "}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "name_required", body.Error)

	resp = call(t, http.MethodPost, ts.URL+"/api/rooms/ZZZZ/join", "", map[string]string{"name": "Ann"}, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "room_not_found", body.Error)
}

func TestHandleRoomExists(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	var got map[string]any
	call(t, http.MethodGet, ts.URL+"/api/rooms/"+code+"/exists", "", nil, &got)
	assert.Equal(t, true, got["exists"])
	assert.Equal(t, "lobby", got["state"])

	got = nil
	call(t, http.MethodGet, ts.URL+"/api/rooms/QQQQ/exists", "", nil, &got)
	assert.Equal(t, false, got["exists"])
}

func TestHandleCloseRoom(t *testing.T) {
	srv, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	resp := call(t, http.MethodDelete, ts.URL+"/api/rooms/"+code, "someone-else", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, http.MethodDelete, ts.URL+"/api/rooms/"+code, "host-1", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, srv.Rooms.Get(code))
}

func TestHandleHostSession(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, http.MethodGet, ts.URL+"/api/host/session", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var none map[string]any
	call(t, http.MethodGet, ts.URL+"/api/host/session", "host-1", nil, &none)
	assert.Equal(t, false, none["has_session"])

	code := createRoom(t, ts.URL, "host-1")
	joinRoom(t, ts.URL, code, "Ann")

	var session struct {
		HasSession  bool   `json:"has_session"`
		RoomCode    string `json:"room_code"`
		State       string `json:"state"`
		PlayerCount int    `json:"player_count"`
	}
	call(t, http.MethodGet, ts.URL+"/api/host/session", "host-1", nil, &session)
	assert.True(t, session.HasSession)
	assert.Equal(t, code, session.RoomCode)
	assert.Equal(t, "lobby", session.State)
	assert.Equal(t, 1, session.PlayerCount)

	var closed map[string]bool
	call(t, http.MethodPost, ts.URL+"/api/host/session/close", "host-1", nil, &closed)
	assert.True(t, closed["closed"])

	none = nil
	call(t, http.MethodGet, ts.URL+"/api/host/session", "host-1", nil, &none)
	assert.Equal(t, false, none["has_session"])
}

func TestHandleTeams(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")
	ann := joinRoom(t, ts.URL, code, "Ann")
	base := ts.URL + "/api/rooms/" + code

	resp := call(t, http.MethodPost, base+"/teams", "", map[string]string{"name": "Owls"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var created struct {
		Team struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Color string `json:"color"`
		} `json:"team"`
	}
	resp = call(t, http.MethodPost, base+"/teams", "host-1", map[string]string{"name": "Owls"}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Owls", created.Team.Name)
	assert.NotEmpty(t, created.Team.Color)

	var dup errorBody
	resp = call(t, http.MethodPost, base+"/teams", "host-1", map[string]string{"name": "owls"}, &dup)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, http.MethodPost, base+"/teams/assign", "host-1",
		map[string]any{"player_id": ann, "team_id": created.Team.ID}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Team struct {
			Name string `json:"name"`
		} `json:"team"`
	}
	resp = call(t, http.MethodPut, base+"/teams/"+created.Team.ID, "host-1", map[string]string{"name": "Night Owls"}, &updated)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Night Owls", updated.Team.Name)

	var st struct {
		TeamMode bool `json:"team_mode"`
		Players  []struct {
			TeamID string `json:"team_id"`
		} `json:"players"`
	}
	call(t, http.MethodGet, base, "", nil, &st)
	assert.True(t, st.TeamMode)
	require.Len(t, st.Players, 1)
	assert.Equal(t, created.Team.ID, st.Players[0].TeamID)

	resp = call(t, http.MethodDelete, base+"/teams/"+created.Team.ID, "host-1", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, http.MethodDelete, base+"/teams/"+created.Team.ID, "host-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleAutoAssignAndMode(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")
	for _, name := range []string{"Ann", "Bob", "Cat", "Dan"} {
		joinRoom(t, ts.URL, code, name)
	}
	base := ts.URL + "/api/rooms/" + code

	var auto struct {
		Teams       []map[string]any  `json:"teams"`
		Assignments map[string]string `json:"assignments"`
	}
	resp := call(t, http.MethodPost, base+"/teams/auto-assign", "host-1", map[string]int{"num_teams": 2}, &auto)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, auto.Teams, 2)
	assert.Len(t, auto.Assignments, 4)
	for _, teamID := range auto.Assignments {
		assert.NotEmpty(t, teamID)
	}

	var mode map[string]any
	resp = call(t, http.MethodPost, base+"/mode", "host-1", map[string]string{"mode": "bowl"}, &mode)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bowl", mode["game_mode"])
	assert.Equal(t, true, mode["team_mode"])

	var bad errorBody
	resp = call(t, http.MethodPost, base+"/mode", "host-1", map[string]string{"mode": "speedrun"}, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, http.MethodPost, base+"/team-mode", "host-1", map[string]any{}, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_enabled", bad.Error)
}

func TestHandleLeaderboard(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")
	joinRoom(t, ts.URL, code, "Ann")

	var got struct {
		Leaderboard []struct {
			Rank  int    `json:"rank"`
			Name  string `json:"name"`
			Score int    `json:"score"`
		} `json:"leaderboard"`
	}
	resp := call(t, http.MethodGet, ts.URL+"/api/rooms/"+code+"/leaderboard", "", nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Leaderboard, 1)
	assert.Equal(t, "Ann", got.Leaderboard[0].Name)
	assert.Equal(t, 0, got.Leaderboard[0].Score)
}

func TestHandleQR(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	resp, err := http.Get(ts.URL + "/api/rooms/" + code + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestJoinURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://quiz.example/api/rooms/ABCD/qr", nil)
	assert.Equal(t, "http://quiz.example/join/ABCD", joinURL(r, "ABCD"))

	r.Header.Set("X-Forwarded-Proto", "https, http")
	assert.Equal(t, "https://quiz.example/join/ABCD", joinURL(r, "ABCD"))
}

func TestHandleFeed(t *testing.T) {
	_, ts := newTestServer(t)
	code := createRoom(t, ts.URL, "host-1")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/rooms/"+code+"/feed", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		for lines.Scan() {
			if name, ok := strings.CutPrefix(lines.Text(), "event: "); ok {
				return name
			}
		}
		return ""
	}

	assert.Equal(t, "room_state", nextEvent())
	joinRoom(t, ts.URL, code, "Ann")
	assert.Equal(t, "player_joined", nextEvent())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{game.Validation("x", "bad"), http.StatusBadRequest},
		{game.NotFound("x", "missing"), http.StatusNotFound},
		{game.Fatal("x", "boom"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
