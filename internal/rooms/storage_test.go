package rooms

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizroom/internal/game"
	"quizroom/internal/questions"
)

func testOptions() Options {
	return Options{
		Settings: game.Settings{
			StartCountdown:    10 * time.Millisecond,
			DefaultTimeLimit:  time.Second,
			BowlAnswerTimeout: time.Second,
			MinigameDuration:  time.Second,
		},
		HostGrace:  50 * time.Millisecond,
		IdleTTL:    time.Hour,
		SendBuffer: 64,
		Bank:       questions.Default(),
	}
}

func waitClosed(t *testing.T, r *Room) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("room %s did not close", r.Code)
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore(testOptions())
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if len(s.List()) != 0 {
		t.Error("new store should have no rooms")
	}
}

func TestStore_StartHosting(t *testing.T) {
	s := NewStore(testOptions())
	room, existing, err := s.StartHosting("host-1")
	if err != nil {
		t.Fatal(err)
	}
	if existing {
		t.Error("first request should create a room")
	}
	if room.Code == "" {
		t.Error("room code should not be empty")
	}
	if room.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", room.HostID, "host-1")
	}

	again, existing, err := s.StartHosting("host-1")
	if err != nil {
		t.Fatal(err)
	}
	if !existing || again != room {
		t.Error("second request should return the live room")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore(testOptions())
	room, _ := s.Create("host-1")

	got := s.Get(room.Code)
	if got == nil {
		t.Fatal("Get() returned nil for existing room")
	}
	if s.Get(" "+strings.ToLower(room.Code)+" ") != room {
		t.Error("Get() should accept lower case and stray spaces")
	}

	got = s.Get("ZZZZ9")
	if got != nil {
		t.Error("Get() should return nil for nonexistent room")
	}
}

func TestStore_Close(t *testing.T) {
	s := NewStore(testOptions())
	room, _ := s.Create("host-1")

	if !s.Close(room.Code, ReasonHostClosed, "bye") {
		t.Fatal("Close() should report the room existed")
	}
	if s.Get(room.Code) != nil {
		t.Error("room should be removed")
	}
	if s.HostRoom("host-1") != nil {
		t.Error("host session should be gone")
	}
	waitClosed(t, room)

	if s.Close(room.Code, ReasonHostClosed, "bye") {
		t.Error("closing twice should report false")
	}
}

func TestStore_CloseHostSession(t *testing.T) {
	s := NewStore(testOptions())
	room, _, _ := s.StartHosting("host-1")

	if s.CloseHostSession("nobody") {
		t.Error("unknown host has no session")
	}
	if !s.CloseHostSession("host-1") {
		t.Fatal("expected the host's room to close")
	}
	waitClosed(t, room)

	fresh, existing, _ := s.StartHosting("host-1")
	if existing || fresh == room {
		t.Error("a closed room must not be returned to its host")
	}
}

func TestStore_List(t *testing.T) {
	s := NewStore(testOptions())
	s.Create("host-1")
	s.Create("host-2")

	list := s.List()
	if len(list) != 2 {
		t.Errorf("List() returned %d rooms, want 2", len(list))
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(testOptions())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.StartHosting(fmt.Sprintf("host-%d", i))
		}(i)
	}
	wg.Wait()

	list := s.List()
	if len(list) != 50 {
		t.Errorf("concurrent creates: got %d rooms, want 50", len(list))
	}
}

func TestStore_SweepClosesIdleRooms(t *testing.T) {
	s := NewStore(testOptions())
	room, _ := s.Create("host-1")

	if n := s.Sweep(time.Now()); n != 0 {
		t.Errorf("fresh room swept: %d", n)
	}
	if n := s.Sweep(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Fatalf("Sweep() closed %d rooms, want 1", n)
	}
	waitClosed(t, room)
	if s.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", s.Len())
	}
}
