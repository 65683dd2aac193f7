package rooms

import (
	"context"
	"sync"
	"time"

	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/questions"

	"go.uber.org/zap"
)

const codeAttempts = 10

const maxSweepInterval = 5 * time.Minute

type Options struct {
	Settings   game.Settings
	HostGrace  time.Duration
	IdleTTL    time.Duration
	SendBuffer int
	Bank       questions.Bank
	Log        *zap.Logger
}

// Store is the process-wide registry of live rooms keyed by code, and the
// session directory mapping each host to at most one room.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	hosts map[string]string
	opts  Options
	log   *zap.Logger
}

func NewStore(opts Options) *Store {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.SendBuffer < 1 {
		opts.SendBuffer = 32
	}
	return &Store{
		rooms: make(map[string]*Room),
		hosts: make(map[string]string),
		opts:  opts,
		log:   opts.Log,
	}
}

// SendBuffer is the per-channel outbound queue length.
func (s *Store) SendBuffer() int { return s.opts.SendBuffer }

// Bank is the question bank rooms start games from.
func (s *Store) Bank() questions.Bank { return s.opts.Bank }

// StartHosting returns the host's live room, creating one if there is none.
// existing reports whether the room was already live.
func (s *Store) StartHosting(hostID string) (room *Room, existing bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := s.hosts[hostID]; ok {
		if r := s.rooms[code]; r != nil {
			return r, true, nil
		}
		delete(s.hosts, hostID)
	}
	r, err := s.createLocked(hostID)
	return r, false, err
}

// Create opens a new room for hostID, replacing the host's directory entry.
func (s *Store) Create(hostID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(hostID)
}

func (s *Store) createLocked(hostID string) (*Room, error) {
	// Try up to 10 times to generate a unique code
	for range codeAttempts {
		code, err := GenerateCode()
		if err != nil {
			return nil, game.Fatal("code_generation", "generating room code: %v", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := newRoom(code, hostID, s.opts, s.remove)
		s.rooms[code] = room
		s.hosts[hostID] = code
		metrics.RoomsCreated.Inc()
		metrics.RoomsActive.Inc()
		s.log.Info("room created", zap.String("room", code))
		return room, nil
	}
	return nil, game.Fatal("code_exhausted", "failed to generate unique room code after %d attempts", codeAttempts)
}

// remove drops a closed room from the registry. Rooms call it on shutdown.
func (s *Store) remove(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[r.Code] != r {
		return
	}
	delete(s.rooms, r.Code)
	if s.hosts[r.HostID] == r.Code {
		delete(s.hosts, r.HostID)
	}
	metrics.RoomsActive.Dec()
}

func (s *Store) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[NormalizeCode(code)]
}

// HostRoom returns the live room hosted by hostID, or nil.
func (s *Store) HostRoom(hostID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.hosts[hostID]
	if !ok {
		return nil
	}
	return s.rooms[code]
}

// Resolve reports whether identity holds a live channel in the room.
func (s *Store) Resolve(code, identity string) bool {
	r := s.Get(code)
	return r != nil && r.Connected(identity)
}

// Close shuts a room down and removes it from the directory right away.
func (s *Store) Close(code, reason, message string) bool {
	r := s.Get(code)
	if r == nil {
		return false
	}
	s.remove(r)
	r.Close(reason, message)
	return true
}

// CloseHostSession closes the host's live room, if any.
func (s *Store) CloseHostSession(hostID string) bool {
	r := s.HostRoom(hostID)
	if r == nil {
		return false
	}
	return s.Close(r.Code, ReasonHostClosed, "The host closed the room")
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Run sweeps idle rooms until ctx is cancelled, then closes every room.
func (s *Store) Run(ctx context.Context) error {
	interval := s.opts.IdleTTL / 4
	if interval <= 0 || interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll(ReasonShutdown, "The server is shutting down")
			return nil
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Sweep closes rooms with no activity for longer than the idle TTL.
func (s *Store) Sweep(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	closed := 0
	for _, r := range s.List() {
		if now.Sub(r.LastActive()) > s.opts.IdleTTL {
			s.log.Info("closing idle room", zap.String("room", r.Code))
			s.Close(r.Code, ReasonInactivity, "Room closed due to inactivity")
			closed++
		}
	}
	return closed
}

func (s *Store) CloseAll(reason, message string) {
	for _, r := range s.List() {
		s.Close(r.Code, reason, message)
	}
}
