// Package game holds the state of one room: roster, teams, score ledger and
// the round controller that advances a quiz through its phases.
//
// A Game is not safe for concurrent use. Its owner must call every method,
// and run every Scheduler callback, from a single goroutine.
package game

import (
	"time"

	"quizroom/internal/awards"
	"quizroom/internal/events"
	"quizroom/internal/players"
	"quizroom/internal/questions"
	"quizroom/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseStarting Phase = "starting"
	PhaseQuestion Phase = "question"
	PhaseReveal   Phase = "reveal"
	PhaseMinigame Phase = "minigame"
	PhaseFinished Phase = "finished"
)

type Mode string

const (
	ModeClassic Mode = "classic"
	ModeBowl    Mode = "bowl"
)

// HostID addresses the host channel wherever a participant id is expected.
const HostID = "host"

const defaultQuestionCount = 10

type Settings struct {
	StartCountdown    time.Duration
	DefaultTimeLimit  time.Duration
	BowlAnswerTimeout time.Duration
	MinigameDuration  time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		StartCountdown:    3 * time.Second,
		DefaultTimeLimit:  15 * time.Second,
		BowlAnswerTimeout: 30 * time.Second,
		MinigameDuration:  30 * time.Second,
	}
}

type Team struct {
	ID    string
	Name  string
	Color string
}

type Game struct {
	code     string
	settings Settings
	clock    Clock
	sched    Scheduler
	out      Emitter
	log      *zap.Logger
	newID    func() string

	phase         Phase
	mode          Mode
	teamMode      bool
	teams         []*Team
	nextTeamID    int
	roster        *players.Roster
	hostConnected bool
	closed        bool

	questions   []questions.Question
	index       int
	timeLimit   *time.Duration
	scoredAsked int
	round       *round
	startTimer  *timer
	minigame    *minigame
}

func New(code string, settings Settings, clock Clock, sched Scheduler, out Emitter, log *zap.Logger) *Game {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		code:     code,
		settings: settings,
		clock:    clock,
		sched:    sched,
		out:      out,
		log:      log,
		newID:    uuid.NewString,
		phase:    PhaseLobby,
		mode:     ModeClassic,
		roster:   players.NewRoster(),
		index:    -1,
	}
}

func (g *Game) Code() string        { return g.code }
func (g *Game) Phase() Phase        { return g.phase }
func (g *Game) Mode() Mode          { return g.mode }
func (g *Game) TeamMode() bool      { return g.teamMode }
func (g *Game) HostConnected() bool { return g.hostConnected }
func (g *Game) Closed() bool        { return g.closed }
func (g *Game) PlayerCount() int    { return g.roster.Count() }

// Participant returns the roster entry for id, or nil.
func (g *Game) Participant(id string) *players.Participant {
	return g.roster.Get(id)
}

func (g *Game) Teams() []Team {
	out := make([]Team, len(g.teams))
	for i, t := range g.teams {
		out[i] = *t
	}
	return out
}

// Close ends the room. Every channel, the host's included, receives
// room_closed and is disconnected.
func (g *Game) Close(reason, message string) {
	if g.closed {
		return
	}
	g.stopTimers()
	g.closed = true
	g.out.Broadcast(events.RoomClosed{Reason: reason, Message: message})
	for _, p := range g.roster.List() {
		g.out.Disconnect(p.ID, CloseRoomClosed)
	}
	g.out.Disconnect(HostID, CloseRoomClosed)
	g.log.Info("room closed", zap.String("reason", reason))
}

func (g *Game) stopTimers() {
	g.startTimer.Stop()
	g.startTimer = nil
	if g.round != nil {
		g.round.stopTimers()
	}
	if g.minigame != nil {
		g.minigame.timer.Stop()
	}
}

// Leaderboard returns the player standings and, in team mode, team standings.
func (g *Game) Leaderboard() ([]scoring.Standing, []scoring.TeamStanding) {
	entries := g.ledger()
	board := scoring.Leaderboard(entries)
	if !g.teamMode || len(g.teams) == 0 {
		return board, nil
	}
	teams := make([]scoring.Team, len(g.teams))
	for i, t := range g.teams {
		teams[i] = scoring.Team{ID: t.ID, Name: t.Name, Color: t.Color}
	}
	return board, scoring.TeamLeaderboard(teams, entries)
}

func (g *Game) ledger() []scoring.Entry {
	list := g.roster.List()
	entries := make([]scoring.Entry, len(list))
	for i, p := range list {
		entries[i] = scoring.Entry{ID: p.ID, Name: p.Name, Score: p.Score, Streak: p.Streak, TeamID: p.TeamID, Order: p.Order}
	}
	return entries
}

func (g *Game) awards() []awards.Award {
	list := g.roster.List()
	stats := make([]awards.PlayerStats, len(list))
	for i, p := range list {
		stats[i] = awards.PlayerStats{
			PlayerID:       p.ID,
			Name:           p.Name,
			Correct:        p.Stats.Correct,
			AvgCorrectTime: p.Stats.AvgCorrectTime(),
			BestStreak:     p.Stats.BestStreak,
			Steals:         p.Stats.Steals,
		}
	}
	return awards.Evaluate(stats, g.scoredAsked)
}

func (g *Game) playerInfo(p *players.Participant) events.PlayerInfo {
	return events.PlayerInfo{ID: p.ID, Name: p.Name, Color: p.Color, TeamID: p.TeamID, Connected: p.Connected, Score: p.Score}
}

func (g *Game) teamList() []events.Team {
	out := make([]events.Team, len(g.teams))
	for i, t := range g.teams {
		out[i] = events.Team{ID: t.ID, Name: t.Name, Color: t.Color}
	}
	return out
}

func (g *Game) team(id string) *Team {
	for _, t := range g.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (g *Game) teamRef(id string) *events.Team {
	t := g.team(id)
	if t == nil {
		return nil
	}
	return &events.Team{ID: t.ID, Name: t.Name, Color: t.Color}
}

// CurrentKind is the kind of the open question, or empty.
func (g *Game) CurrentKind() string {
	if g.round == nil {
		return ""
	}
	return string(g.round.question.Kind())
}

// FloorHolder is the participant currently answering a bowl question, or empty.
func (g *Game) FloorHolder() string {
	if g.round == nil || g.round.bowl == nil {
		return ""
	}
	return g.round.bowl.winner
}
