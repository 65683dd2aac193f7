package game

import (
	"encoding/json"
	"strings"
	"time"

	"quizroom/internal/events"
)

const defaultMinigameType = "microgame"

type minigame struct {
	kind     string
	prompt   string
	duration time.Duration
	entries  map[string]json.RawMessage
	order    []string
	timer    *timer
}

// StartMinigame runs a short side activity between questions. It may only
// start from a reveal and returns there when it ends. A zero duration means
// the host ends it by hand.
func (g *Game) StartMinigame(kind, prompt string, duration time.Duration) error {
	if g.phase != PhaseReveal {
		return ordering("not_in_reveal", "minigames start from a reveal")
	}
	if duration < 0 {
		return validation("invalid_duration", "duration cannot be negative")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = defaultMinigameType
	}
	mg := &minigame{
		kind:     kind,
		prompt:   strings.TrimSpace(prompt),
		duration: duration,
		entries:  make(map[string]json.RawMessage),
	}
	g.minigame = mg
	g.phase = PhaseMinigame
	g.out.Broadcast(events.MinigameStart{MinigameType: mg.kind, Prompt: mg.prompt, Duration: int(duration / time.Second)})
	if duration > 0 {
		mg.timer = g.after(duration, func() { _ = g.EndMinigame() })
	}
	return nil
}

// MinigameSubmit records a participant's entry. A later entry replaces an
// earlier one but keeps its place.
func (g *Game) MinigameSubmit(playerID string, data json.RawMessage) error {
	p := g.roster.Get(playerID)
	if p == nil {
		return notFound("unknown_player", "player not found")
	}
	if g.phase != PhaseMinigame || g.minigame == nil {
		return ordering("no_minigame", "no minigame running")
	}
	if len(data) == 0 || string(data) == "null" {
		return validation("empty_submission", "submission is empty")
	}
	mg := g.minigame
	if _, ok := mg.entries[playerID]; !ok {
		mg.order = append(mg.order, playerID)
	}
	mg.entries[playerID] = data
	g.out.ToHost(events.MinigameSubmission{PlayerID: p.ID, Name: p.Name, Data: data})
	g.out.ToPlayer(playerID, events.MinigameSubmissionReceived{})
	return nil
}

// EndMinigame publishes every entry and returns to the reveal.
func (g *Game) EndMinigame() error {
	if g.phase != PhaseMinigame || g.minigame == nil {
		return ordering("no_minigame", "no minigame running")
	}
	mg := g.minigame
	mg.timer.Stop()
	g.minigame = nil
	g.phase = PhaseReveal

	entries := make([]events.MinigameEntry, 0, len(mg.order))
	for _, id := range mg.order {
		name := ""
		if p := g.roster.Get(id); p != nil {
			name = p.Name
		}
		entries = append(entries, events.MinigameEntry{PlayerID: id, Name: name, Data: mg.entries[id]})
	}
	g.out.Broadcast(events.MinigameEnd{MinigameType: mg.kind, Submissions: entries})
	g.out.ToHost(g.Snapshot(HostID))
	return nil
}
