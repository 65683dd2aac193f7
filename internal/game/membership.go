package game

import (
	"quizroom/internal/events"
	"quizroom/internal/players"

	"go.uber.org/zap"
)

// Join registers a participant while the room is in the lobby and returns it
// with a fresh id. The participant is not connected until Attach.
func (g *Game) Join(name string) (*players.Participant, error) {
	if g.closed {
		return nil, notFound("room_not_found", "room not found")
	}
	if g.phase != PhaseLobby {
		return nil, validation("game_in_progress", "game already in progress")
	}
	name = players.CleanName(name)
	if name == "" {
		return nil, validation("name_required", "name is required")
	}
	p := g.roster.Add(g.newID(), name, g.clock.Now())
	g.out.Broadcast(events.PlayerJoined{Player: g.playerInfo(p), PlayerCount: g.roster.Count()})
	g.log.Info("player joined", zap.String("player", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Attach marks a participant connected and sends them a full snapshot. It is
// also the reconnection path: the snapshot tells them whether they have
// already answered the current question.
func (g *Game) Attach(playerID string) error {
	p := g.roster.Get(playerID)
	if p == nil {
		return notFound("unknown_player", "player not found")
	}
	changed := g.roster.SetConnected(playerID, true)
	g.out.ToPlayer(playerID, g.Snapshot(playerID))
	if changed {
		g.out.BroadcastExcept(playerID, events.PlayerConnected{PlayerID: p.ID, Name: p.Name, ConnectedCount: g.roster.ConnectedCount()})
	}
	return nil
}

// Detach marks a participant disconnected. They keep their score and team. A
// classic question may close early if everyone still connected has answered;
// a bowl floor holder forfeits.
func (g *Game) Detach(playerID string) {
	p := g.roster.Get(playerID)
	if p == nil || !g.roster.SetConnected(playerID, false) {
		return
	}
	g.out.Broadcast(events.PlayerDisconnected{PlayerID: p.ID, Name: p.Name, ConnectedCount: g.roster.ConnectedCount()})
	g.forfeitFloor(playerID)
	g.revealIfAllAnswered()
}

func (g *Game) HostAttach() {
	g.hostConnected = true
	g.out.ToHost(g.Snapshot(HostID))
	g.out.ToPlayers(events.HostConnected{Message: "Host connected"})
}

func (g *Game) HostDetach() {
	if !g.hostConnected {
		return
	}
	g.hostConnected = false
	g.out.ToPlayers(events.HostDisconnected{Message: "Host disconnected. Waiting for host to reconnect..."})
}

// Kick removes a participant at the host's request.
func (g *Game) Kick(playerID string) error {
	if g.roster.Get(playerID) == nil {
		return notFound("unknown_player", "player not found")
	}
	g.out.ToPlayer(playerID, events.Kicked{Message: "You have been removed from the room"})
	g.out.Disconnect(playerID, CloseKicked)
	g.remove(playerID, true)
	return nil
}

// Leave removes a participant at their own request.
func (g *Game) Leave(playerID string) error {
	if g.roster.Get(playerID) == nil {
		return notFound("unknown_player", "player not found")
	}
	g.out.Disconnect(playerID, CloseLeft)
	g.remove(playerID, false)
	return nil
}

func (g *Game) remove(playerID string, kicked bool) {
	p := g.roster.Get(playerID)
	g.forfeitFloor(playerID)
	if g.round != nil && !g.round.revealed {
		delete(g.round.subs, playerID)
	}
	g.roster.Remove(playerID)

	g.out.Broadcast(events.PlayerLeft{PlayerID: p.ID, Name: p.Name, PlayerCount: g.roster.Count(), Kicked: kicked})
	g.log.Info("player removed", zap.String("player", p.ID), zap.Bool("kicked", kicked))
	g.revealIfAllAnswered()
}
