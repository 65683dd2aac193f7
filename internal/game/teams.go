package game

import (
	"strconv"
	"strings"

	"quizroom/internal/events"
)

var (
	teamColors = []string{"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6", "#1abc9c", "#e91e63", "#00bcd4"}
	teamNames  = []string{"Red Team", "Blue Team", "Green Team", "Orange Team", "Purple Team", "Teal Team", "Pink Team", "Cyan Team"}
)

// MaxTeams bounds the team set to the default palette.
var MaxTeams = len(teamColors)

const maxTeamNameLength = 30

// teamsLocked refuses team changes while a question is live.
func (g *Game) teamsLocked() error {
	if g.phase == PhaseStarting || g.phase == PhaseQuestion {
		return ordering("round_in_progress", "teams cannot change during a question")
	}
	return nil
}

// SetMode switches between classic and bowl play in the lobby. Bowl turns
// team mode on and makes sure at least two teams exist.
func (g *Game) SetMode(mode Mode) error {
	if mode != ModeClassic && mode != ModeBowl {
		return validation("invalid_mode", "unknown game mode %q", mode)
	}
	if g.phase != PhaseLobby {
		return ordering("not_in_lobby", "game mode can only change in the lobby")
	}
	g.mode = mode
	if mode == ModeBowl {
		g.teamMode = true
		for len(g.teams) < 2 {
			g.addTeam("", "")
		}
	}
	g.out.Broadcast(events.GameModeChanged{GameMode: string(g.mode), TeamMode: g.teamMode, Teams: g.teamList()})
	return nil
}

// SetTeamMode turns team play on or off. Turning it off unassigns everyone
// but keeps the teams themselves.
func (g *Game) SetTeamMode(enabled bool) error {
	if err := g.teamsLocked(); err != nil {
		return err
	}
	if g.teamMode == enabled {
		return nil
	}
	g.teamMode = enabled
	var cleared []string
	if !enabled {
		for _, p := range g.roster.List() {
			if p.TeamID != "" {
				p.TeamID = ""
				cleared = append(cleared, p.ID)
			}
		}
	}
	g.out.Broadcast(events.TeamModeChanged{TeamMode: enabled, Teams: g.teamList()})
	for _, id := range cleared {
		g.out.ToPlayer(id, events.YourTeamChanged{})
	}
	return nil
}

func (g *Game) addTeam(name, color string) *Team {
	i := len(g.teams)
	if name == "" {
		name = teamNames[i%len(teamNames)]
	}
	if color == "" {
		color = teamColors[i%len(teamColors)]
	}
	g.nextTeamID++
	t := &Team{ID: strconv.Itoa(g.nextTeamID), Name: name, Color: color}
	g.teams = append(g.teams, t)
	return t
}

func (g *Game) nameTaken(name, exceptID string) bool {
	for _, t := range g.teams {
		if t.ID != exceptID && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func cleanTeamName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxTeamNameLength {
		name = strings.TrimSpace(string(r[:maxTeamNameLength]))
	}
	return name
}

// CreateTeam adds a team. Empty name or color take the next default. The
// first team turns team mode on.
func (g *Game) CreateTeam(name, color string) (Team, error) {
	if err := g.teamsLocked(); err != nil {
		return Team{}, err
	}
	if len(g.teams) >= MaxTeams {
		return Team{}, validation("too_many_teams", "a room can have at most %d teams", MaxTeams)
	}
	name = cleanTeamName(name)
	if name != "" && g.nameTaken(name, "") {
		return Team{}, validation("duplicate_team_name", "team %q already exists", name)
	}
	t := g.addTeam(name, strings.TrimSpace(color))
	g.teamMode = true
	g.out.Broadcast(events.TeamCreated{Team: events.Team{ID: t.ID, Name: t.Name, Color: t.Color}, TeamMode: g.teamMode})
	return *t, nil
}

// UpdateTeam renames or recolors a team. Nil fields are left alone.
func (g *Game) UpdateTeam(id string, name, color *string) (Team, error) {
	t := g.team(id)
	if t == nil {
		return Team{}, notFound("unknown_team", "team not found")
	}
	if name != nil {
		n := cleanTeamName(*name)
		if n == "" {
			return Team{}, validation("team_name_required", "team name cannot be empty")
		}
		if g.nameTaken(n, id) {
			return Team{}, validation("duplicate_team_name", "team %q already exists", n)
		}
		t.Name = n
	}
	if color != nil && strings.TrimSpace(*color) != "" {
		t.Color = strings.TrimSpace(*color)
	}
	g.out.Broadcast(events.TeamUpdated{Team: events.Team{ID: t.ID, Name: t.Name, Color: t.Color}})
	return *t, nil
}

// DeleteTeam removes a team and unassigns its members. Removing the last team
// turns team mode off.
func (g *Game) DeleteTeam(id string) error {
	if err := g.teamsLocked(); err != nil {
		return err
	}
	idx := -1
	for i, t := range g.teams {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return notFound("unknown_team", "team not found")
	}
	g.teams = append(g.teams[:idx], g.teams[idx+1:]...)
	members := g.roster.ClearTeam(id)
	if len(g.teams) == 0 {
		g.teamMode = false
	}

	unassigned := make([]string, len(members))
	for i, p := range members {
		unassigned[i] = p.ID
	}
	g.out.Broadcast(events.TeamDeleted{TeamID: id, Unassigned: unassigned, TeamMode: g.teamMode})
	for _, p := range members {
		g.out.ToPlayer(p.ID, events.YourTeamChanged{})
	}
	return nil
}

// AssignTeam moves a participant onto a team. An empty teamID unassigns.
func (g *Game) AssignTeam(playerID, teamID string) error {
	if err := g.teamsLocked(); err != nil {
		return err
	}
	p := g.roster.Get(playerID)
	if p == nil {
		return notFound("unknown_player", "player not found")
	}
	if teamID != "" {
		if g.team(teamID) == nil {
			return notFound("unknown_team", "team not found")
		}
		if !g.teamMode {
			return validation("team_mode_off", "team mode is off")
		}
	}
	p.TeamID = teamID
	g.out.Broadcast(events.PlayerTeamChanged{PlayerID: p.ID, TeamID: teamID})
	g.out.ToPlayer(p.ID, events.YourTeamChanged{Team: g.teamRef(teamID)})
	return nil
}

// AutoAssign spreads participants over n teams round-robin in join order,
// creating default teams as needed, and turns team mode on.
func (g *Game) AutoAssign(n int) error {
	if err := g.teamsLocked(); err != nil {
		return err
	}
	if n < 1 || n > MaxTeams {
		return validation("invalid_team_count", "team count must be between 1 and %d", MaxTeams)
	}
	for len(g.teams) < n {
		g.addTeam("", "")
	}
	g.teamMode = true

	assignments := make(map[string]string)
	for i, p := range g.roster.List() {
		p.TeamID = g.teams[i%n].ID
		assignments[p.ID] = p.TeamID
	}
	g.out.Broadcast(events.TeamsAutoAssigned{Teams: g.teamList(), Assignments: assignments})
	for _, p := range g.roster.List() {
		g.out.ToPlayer(p.ID, events.YourTeamChanged{Team: g.teamRef(p.TeamID)})
	}
	return nil
}
