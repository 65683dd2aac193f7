package players

import (
	"strings"
	"time"
	"unicode/utf8"

	"quizroom/internal/utility"
)

const MaxNameLength = 20

// Roster keeps participants in join order. It is not safe for concurrent use;
// the owning room serializes access.
type Roster struct {
	byID  map[string]*Participant
	order []*Participant
	next  int
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*Participant)}
}

// CleanName trims a display name and truncates it to MaxNameLength runes.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
}

// Add registers a participant. The caller supplies a unique id.
func (r *Roster) Add(id, name string, now time.Time) *Participant {
	p := &Participant{
		ID:       id,
		Name:     name,
		Color:    utility.RandomColorHex(),
		JoinedAt: now,
		Order:    r.next,
		Answered: make(map[string]bool),
	}
	r.next++
	r.byID[id] = p
	r.order = append(r.order, p)
	return p
}

func (r *Roster) Get(id string) *Participant {
	return r.byID[id]
}

func (r *Roster) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, p := range r.order {
		if p.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns participants in join order.
func (r *Roster) List() []*Participant {
	out := make([]*Participant, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Roster) Count() int {
	return len(r.order)
}

func (r *Roster) Connected() []*Participant {
	var out []*Participant
	for _, p := range r.order {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) ConnectedCount() int {
	n := 0
	for _, p := range r.order {
		if p.Connected {
			n++
		}
	}
	return n
}

// SetConnected updates liveness and reports whether it changed.
func (r *Roster) SetConnected(id string, connected bool) bool {
	p := r.byID[id]
	if p == nil || p.Connected == connected {
		return false
	}
	p.Connected = connected
	return true
}

// TeamMembers returns the members of a team in join order.
func (r *Roster) TeamMembers(teamID string) []*Participant {
	var out []*Participant
	for _, p := range r.order {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// ClearTeam unassigns every member of teamID and returns them.
func (r *Roster) ClearTeam(teamID string) []*Participant {
	members := r.TeamMembers(teamID)
	for _, p := range members {
		p.TeamID = ""
	}
	return members
}

// ResetAll zeroes scores, streaks, answered sets and stats. Team assignments stay.
func (r *Roster) ResetAll() {
	for _, p := range r.order {
		p.Score = 0
		p.Streak = 0
		p.Answered = make(map[string]bool)
		p.Stats = Stats{}
	}
}
