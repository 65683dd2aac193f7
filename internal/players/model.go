package players

import "time"

// Participant is a joined player. It survives disconnects and is removed only
// by a kick, an explicit leave or the room closing.
type Participant struct {
	ID        string
	Name      string
	Color     string
	JoinedAt  time.Time
	Order     int
	Connected bool

	// TeamID refers into the room's team set; empty means unassigned.
	TeamID string

	Score  int
	Streak int

	// Answered holds ids of questions this participant has submitted for
	// during the current game.
	Answered map[string]bool

	Stats Stats
}

// Stats accumulate over one game for end-of-game awards.
type Stats struct {
	Answered    int
	Correct     int
	CorrectTime time.Duration
	BestStreak  int
	Steals      int
}

// AvgCorrectTime is zero when there were no correct answers.
func (s Stats) AvgCorrectTime() time.Duration {
	if s.Correct == 0 {
		return 0
	}
	return s.CorrectTime / time.Duration(s.Correct)
}

func (p *Participant) HasAnswered(questionID string) bool {
	return p.Answered[questionID]
}

func (p *Participant) MarkAnswered(questionID string) {
	if p.Answered == nil {
		p.Answered = make(map[string]bool)
	}
	p.Answered[questionID] = true
}

// Apply adds a score delta, clamping at zero, and records the new streak.
func (p *Participant) Apply(delta, streak int) {
	p.Score += delta
	if p.Score < 0 {
		p.Score = 0
	}
	p.Streak = streak
	if streak > p.Stats.BestStreak {
		p.Stats.BestStreak = streak
	}
}
