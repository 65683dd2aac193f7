// Package scoring turns a question and its submissions into point deltas and
// orders leaderboards. Nothing here touches room state.
package scoring

import (
	"sort"
	"time"

	"quizroom/internal/questions"
)

const (
	MaxPoints   = 1000
	FloorPoints = 100
	StreakBonus = 100

	MinWager = 100
	MaxWager = 500

	BowlPoints  = 10
	StealPoints = 5

	// WaitForAllLimit is the decay reference when a question has no timer.
	WaitForAllLimit = 30 * time.Second
)

// Submission is one participant's answer as recorded by the room. Seq is the
// arrival position at the room; Score and Streak are the participant's values
// before this question.
type Submission struct {
	PlayerID string
	Answer   any
	Elapsed  time.Duration
	Seq      int
	Wager    int
	Score    int
	Streak   int
}

type Result struct {
	PlayerID string `json:"id"`
	Answer   any    `json:"answer"`
	Correct  bool   `json:"correct"`
	Delta    int    `json:"points_earned"`
	Streak   int    `json:"streak"`
	Wager    int    `json:"wager,omitempty"`
}

type Outcome struct {
	Results []Result
	Tally   []TallyEntry
}

// Deltas indexes the outcome by participant.
func (o Outcome) Deltas() map[string]int {
	d := make(map[string]int, len(o.Results))
	for _, r := range o.Results {
		d[r.PlayerID] = r.Delta
	}
	return d
}

// Score computes the classic-mode outcome of a question. Results are in
// arrival order. The earliest correct arrival earns MaxPoints; later correct
// answers decay linearly toward FloorPoints over limit. A correct answer that
// extends a streak past one adds StreakBonus. Wager questions with a non-zero
// wager pay twice the wager or cost the wager, never taking a score below zero.
// Polls award nothing and leave streaks unchanged.
func Score(q questions.Question, subs []Submission, limit time.Duration) Outcome {
	ordered := make([]Submission, len(subs))
	copy(ordered, subs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	out := Outcome{Results: make([]Result, 0, len(ordered))}
	if !questions.Scored(q) {
		for _, s := range ordered {
			out.Results = append(out.Results, Result{PlayerID: s.PlayerID, Answer: s.Answer, Streak: s.Streak})
		}
		out.Tally = Tally(q, ordered)
		return out
	}

	_, isWager := q.(questions.Wager)
	firstCorrect := true
	for _, s := range ordered {
		r := Result{PlayerID: s.PlayerID, Answer: s.Answer}
		r.Correct = questions.Check(q, s.Answer)

		switch {
		case isWager && s.Wager > 0:
			r.Wager = s.Wager
			if r.Correct {
				r.Delta = 2 * s.Wager
				r.Streak = s.Streak + 1
			} else {
				r.Delta = -min(s.Wager, s.Score)
			}
		case r.Correct:
			if firstCorrect {
				r.Delta = MaxPoints
			} else {
				r.Delta = Points(s.Elapsed, limit)
			}
			r.Streak = s.Streak + 1
			if r.Streak > 1 {
				r.Delta += StreakBonus
			}
		}
		if r.Correct {
			firstCorrect = false
		}
		out.Results = append(out.Results, r)
	}
	return out
}

// Points is the decay curve: MaxPoints at zero elapsed, FloorPoints at or
// beyond the limit. A non-positive limit means WaitForAllLimit.
func Points(elapsed, limit time.Duration) int {
	if limit <= 0 {
		limit = WaitForAllLimit
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= limit {
		return FloorPoints
	}
	remaining := int64(limit - elapsed)
	return FloorPoints + int(int64(MaxPoints-FloorPoints)*remaining/int64(limit))
}

// ClampWager bounds a requested wager by the participant's score. Participants
// below MinWager cannot wager.
func ClampWager(requested, score int) int {
	if requested <= 0 || score < MinWager {
		return 0
	}
	limit := min(score, MaxWager)
	return max(MinWager, min(requested, limit))
}

// BowlAward is the flat bowl-mode award for a correct judgment.
func BowlAward(steal bool) int {
	if steal {
		return StealPoints
	}
	return BowlPoints
}
