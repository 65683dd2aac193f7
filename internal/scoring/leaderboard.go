package scoring

import (
	"sort"

	"quizroom/internal/questions"
)

type TallyEntry struct {
	Answer string `json:"answer"`
	Count  int    `json:"count"`
}

// Tally aggregates poll answers. Poll tallies list every option in option
// order. Open-poll answers are grouped by their normalized text, displayed
// with the first submitted spelling and sorted by count, ties by first arrival.
func Tally(q questions.Question, subs []Submission) []TallyEntry {
	switch v := q.(type) {
	case questions.Poll:
		out := make([]TallyEntry, len(v.Options))
		for i, opt := range v.Options {
			out[i].Answer = opt
		}
		for _, s := range subs {
			if i, ok := s.Answer.(int); ok && i >= 0 && i < len(out) {
				out[i].Count++
			}
		}
		return out

	case questions.OpenPoll:
		ordered := make([]Submission, len(subs))
		copy(ordered, subs)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

		index := make(map[string]int)
		var out []TallyEntry
		for _, s := range ordered {
			text, ok := s.Answer.(string)
			if !ok {
				continue
			}
			key := questions.Normalize(text)
			if key == "" {
				continue
			}
			i, seen := index[key]
			if !seen {
				i = len(out)
				index[key] = i
				out = append(out, TallyEntry{Answer: text})
			}
			out[i].Count++
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
		return out

	case questions.Choice, questions.TrueFalse, questions.Text, questions.Number, questions.Wager:
	}
	return nil
}

// Entry is one ledger row. Order is the participant's join position.
type Entry struct {
	ID     string
	Name   string
	Score  int
	Streak int
	TeamID string
	Order  int
}

type Standing struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
	TeamID string `json:"team_id,omitempty"`
}

// Leaderboard sorts by score descending, ties by join order. Equal scores
// share a rank.
func Leaderboard(entries []Entry) []Standing {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Order < sorted[j].Order
	})

	out := make([]Standing, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && sorted[i-1].Score == e.Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{Rank: rank, ID: e.ID, Name: e.Name, Score: e.Score, Streak: e.Streak, TeamID: e.TeamID}
	}
	return out
}

type Team struct {
	ID    string
	Name  string
	Color string
}

type TeamStanding struct {
	Rank        int        `json:"rank"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	Score       int        `json:"score"`
	PlayerCount int        `json:"player_count"`
	Players     []Standing `json:"players"`
}

// TeamLeaderboard sums member scores per team. Teams are given in creation
// order, which breaks ties.
func TeamLeaderboard(teams []Team, entries []Entry) []TeamStanding {
	members := make(map[string][]Entry)
	for _, e := range entries {
		if e.TeamID != "" {
			members[e.TeamID] = append(members[e.TeamID], e)
		}
	}

	out := make([]TeamStanding, len(teams))
	for i, t := range teams {
		ts := TeamStanding{ID: t.ID, Name: t.Name, Color: t.Color, Players: Leaderboard(members[t.ID])}
		for _, m := range members[t.ID] {
			ts.Score += m.Score
		}
		ts.PlayerCount = len(ts.Players)
		out[i] = ts
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
		if i > 0 && out[i-1].Score == out[i].Score {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out
}
