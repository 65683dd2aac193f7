package awards

import "time"

type ID string

const (
	SpeedDemon    ID = "speed_demon"
	OnFire        ID = "on_fire"
	Perfectionist ID = "perfectionist"
	Thief         ID = "thief"
)

type Definition struct {
	ID          ID
	Name        string
	Description string
	Icon        string
}

var All = map[ID]Definition{
	SpeedDemon:    {ID: SpeedDemon, Name: "Speed Demon", Description: "Fastest average correct answer", Icon: "⚡"},
	OnFire:        {ID: OnFire, Name: "On Fire", Description: "Longest streak of 3 or more", Icon: "🔥"},
	Perfectionist: {ID: Perfectionist, Name: "Perfectionist", Description: "Answered every question correctly", Icon: "✨"},
	Thief:         {ID: Thief, Name: "Master Thief", Description: "Most successful steals", Icon: "🦝"},
}

// PlayerStats is one participant's record for a finished game, listed in
// join order so ties go to whoever joined first.
type PlayerStats struct {
	PlayerID       string
	Name           string
	Correct        int
	AvgCorrectTime time.Duration
	BestStreak     int
	Steals         int
}

type Award struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	PlayerID    string `json:"player_id"`
	PlayerName  string `json:"player_name"`
}

func grant(id ID, p PlayerStats) Award {
	d := All[id]
	return Award{ID: id, Name: d.Name, Description: d.Description, Icon: d.Icon, PlayerID: p.PlayerID, PlayerName: p.Name}
}

// Evaluate decides the awards for a game in which scoredQuestions questions
// could be answered right or wrong.
func Evaluate(stats []PlayerStats, scoredQuestions int) []Award {
	earned := []Award{}

	// Speed Demon: lowest average time over correct answers
	var fastest *PlayerStats
	for i := range stats {
		p := &stats[i]
		if p.Correct == 0 || p.AvgCorrectTime <= 0 {
			continue
		}
		if fastest == nil || p.AvgCorrectTime < fastest.AvgCorrectTime {
			fastest = p
		}
	}
	if fastest != nil {
		earned = append(earned, grant(SpeedDemon, *fastest))
	}

	// On Fire: best streak of at least 3
	var hottest *PlayerStats
	for i := range stats {
		p := &stats[i]
		if p.BestStreak >= 3 && (hottest == nil || p.BestStreak > hottest.BestStreak) {
			hottest = p
		}
	}
	if hottest != nil {
		earned = append(earned, grant(OnFire, *hottest))
	}

	// Perfectionist: everyone with a perfect game
	if scoredQuestions > 0 {
		for _, p := range stats {
			if p.Correct >= scoredQuestions {
				earned = append(earned, grant(Perfectionist, p))
			}
		}
	}

	// Thief: most steals
	var thief *PlayerStats
	for i := range stats {
		p := &stats[i]
		if p.Steals > 0 && (thief == nil || p.Steals > thief.Steals) {
			thief = p
		}
	}
	if thief != nil {
		earned = append(earned, grant(Thief, *thief))
	}

	return earned
}
