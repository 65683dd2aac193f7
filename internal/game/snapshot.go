package game

import (
	"time"

	"quizroom/internal/events"
)

// Snapshot renders the room for one viewer: HostID sees correct answers and
// the pending bowl answer, a participant id adds that participant's own view,
// and an empty viewer gets the public state.
func (g *Game) Snapshot(viewer string) events.RoomState {
	board, teamBoard := g.Leaderboard()
	list := g.roster.List()
	infos := make([]events.PlayerInfo, len(list))
	for i, p := range list {
		infos[i] = g.playerInfo(p)
	}

	st := events.RoomState{
		RoomCode:        g.code,
		State:           string(g.phase),
		GameMode:        string(g.mode),
		TeamMode:        g.teamMode,
		HostConnected:   g.hostConnected,
		Players:         infos,
		PlayerCount:     len(list),
		Teams:           g.teamList(),
		Leaderboard:     board,
		TeamLeaderboard: teamBoard,
	}

	isHost := viewer == HostID
	r := g.round
	if r != nil && (g.phase == PhaseQuestion || g.phase == PhaseReveal) {
		info := g.questionInfo(isHost)
		st.CurrentQuestion = &info
		st.AnswersIn = len(r.subs)
		if r.bowl != nil {
			b := r.bowl
			bs := &events.BowlState{
				Phase:            string(b.phase),
				BuzzWinner:       b.winnerName,
				BuzzTeam:         b.winnerTeam,
				AwaitingJudgment: b.phase == BowlJudging,
				StealEligible:    append([]string{}, b.eligible...),
				IsSteal:          b.steal,
			}
			if isHost {
				bs.Answer = b.answer
			}
			st.Bowl = bs
		}
	}

	if mg := g.minigame; mg != nil {
		st.Minigame = &events.MinigameState{Type: mg.kind, Prompt: mg.prompt, Duration: int(mg.duration / time.Second)}
	}

	if p := g.roster.Get(viewer); p != nil && !isHost {
		st.You = &events.Self{PlayerID: p.ID, Name: p.Name, Score: p.Score, Streak: p.Streak, Team: g.teamRef(p.TeamID)}
		if r != nil {
			st.AlreadyAnswered = g.Submitted(p.ID)
		}
	}
	return st
}
