package game

import (
	"slices"
	"strings"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/questions"
	"quizroom/internal/scoring"

	"go.uber.org/zap"
)

type BowlPhase string

const (
	BowlBuzzing   BowlPhase = "buzzing"
	BowlAnswering BowlPhase = "answering"
	BowlJudging   BowlPhase = "judging"
	BowlStealing  BowlPhase = "stealing"
)

// bowlRound tracks buzzes for one bowl question. Only one participant holds
// the floor at a time.
type bowlRound struct {
	phase      BowlPhase
	winner     string
	winnerName string
	winnerTeam string
	answer     string
	steal      bool
	buzzedAt   time.Duration
	// eligible lists teams that may still attempt the question.
	eligible []string
	timer    *timer
}

func (b *bowlRound) canSteal(teamID string) bool {
	return teamID != "" && slices.Contains(b.eligible, teamID)
}

func (g *Game) activeBowl() (*bowlRound, error) {
	if g.mode != ModeBowl || g.phase != PhaseQuestion || g.round == nil || g.round.bowl == nil {
		return nil, ordering("not_buzzing", "no bowl question is open")
	}
	return g.round.bowl, nil
}

// Buzz claims the floor for a bowl question. The first buzz to arrive wins;
// later ones get buzz_too_slow. During a steal it behaves like StealBuzz.
func (g *Game) Buzz(playerID string) error {
	p := g.roster.Get(playerID)
	if p == nil {
		return notFound("unknown_player", "player not found")
	}
	b, err := g.activeBowl()
	if err != nil {
		return err
	}
	switch b.phase {
	case BowlStealing:
		return g.stealBuzz(playerID)
	case BowlAnswering, BowlJudging:
		g.out.ToPlayer(playerID, events.BuzzTooSlow{Message: "Someone else buzzed first"})
		return nil
	}
	if g.teamMode && p.TeamID != "" && !b.canSteal(p.TeamID) {
		g.out.ToPlayer(playerID, events.BuzzTooSlow{Message: "Your team cannot buzz"})
		return nil
	}

	g.takeFloor(b, playerID, false)
	g.out.Broadcast(events.BuzzWinner{PlayerID: p.ID, Name: p.Name, TeamID: p.TeamID, Team: g.teamRef(p.TeamID)})
	g.out.ToPlayer(playerID, events.YouBuzzedFirst{AnswerTimeout: int(g.settings.BowlAnswerTimeout / time.Second)})
	g.log.Debug("buzz", zap.String("player", playerID))
	return nil
}

// StealBuzz claims the floor after a miss. Only members of teams that have
// not yet attempted the question may steal.
func (g *Game) StealBuzz(playerID string) error {
	if g.roster.Get(playerID) == nil {
		return notFound("unknown_player", "player not found")
	}
	b, err := g.activeBowl()
	if err != nil {
		return err
	}
	switch b.phase {
	case BowlBuzzing:
		return g.Buzz(playerID)
	case BowlAnswering, BowlJudging:
		g.out.ToPlayer(playerID, events.BuzzTooSlow{Message: "Someone else is stealing"})
		return nil
	}
	return g.stealBuzz(playerID)
}

func (g *Game) stealBuzz(playerID string) error {
	p := g.roster.Get(playerID)
	b := g.round.bowl
	if !g.teamMode || !b.canSteal(p.TeamID) {
		g.out.ToPlayer(playerID, events.StealNotEligible{Message: "Your team cannot steal this question"})
		return nil
	}
	g.takeFloor(b, playerID, true)
	g.out.Broadcast(events.StealWinner{PlayerID: p.ID, Name: p.Name, TeamID: p.TeamID, Team: g.teamRef(p.TeamID)})
	g.out.ToPlayer(playerID, events.YouCanSteal{AnswerTimeout: int(g.settings.BowlAnswerTimeout / time.Second)})
	return nil
}

func (g *Game) takeFloor(b *bowlRound, playerID string, steal bool) {
	p := g.roster.Get(playerID)
	b.phase = BowlAnswering
	b.winner = p.ID
	b.winnerName = p.Name
	b.winnerTeam = p.TeamID
	b.answer = ""
	b.steal = steal
	b.buzzedAt = g.clock.Now().Sub(g.round.startedAt)
	b.timer = g.after(g.settings.BowlAnswerTimeout, func() {
		if b.phase == BowlAnswering && b.winner == playerID {
			g.bowlMiss(true)
		}
	})
}

// BowlAnswer records the floor holder's spoken answer for the host to judge.
func (g *Game) BowlAnswer(playerID, text string) error {
	b, err := g.activeBowl()
	if err != nil {
		return err
	}
	if b.phase != BowlAnswering || b.winner != playerID {
		return ordering("not_your_turn", "you do not hold the floor")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return validation("empty_answer", "answer cannot be empty")
	}
	b.timer.Stop()
	b.answer = text
	b.phase = BowlJudging

	g.out.ToHost(events.BowlAnswerSubmitted{PlayerID: playerID, Name: b.winnerName, TeamID: b.winnerTeam, Answer: text, IsSteal: b.steal})
	g.out.ToPlayer(playerID, events.BowlAnswerReceived{Answer: text})
	g.out.ToPlayers(events.AwaitingJudgment{Name: b.winnerName, TeamID: b.winnerTeam})
	return nil
}

// Judge applies the host's verdict on the pending bowl answer.
func (g *Game) Judge(correct bool) error {
	b, err := g.activeBowl()
	if err != nil {
		return err
	}
	if b.phase != BowlJudging {
		return ordering("nothing_to_judge", "no answer awaiting judgment")
	}
	if correct {
		g.bowlCorrect()
		return nil
	}
	g.bowlMiss(false)
	return nil
}

// SkipSteal abandons an open steal and reveals the answer.
func (g *Game) SkipSteal() error {
	b, err := g.activeBowl()
	if err != nil {
		return err
	}
	if b.phase != BowlStealing {
		return ordering("no_steal", "no steal in progress")
	}
	g.out.Broadcast(events.BowlStealSkipped{CorrectAnswer: questions.CorrectText(g.round.question)})
	g.bowlReveal(nil)
	return nil
}

func (g *Game) bowlCorrect() {
	b := g.round.bowl
	points := scoring.BowlAward(b.steal)
	res := scoring.Result{PlayerID: b.winner, Answer: b.answer, Correct: true, Delta: points}
	if p := g.roster.Get(b.winner); p != nil {
		p.Apply(points, p.Streak+1)
		p.Stats.Correct++
		p.Stats.CorrectTime += b.buzzedAt
		if b.steal {
			p.Stats.Steals++
		}
		res.Streak = p.Streak
	}

	board, teamBoard := g.Leaderboard()
	g.out.Broadcast(events.BowlCorrect{
		PlayerID:        b.winner,
		Name:            b.winnerName,
		TeamID:          b.winnerTeam,
		Answer:          b.answer,
		Points:          points,
		IsSteal:         b.steal,
		Leaderboard:     board,
		TeamLeaderboard: teamBoard,
	})
	g.bowlReveal(&res)
}

// bowlMiss handles a wrong answer, an answer timeout or the floor holder
// leaving. The holder's team loses eligibility, as do teams with nobody
// connected; if another team remains the question opens for steals,
// otherwise it is revealed.
func (g *Game) bowlMiss(timedOut bool) {
	b := g.round.bowl
	b.timer.Stop()
	if p := g.roster.Get(b.winner); p != nil {
		p.Streak = 0
	}
	if g.teamMode {
		b.eligible = slices.DeleteFunc(b.eligible, func(id string) bool {
			return id == b.winnerTeam || !g.hasConnectedMember(id)
		})
	}

	if g.teamMode && len(b.eligible) > 0 {
		g.out.Broadcast(events.BowlIncorrectSteal{
			PlayerID:      b.winner,
			Name:          b.winnerName,
			TeamID:        b.winnerTeam,
			Answer:        b.answer,
			StealEligible: append([]string{}, b.eligible...),
			TimedOut:      timedOut,
		})
		b.phase = BowlStealing
		b.winner, b.winnerName, b.winnerTeam, b.answer = "", "", "", ""
		return
	}

	g.out.Broadcast(events.BowlNoCorrect{
		PlayerID:      b.winner,
		Name:          b.winnerName,
		TeamID:        b.winnerTeam,
		GivenAnswer:   b.answer,
		CorrectAnswer: questions.CorrectText(g.round.question),
		TimedOut:      timedOut,
	})
	g.bowlReveal(nil)
}

func (g *Game) hasConnectedMember(teamID string) bool {
	for _, p := range g.roster.TeamMembers(teamID) {
		if p.Connected {
			return true
		}
	}
	return false
}

// bowlReveal moves a bowl question to reveal. won is the awarded result, if any.
func (g *Game) bowlReveal(won *scoring.Result) {
	r := g.round
	if r.revealed {
		return
	}
	r.revealed = true
	r.stopTimers()
	g.phase = PhaseReveal

	results := make([]events.Result, 0, g.roster.Count())
	for _, p := range g.roster.List() {
		res := scoring.Result{PlayerID: p.ID, Streak: p.Streak}
		if won != nil && won.PlayerID == p.ID {
			res = *won
		}
		results = append(results, events.Result{Result: res, Name: p.Name, TotalScore: p.Score})
	}

	q := r.question
	board, teamBoard := g.Leaderboard()
	g.out.Broadcast(events.Reveal{
		QuestionType:    string(q.Kind()),
		Results:         results,
		Leaderboard:     board,
		TeamLeaderboard: teamBoard,
		TeamMode:        g.teamMode,
		CorrectAnswer:   questions.CorrectValue(q),
		CorrectText:     questions.CorrectText(q),
		Answers:         questions.Options(q),
		LastQuestion:    g.index >= len(g.questions)-1,
	})
}

// forfeitFloor treats the floor holder leaving as a wrong answer.
func (g *Game) forfeitFloor(playerID string) {
	if g.mode != ModeBowl || g.phase != PhaseQuestion || g.round == nil || g.round.bowl == nil {
		return
	}
	b := g.round.bowl
	if b.winner != playerID || (b.phase != BowlAnswering && b.phase != BowlJudging) {
		return
	}
	g.bowlMiss(false)
}
