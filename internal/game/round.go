package game

import (
	"sort"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/questions"
	"quizroom/internal/scoring"

	"go.uber.org/zap"
)

// round is the live state of the current question.
type round struct {
	question  questions.Question
	limit     time.Duration
	startedAt time.Time
	subs      map[string]scoring.Submission
	seq       int
	revealed  bool
	timer     *timer
	bowl      *bowlRound
}

func (r *round) stopTimers() {
	r.timer.Stop()
	if r.bowl != nil {
		r.bowl.timer.Stop()
	}
}

// submissions returns the recorded answers in arrival order.
func (r *round) submissions() []scoring.Submission {
	out := make([]scoring.Submission, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

type StartRequest struct {
	Categories   []string
	NumQuestions int
	// TimeLimit overrides every question's limit. Nil keeps per-question
	// limits; zero waits for all answers.
	TimeLimit *time.Duration
}

// Start selects questions from cats and begins the countdown to the first
// one. It needs at least one connected participant and one eligible question.
func (g *Game) Start(req StartRequest, cats []questions.Category) error {
	if g.phase != PhaseLobby {
		return ordering("not_in_lobby", "game already started")
	}
	if req.TimeLimit != nil && *req.TimeLimit < 0 {
		return validation("invalid_time_limit", "time limit cannot be negative")
	}
	if g.roster.ConnectedCount() == 0 {
		return validation("no_players", "no players connected")
	}
	n := req.NumQuestions
	if n <= 0 {
		n = defaultQuestionCount
	}
	picked := questions.Select(cats, req.Categories, n)
	if len(picked) == 0 {
		return validation("no_questions", "no questions match the selected categories")
	}

	g.roster.ResetAll()
	g.questions = picked
	g.index = -1
	g.timeLimit = req.TimeLimit
	g.scoredAsked = 0
	g.round = nil
	g.phase = PhaseStarting

	g.out.Broadcast(events.GameStarting{
		TotalQuestions: len(picked),
		Countdown:      int(g.settings.StartCountdown / time.Second),
	})
	g.startTimer = g.after(g.settings.StartCountdown, g.nextQuestion)
	g.log.Info("game starting", zap.Int("questions", len(picked)), zap.String("mode", string(g.mode)))
	return nil
}

// Next advances from a reveal to the next question, or ends the game after
// the last one.
func (g *Game) Next() error {
	if g.phase != PhaseReveal {
		return ordering("not_in_reveal", "no question to advance from")
	}
	g.nextQuestion()
	return nil
}

// Skip closes the current question early and reveals it.
func (g *Game) Skip() error {
	if g.phase != PhaseQuestion || g.round == nil {
		return ordering("no_active_question", "no question to skip")
	}
	if g.mode == ModeBowl {
		g.out.Broadcast(events.BowlNoCorrect{CorrectAnswer: questions.CorrectText(g.round.question)})
		g.bowlReveal(nil)
		return nil
	}
	g.reveal()
	return nil
}

// End finishes the game from any in-game phase.
func (g *Game) End() error {
	switch g.phase {
	case PhaseLobby:
		return ordering("not_started", "game has not started")
	case PhaseFinished:
		return nil
	}
	g.finish()
	return nil
}

// Reset returns the room to the lobby. Scores, streaks and answered sets are
// cleared; participants and teams stay.
func (g *Game) Reset() error {
	g.stopTimers()
	g.roster.ResetAll()
	g.questions = nil
	g.index = -1
	g.timeLimit = nil
	g.scoredAsked = 0
	g.round = nil
	g.minigame = nil
	g.phase = PhaseLobby
	g.out.Broadcast(events.RoomReset{RoomState: g.Snapshot("")})
	g.log.Info("room reset")
	return nil
}

func (g *Game) nextQuestion() {
	g.startTimer = nil
	if g.round != nil {
		g.round.stopTimers()
		g.round = nil
	}
	g.index++
	if g.index >= len(g.questions) {
		g.finish()
		return
	}

	q := g.questions[g.index]
	r := &round{
		question:  q,
		limit:     g.limitFor(q),
		startedAt: g.clock.Now(),
		subs:      make(map[string]scoring.Submission),
	}
	if g.mode == ModeBowl {
		r.bowl = &bowlRound{phase: BowlBuzzing}
		if g.teamMode {
			for _, t := range g.teams {
				r.bowl.eligible = append(r.bowl.eligible, t.ID)
			}
		}
	}
	g.round = r
	g.phase = PhaseQuestion
	if questions.Scored(q) {
		g.scoredAsked++
	}

	g.out.ToHost(events.Question{QuestionInfo: g.questionInfo(true)})
	g.out.ToPlayers(events.Question{QuestionInfo: g.questionInfo(false)})

	if r.limit > 0 {
		r.timer = g.after(r.limit, g.reveal)
	}
}

// limitFor is zero when the question waits for every answer or, in bowl
// mode, for the host.
func (g *Game) limitFor(q questions.Question) time.Duration {
	if g.mode == ModeBowl {
		return 0
	}
	if g.timeLimit != nil {
		return *g.timeLimit
	}
	if l := q.Meta().Limit; l > 0 {
		return l
	}
	return g.settings.DefaultTimeLimit
}

func (g *Game) questionInfo(forHost bool) events.QuestionInfo {
	r := g.round
	q := r.question
	info := events.QuestionInfo{
		Number:       g.index + 1,
		Total:        len(g.questions),
		QuestionType: string(q.Kind()),
		Prompt:       q.Meta().Prompt,
		Answers:      questions.Options(q),
		TimeLimit:    int(r.limit / time.Second),
		WaitForAll:   r.limit == 0 && g.mode == ModeClassic,
		GameMode:     string(g.mode),
	}
	if forHost {
		info.Correct = questions.CorrectValue(q)
	}
	return info
}

// Answer records a classic-mode submission. A second submission for the same
// question is ignored; one after the window has closed is an ordering error.
func (g *Game) Answer(playerID string, raw any, wager int) error {
	p := g.roster.Get(playerID)
	if p == nil {
		return notFound("unknown_player", "player not found")
	}
	if g.phase != PhaseQuestion || g.round == nil || g.round.revealed {
		return ordering("answer_window_closed", "answer window closed")
	}
	if g.mode == ModeBowl {
		return ordering("bowl_mode", "answers are buzzed in bowl mode")
	}
	r := g.round
	qid := r.question.Meta().ID
	if g.Submitted(playerID) {
		return nil
	}
	v, err := questions.Parse(r.question, raw)
	if err != nil {
		return validation("invalid_answer", "%s", err.Error())
	}
	w := 0
	if _, ok := r.question.(questions.Wager); ok {
		w = scoring.ClampWager(wager, p.Score)
	}

	r.seq++
	r.subs[playerID] = scoring.Submission{
		PlayerID: playerID,
		Answer:   v,
		Elapsed:  g.clock.Now().Sub(r.startedAt),
		Seq:      r.seq,
		Wager:    w,
		Score:    p.Score,
		Streak:   p.Streak,
	}
	p.MarkAnswered(qid)
	p.Stats.Answered++

	g.out.ToPlayer(playerID, events.AnswerReceived{Answer: v, Wager: w})
	g.out.Broadcast(events.PlayerAnswered{Count: len(r.subs), Total: g.roster.ConnectedCount()})
	g.revealIfAllAnswered()
	return nil
}

// revealIfAllAnswered closes a classic question once every connected
// participant has submitted.
// Submitted reports whether playerID has answered the open question.
func (g *Game) Submitted(playerID string) bool {
	if g.round == nil {
		return false
	}
	_, ok := g.round.subs[playerID]
	return ok
}

func (g *Game) revealIfAllAnswered() {
	if g.phase != PhaseQuestion || g.round == nil || g.mode != ModeClassic {
		return
	}
	connected := g.roster.Connected()
	if len(connected) == 0 {
		return
	}
	for _, p := range connected {
		if _, ok := g.round.subs[p.ID]; !ok {
			return
		}
	}
	g.reveal()
}

// reveal scores the current classic question exactly once.
func (g *Game) reveal() {
	r := g.round
	if r == nil || r.revealed || g.phase != PhaseQuestion {
		return
	}
	r.revealed = true
	r.timer.Stop()
	g.phase = PhaseReveal

	q := r.question
	subs := r.submissions()
	outcome := scoring.Score(q, subs, r.limit)
	scored := questions.Scored(q)

	byPlayer := make(map[string]scoring.Result, len(outcome.Results))
	for _, res := range outcome.Results {
		byPlayer[res.PlayerID] = res
	}
	for _, s := range subs {
		p := g.roster.Get(s.PlayerID)
		if p == nil {
			continue
		}
		res := byPlayer[s.PlayerID]
		p.Apply(res.Delta, res.Streak)
		if res.Correct && scored {
			p.Stats.Correct++
			p.Stats.CorrectTime += s.Elapsed
		}
	}

	results := make([]events.Result, 0, g.roster.Count())
	for _, p := range g.roster.List() {
		res, ok := byPlayer[p.ID]
		if !ok {
			if scored {
				p.Streak = 0
			}
			res = scoring.Result{PlayerID: p.ID, Streak: p.Streak}
		}
		results = append(results, events.Result{Result: res, Name: p.Name, TotalScore: p.Score})
	}

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
		PollResults:     outcome.Tally,
		LastQuestion:    g.index >= len(g.questions)-1,
	})
	g.log.Debug("question revealed", zap.String("question", q.Meta().ID), zap.Int("answers", len(subs)))
}

func (g *Game) finish() {
	g.stopTimers()
	g.round = nil
	g.minigame = nil
	g.phase = PhaseFinished

	board, teamBoard := g.Leaderboard()
	g.out.Broadcast(events.GameOver{
		Leaderboard:     board,
		TeamLeaderboard: teamBoard,
		TeamMode:        g.teamMode,
		TotalQuestions:  len(g.questions),
		Awards:          g.awards(),
	})
	g.log.Info("game over", zap.Int("questions", len(g.questions)))
}
