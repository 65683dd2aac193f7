package rooms

import (
	"context"
	"time"

	"quizroom/internal/events"
	"quizroom/internal/game"
	"quizroom/internal/metrics"
	"quizroom/internal/questions"

	"go.uber.org/zap"
)

// HandlePlayer applies one inbound participant message. A rejection is
// reported to that participant only.
func (r *Room) HandlePlayer(ctx context.Context, playerID string, cmd events.Command) error {
	return r.Do(ctx, func(g *game.Game) error {
		err := r.playerCommand(g, playerID, cmd)
		if err != nil {
			r.reply(playerID, err)
		}
		return err
	})
}

func (r *Room) playerCommand(g *game.Game, id string, cmd events.Command) error {
	switch cmd.Type {
	case "answer":
		v, err := cmd.AnswerValue()
		if err != nil {
			return game.Validation("invalid_answer", "answer is not valid JSON")
		}
		kind := g.CurrentKind()
		dup := g.Submitted(id)
		if err := g.Answer(id, v, cmd.Wager); err != nil {
			return err
		}
		if !dup {
			metrics.Answers.WithLabelValues(kind).Inc()
		}
		return nil
	case "buzz":
		return r.countBuzz(g, id, g.Buzz(id))
	case "steal_buzz":
		return r.countBuzz(g, id, g.StealBuzz(id))
	case "bowl_answer":
		return g.BowlAnswer(id, cmd.BowlText())
	case "minigame_submit":
		return g.MinigameSubmit(id, cmd.Data)
	case "leave":
		return g.Leave(id)
	}
	return game.Validation("unknown_message", "unknown message type %q", cmd.Type)
}

func (r *Room) countBuzz(g *game.Game, id string, err error) error {
	if err != nil {
		return err
	}
	result := "late"
	if g.FloorHolder() == id {
		result = "won"
	}
	metrics.Buzzes.WithLabelValues(result).Inc()
	return nil
}

// HandleHost applies one inbound host message. Starting a game loads the
// question bank before entering the actor.
func (r *Room) HandleHost(ctx context.Context, cmd events.Command) error {
	r.touch()
	if cmd.Type == "start_game" {
		return r.startGame(ctx, cmd)
	}
	if cmd.Type == "close_room" {
		r.Close(ReasonHostClosed, "The host closed the room")
		return nil
	}
	return r.Do(ctx, func(g *game.Game) error {
		err := r.hostCommand(g, cmd)
		if err != nil {
			r.reply(game.HostID, err)
		}
		return err
	})
}

func (r *Room) startGame(ctx context.Context, cmd events.Command) error {
	var limit *time.Duration
	if cmd.TimeLimit != nil {
		d, err := seconds(*cmd.TimeLimit, "invalid_time_limit")
		if err != nil {
			r.reply(game.HostID, err)
			return err
		}
		limit = &d
	}
	req := game.StartRequest{Categories: cmd.Categories, NumQuestions: cmd.NumQuestions, TimeLimit: limit}
	return r.Start(ctx, req)
}

// Start loads categories from the bank and starts the game.
func (r *Room) Start(ctx context.Context, req game.StartRequest) error {
	var cats []questions.Category
	var bankErr error
	if r.bank != nil {
		cats, bankErr = r.bank.Categories(ctx)
	}
	return r.Do(ctx, func(g *game.Game) error {
		if bankErr != nil {
			r.log.Error("loading question bank", zap.Error(bankErr))
			err := game.Fatal("bank_unavailable", "question bank unavailable")
			r.reply(game.HostID, err)
			return err
		}
		err := g.Start(req, cats)
		if err != nil {
			r.reply(game.HostID, err)
		}
		return err
	})
}

func (r *Room) hostCommand(g *game.Game, cmd events.Command) error {
	switch cmd.Type {
	case "next_question":
		return g.Next()
	case "skip_question":
		return g.Skip()
	case "end_game":
		return g.End()
	case "reset_room":
		return g.Reset()
	case "kick_player":
		return g.Kick(cmd.TargetPlayer())
	case "judge":
		return g.Judge(cmd.Correct)
	case "skip_steal":
		return g.SkipSteal()
	case "set_game_mode":
		return g.SetMode(game.Mode(cmd.Mode))
	case "set_team_mode":
		if cmd.Enabled == nil {
			return game.Validation("missing_enabled", "enabled is required")
		}
		return g.SetTeamMode(*cmd.Enabled)
	case "create_team":
		_, err := g.CreateTeam(cmd.Name, cmd.Color)
		return err
	case "update_team":
		var name, color *string
		if cmd.Name != "" {
			name = &cmd.Name
		}
		if cmd.Color != "" {
			color = &cmd.Color
		}
		_, err := g.UpdateTeam(teamRef(cmd), name, color)
		return err
	case "delete_team":
		return g.DeleteTeam(teamRef(cmd))
	case "assign_team":
		teamID := ""
		if cmd.TeamID != nil {
			teamID = *cmd.TeamID
		}
		return g.AssignTeam(cmd.PlayerID, teamID)
	case "auto_assign_teams":
		return g.AutoAssign(cmd.NumTeams)
	case "start_minigame":
		d := r.settings.MinigameDuration
		if cmd.Duration != nil {
			var err error
			if d, err = seconds(*cmd.Duration, "invalid_duration"); err != nil {
				return err
			}
		}
		return g.StartMinigame(cmd.MinigameType, cmd.Prompt, d)
	case "end_minigame":
		return g.EndMinigame()
	}
	return game.Validation("unknown_message", "unknown message type %q", cmd.Type)
}

// maxClientSeconds bounds durations sent by clients.
const maxClientSeconds = 24 * 60 * 60

// seconds converts a client-supplied count of seconds. Negative values pass
// through for the game to reject.
func seconds(n int, code string) (time.Duration, error) {
	if n > maxClientSeconds {
		return 0, game.Validation(code, "must be at most %d seconds", maxClientSeconds)
	}
	return time.Duration(n) * time.Second, nil
}

func teamRef(cmd events.Command) string {
	if cmd.TeamID != nil {
		return *cmd.TeamID
	}
	return cmd.ID
}
