package events

import (
	"encoding/json"

	"quizroom/internal/awards"
	"quizroom/internal/scoring"
)

const (
	TypeRoomState     = "room_state"
	TypeRoomReset     = "room_reset"
	TypeQuestion      = "question"
	TypeReveal        = "reveal"
	TypeGameOver      = "game_over"
	TypeGameStarting  = "game_starting"
	TypeError         = "error"
	TypeKicked        = "kicked"
	TypeRoomClosed    = "room_closed"
	TypeBowlCorrect   = "bowl_correct"
	TypeBowlNoCorrect = "bowl_no_correct"
)

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TeamID    string `json:"team_id,omitempty"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// QuestionInfo describes the current question. Correct is only filled in for
// the host.
type QuestionInfo struct {
	Number       int      `json:"question_num"`
	Total        int      `json:"total_questions"`
	QuestionType string   `json:"question_type"`
	Prompt       string   `json:"question"`
	Answers      []string `json:"answers,omitempty"`
	TimeLimit    int      `json:"time_limit"`
	WaitForAll   bool     `json:"wait_for_all"`
	GameMode     string   `json:"game_mode"`
	Correct      any      `json:"correct,omitempty"`
}

type BowlState struct {
	Phase            string   `json:"bowl_phase"`
	BuzzWinner       string   `json:"buzz_winner,omitempty"`
	BuzzTeam         string   `json:"buzz_team,omitempty"`
	Answer           string   `json:"answer,omitempty"`
	AwaitingJudgment bool     `json:"awaiting_judgment"`
	StealEligible    []string `json:"steal_eligible"`
	IsSteal          bool     `json:"is_steal"`
}

type MinigameState struct {
	Type     string `json:"type"`
	Prompt   string `json:"prompt,omitempty"`
	Duration int    `json:"duration"`
}

type Self struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"player_name"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
	Team     *Team  `json:"team,omitempty"`
}

// RoomState is a full snapshot of a room as seen by one viewer.
type RoomState struct {
	RoomCode        string                 `json:"room_code"`
	State           string                 `json:"state"`
	GameMode        string                 `json:"game_mode"`
	TeamMode        bool                   `json:"team_mode"`
	HostConnected   bool                   `json:"host_connected"`
	Players         []PlayerInfo           `json:"players"`
	PlayerCount     int                    `json:"player_count"`
	Teams           []Team                 `json:"teams"`
	Leaderboard     []scoring.Standing     `json:"leaderboard"`
	TeamLeaderboard []scoring.TeamStanding `json:"team_leaderboard,omitempty"`
	CurrentQuestion *QuestionInfo          `json:"current_question,omitempty"`
	AlreadyAnswered bool                   `json:"already_answered"`
	AnswersIn       int                    `json:"answers_in"`
	Bowl            *BowlState             `json:"bowl,omitempty"`
	Minigame        *MinigameState         `json:"minigame_state,omitempty"`
	You             *Self                  `json:"you,omitempty"`
}

type RoomReset struct{ RoomState }

type PlayerJoined struct {
	Player      PlayerInfo `json:"player"`
	PlayerCount int        `json:"player_count"`
}

type PlayerLeft struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"player_name"`
	PlayerCount int    `json:"player_count"`
	Kicked      bool   `json:"kicked"`
}

type PlayerConnected struct {
	PlayerID       string `json:"player_id"`
	Name           string `json:"player_name"`
	ConnectedCount int    `json:"connected_count"`
}

type PlayerDisconnected struct {
	PlayerID       string `json:"player_id"`
	Name           string `json:"player_name"`
	ConnectedCount int    `json:"connected_count"`
}

type HostConnected struct {
	Message string `json:"message"`
}

type HostDisconnected struct {
	Message string `json:"message"`
}

type GameStarting struct {
	TotalQuestions int `json:"total_questions"`
	Countdown      int `json:"countdown"`
}

type Question struct{ QuestionInfo }

// PlayerAnswered reports progress only, never who answered.
type PlayerAnswered struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

type AnswerReceived struct {
	Answer any `json:"answer"`
	Wager  int `json:"wager"`
}

type Result struct {
	scoring.Result
	Name       string `json:"name"`
	TotalScore int    `json:"total_score"`
}

type Reveal struct {
	QuestionType    string                 `json:"question_type"`
	Results         []Result               `json:"results"`
	Leaderboard     []scoring.Standing     `json:"leaderboard"`
	TeamLeaderboard []scoring.TeamStanding `json:"team_leaderboard,omitempty"`
	TeamMode        bool                   `json:"team_mode"`
	CorrectAnswer   any                    `json:"correct_answer,omitempty"`
	CorrectText     string                 `json:"correct_text,omitempty"`
	Answers         []string               `json:"answers,omitempty"`
	PollResults     []scoring.TallyEntry   `json:"poll_results,omitempty"`
	LastQuestion    bool                   `json:"last_question"`
}

type GameOver struct {
	Leaderboard     []scoring.Standing     `json:"leaderboard"`
	TeamLeaderboard []scoring.TeamStanding `json:"team_leaderboard,omitempty"`
	TeamMode        bool                   `json:"team_mode"`
	TotalQuestions  int                    `json:"total_questions"`
	Awards          []awards.Award         `json:"awards"`
}

type Kicked struct {
	Message string `json:"message"`
}

type RoomClosed struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameModeChanged struct {
	GameMode string `json:"game_mode"`
	TeamMode bool   `json:"team_mode"`
	Teams    []Team `json:"teams"`
}

type TeamModeChanged struct {
	TeamMode bool   `json:"team_mode"`
	Teams    []Team `json:"teams"`
}

type TeamCreated struct {
	Team     Team `json:"team"`
	TeamMode bool `json:"team_mode"`
}

type TeamUpdated struct {
	Team Team `json:"team"`
}

type TeamDeleted struct {
	TeamID     string   `json:"team_id"`
	Unassigned []string `json:"unassigned"`
	TeamMode   bool     `json:"team_mode"`
}

type PlayerTeamChanged struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
}

type YourTeamChanged struct {
	Team *Team `json:"team"`
}

type TeamsAutoAssigned struct {
	Teams       []Team            `json:"teams"`
	Assignments map[string]string `json:"assignments"`
}

type BuzzWinner struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"player_name"`
	TeamID   string `json:"team_id,omitempty"`
	Team     *Team  `json:"team,omitempty"`
}

type StealWinner struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"player_name"`
	TeamID   string `json:"team_id,omitempty"`
	Team     *Team  `json:"team,omitempty"`
}

type YouBuzzedFirst struct {
	AnswerTimeout int `json:"answer_timeout"`
}

type YouCanSteal struct {
	AnswerTimeout int `json:"answer_timeout"`
}

type BuzzTooSlow struct {
	Message string `json:"message"`
}

type StealNotEligible struct {
	Message string `json:"message"`
}

type BowlAnswerSubmitted struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"player_name"`
	TeamID   string `json:"team_id,omitempty"`
	Answer   string `json:"answer"`
	IsSteal  bool   `json:"is_steal"`
}

type BowlAnswerReceived struct {
	Answer string `json:"answer"`
}

type AwaitingJudgment struct {
	Name   string `json:"player_name"`
	TeamID string `json:"team_id,omitempty"`
}

type BowlCorrect struct {
	PlayerID        string                 `json:"player_id"`
	Name            string                 `json:"player_name"`
	TeamID          string                 `json:"team_id,omitempty"`
	Answer          string                 `json:"answer"`
	Points          int                    `json:"points"`
	IsSteal         bool                   `json:"is_steal"`
	Leaderboard     []scoring.Standing     `json:"leaderboard"`
	TeamLeaderboard []scoring.TeamStanding `json:"team_leaderboard,omitempty"`
}

type BowlIncorrectSteal struct {
	PlayerID      string   `json:"player_id"`
	Name          string   `json:"player_name"`
	TeamID        string   `json:"team_id,omitempty"`
	Answer        string   `json:"answer"`
	StealEligible []string `json:"steal_eligible"`
	TimedOut      bool     `json:"timed_out"`
}

type BowlNoCorrect struct {
	PlayerID      string `json:"player_id,omitempty"`
	Name          string `json:"player_name,omitempty"`
	TeamID        string `json:"team_id,omitempty"`
	GivenAnswer   string `json:"given_answer,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	TimedOut      bool   `json:"timed_out"`
}

type BowlStealSkipped struct {
	CorrectAnswer string `json:"correct_answer"`
}

type MinigameStart struct {
	MinigameType string `json:"minigame_type"`
	Prompt       string `json:"prompt,omitempty"`
	Duration     int    `json:"duration"`
}

type MinigameSubmission struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"player_name"`
	Data     json.RawMessage `json:"data"`
}

type MinigameSubmissionReceived struct{}

type MinigameEntry struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"player_name"`
	Data     json.RawMessage `json:"data"`
}

type MinigameEnd struct {
	MinigameType string          `json:"minigame_type"`
	Submissions  []MinigameEntry `json:"submissions"`
}

func (RoomState) EventType() string                  { return TypeRoomState }
func (RoomReset) EventType() string                  { return TypeRoomReset }
func (PlayerJoined) EventType() string               { return "player_joined" }
func (PlayerLeft) EventType() string                 { return "player_left" }
func (PlayerConnected) EventType() string            { return "player_connected" }
func (PlayerDisconnected) EventType() string         { return "player_disconnected" }
func (HostConnected) EventType() string              { return "host_connected" }
func (HostDisconnected) EventType() string           { return "host_disconnected" }
func (GameStarting) EventType() string               { return TypeGameStarting }
func (Question) EventType() string                   { return TypeQuestion }
func (PlayerAnswered) EventType() string             { return "player_answered" }
func (AnswerReceived) EventType() string             { return "answer_received" }
func (Reveal) EventType() string                     { return TypeReveal }
func (GameOver) EventType() string                   { return TypeGameOver }
func (Kicked) EventType() string                     { return TypeKicked }
func (RoomClosed) EventType() string                 { return TypeRoomClosed }
func (Error) EventType() string                      { return TypeError }
func (GameModeChanged) EventType() string            { return "game_mode_changed" }
func (TeamModeChanged) EventType() string            { return "team_mode_changed" }
func (TeamCreated) EventType() string                { return "team_created" }
func (TeamUpdated) EventType() string                { return "team_updated" }
func (TeamDeleted) EventType() string                { return "team_deleted" }
func (PlayerTeamChanged) EventType() string          { return "player_team_changed" }
func (YourTeamChanged) EventType() string            { return "your_team_changed" }
func (TeamsAutoAssigned) EventType() string          { return "teams_auto_assigned" }
func (BuzzWinner) EventType() string                 { return "buzz_winner" }
func (StealWinner) EventType() string                { return "steal_winner" }
func (YouBuzzedFirst) EventType() string             { return "you_buzzed_first" }
func (YouCanSteal) EventType() string                { return "you_can_steal" }
func (BuzzTooSlow) EventType() string                { return "buzz_too_slow" }
func (StealNotEligible) EventType() string           { return "steal_not_eligible" }
func (BowlAnswerSubmitted) EventType() string        { return "bowl_answer_submitted" }
func (BowlAnswerReceived) EventType() string         { return "bowl_answer_received" }
func (AwaitingJudgment) EventType() string           { return "awaiting_judgment" }
func (BowlCorrect) EventType() string                { return TypeBowlCorrect }
func (BowlIncorrectSteal) EventType() string         { return "bowl_incorrect_steal" }
func (BowlNoCorrect) EventType() string              { return TypeBowlNoCorrect }
func (BowlStealSkipped) EventType() string           { return "bowl_steal_skipped" }
func (MinigameStart) EventType() string              { return "minigame_start" }
func (MinigameSubmission) EventType() string         { return "minigame_submission" }
func (MinigameSubmissionReceived) EventType() string { return "minigame_submission_received" }
func (MinigameEnd) EventType() string                { return "minigame_end" }
