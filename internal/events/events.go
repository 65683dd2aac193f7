// Package events defines the JSON messages exchanged on participant channels.
// Every outbound message is an object whose "type" field is its EventType.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Event interface {
	EventType() string
}

// Encode marshals ev and prefixes its type field.
func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ev.EventType(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encoding %s: payload is not an object", ev.EventType())
	}
	typ, _ := json.Marshal(ev.EventType())

	var buf bytes.Buffer
	buf.Grow(len(body) + len(typ) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// Command is an inbound message from a host or player channel. Only the
// fields relevant to Type are read.
type Command struct {
	Type string `json:"type"`

	// answer
	Answer json.RawMessage `json:"answer,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Wager  int             `json:"wager,omitempty"`

	// bowl_answer
	Text string `json:"text,omitempty"`

	// judge
	Correct bool `json:"correct,omitempty"`

	// start_game
	Categories   []string `json:"categories,omitempty"`
	NumQuestions int      `json:"num_questions,omitempty"`
	TimeLimit    *int     `json:"time_limit,omitempty"`

	// kick_player and team assignment
	PlayerID string `json:"player_id,omitempty"`
	ID       string `json:"id,omitempty"`

	// set_game_mode and set_team_mode
	Mode    string `json:"mode,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`

	// team mutations
	TeamID   *string `json:"team_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Color    string  `json:"color,omitempty"`
	NumTeams int     `json:"num_teams,omitempty"`

	// minigames
	MinigameType string          `json:"minigame_type,omitempty"`
	Prompt       string          `json:"prompt,omitempty"`
	Duration     *int            `json:"duration,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// AnswerValue decodes the submitted answer, accepting "value" as an alias for
// "answer". A missing answer decodes to nil.
func (c Command) AnswerValue() (any, error) {
	raw := c.Answer
	if len(raw) == 0 {
		raw = c.Value
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// BowlText returns the bowl answer from "answer" when it is a string, else "text".
func (c Command) BowlText() string {
	if len(c.Answer) > 0 {
		var s string
		if err := json.Unmarshal(c.Answer, &s); err == nil {
			return s
		}
	}
	return c.Text
}

// TargetPlayer returns player_id, falling back to id.
func (c Command) TargetPlayer() string {
	if c.PlayerID != "" {
		return c.PlayerID
	}
	return c.ID
}
