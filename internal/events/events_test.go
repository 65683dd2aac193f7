package events

import (
	"encoding/json"
	"testing"

	"quizroom/internal/scoring"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return m
}

func TestEncode_AddsType(t *testing.T) {
	data, err := Encode(PlayerAnswered{Count: 2, Total: 5})
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, data)
	if m["type"] != "player_answered" {
		t.Errorf("type = %v, want player_answered", m["type"])
	}
	if m["count"] != float64(2) || m["total"] != float64(5) {
		t.Errorf("unexpected payload: %v", m)
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	data, err := Encode(MinigameSubmissionReceived{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"minigame_submission_received"}` {
		t.Errorf("got %s", data)
	}
}

func TestEncode_EmbeddedSnapshot(t *testing.T) {
	ev := RoomReset{RoomState{RoomCode: "ABCD", State: "lobby", Leaderboard: []scoring.Standing{}}}
	data, err := Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, data)
	if m["type"] != "room_reset" {
		t.Errorf("type = %v, want room_reset", m["type"])
	}
	if m["room_code"] != "ABCD" || m["state"] != "lobby" {
		t.Errorf("snapshot fields should be flattened, got %v", m)
	}
}

func TestEncode_QuestionFlattensInfo(t *testing.T) {
	data, err := Encode(Question{QuestionInfo{Number: 1, Total: 3, QuestionType: "choice", Prompt: "2+2", Answers: []string{"3", "4"}}})
	if err != nil {
		t.Fatal(err)
	}
	m := decode(t, data)
	if m["question"] != "2+2" || m["question_num"] != float64(1) {
		t.Errorf("unexpected payload: %v", m)
	}
	if _, ok := m["correct"]; ok {
		t.Error("correct should be omitted when unset")
	}
}

func TestCommand_AnswerValue(t *testing.T) {
	var c Command
	if err := json.Unmarshal([]byte(`{"type":"answer","answer":1,"wager":200}`), &c); err != nil {
		t.Fatal(err)
	}
	v, err := c.AnswerValue()
	if err != nil || v != float64(1) {
		t.Errorf("AnswerValue = %v, %v", v, err)
	}
	if c.Wager != 200 {
		t.Errorf("Wager = %d, want 200", c.Wager)
	}

	c = Command{}
	if err := json.Unmarshal([]byte(`{"type":"answer","value":"stone"}`), &c); err != nil {
		t.Fatal(err)
	}
	v, _ = c.AnswerValue()
	if v != "stone" {
		t.Errorf("value alias: got %v", v)
	}

	v, err = Command{}.AnswerValue()
	if v != nil || err != nil {
		t.Errorf("missing answer should be nil, got %v, %v", v, err)
	}
}

func TestCommand_BowlTextAndTarget(t *testing.T) {
	var c Command
	if err := json.Unmarshal([]byte(`{"type":"bowl_answer","answer":"Jupiter"}`), &c); err != nil {
		t.Fatal(err)
	}
	if c.BowlText() != "Jupiter" {
		t.Errorf("BowlText = %q", c.BowlText())
	}
	if (Command{Text: "Mars"}).BowlText() != "Mars" {
		t.Error("text alias should be used when answer is absent")
	}
	if (Command{ID: "p1"}).TargetPlayer() != "p1" {
		t.Error("id should be accepted for kick_player")
	}
	if (Command{ID: "x", PlayerID: "p2"}).TargetPlayer() != "p2" {
		t.Error("player_id should win over id")
	}
}
